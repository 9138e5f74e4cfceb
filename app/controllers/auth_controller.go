package controllers

import (
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Register godoc: POST /api/auth/register
func (ac *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	u, err := ac.auth.Register(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(u)
}

// Login godoc: POST /api/auth/login
func (ac *AuthController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	tok, err := ac.auth.Login(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(tok)
}

// Profile godoc: GET /api/auth/profile
func (ac *AuthController) Profile(c *ctx.Context) {
	u, err := ac.auth.Profile(c.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(u)
}

// UpdateProfile godoc: PUT /api/auth/profile
func (ac *AuthController) UpdateProfile(c *ctx.Context) {
	var in services.ProfileInput
	if !c.BindJSON(&in) {
		return
	}
	u, err := ac.auth.UpdateProfile(c.Context(), actor(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(u)
}
