package controllers

import (
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

type CategoryController struct {
	catalog *services.CatalogService
}

func NewCategoryController(catalog *services.CatalogService) *CategoryController {
	return &CategoryController{catalog: catalog}
}

func (cc *CategoryController) Index(c *ctx.Context) {
	cats, err := cc.catalog.ListCategories(c.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(cats)
}

func (cc *CategoryController) Store(c *ctx.Context) {
	var in services.CategoryInput
	if !c.BindJSON(&in) {
		return
	}
	cat, err := cc.catalog.CreateCategory(c.Context(), actor(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(cat)
}

func (cc *CategoryController) Update(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.CategoryInput
	if !c.BindJSON(&in) {
		return
	}
	cat, err := cc.catalog.UpdateCategory(c.Context(), actor(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(cat)
}

// Destroy removes the category; its products are kept uncategorised.
func (cc *CategoryController) Destroy(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if err := cc.catalog.DeleteCategory(c.Context(), actor(c), id); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}
