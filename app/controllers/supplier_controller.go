package controllers

import (
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

type SupplierController struct {
	catalog *services.CatalogService
}

func NewSupplierController(catalog *services.CatalogService) *SupplierController {
	return &SupplierController{catalog: catalog}
}

func (sc *SupplierController) Index(c *ctx.Context) {
	sups, err := sc.catalog.ListSuppliers(c.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(sups)
}

// Show returns the supplier with the products it supplies.
func (sc *SupplierController) Show(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	sup, err := sc.catalog.GetSupplier(c.Context(), actor(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(sup)
}

func (sc *SupplierController) Store(c *ctx.Context) {
	var in services.SupplierInput
	if !c.BindJSON(&in) {
		return
	}
	sup, err := sc.catalog.CreateSupplier(c.Context(), actor(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(sup)
}

func (sc *SupplierController) Update(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.SupplierInput
	if !c.BindJSON(&in) {
		return
	}
	sup, err := sc.catalog.UpdateSupplier(c.Context(), actor(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(sup)
}

func (sc *SupplierController) Destroy(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if err := sc.catalog.DeleteSupplier(c.Context(), actor(c), id); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}

// Logo replaces the supplier logo from the multipart field "logo".
func (sc *SupplierController) Logo(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	up, done, ok := upload(c, "logo")
	if !ok {
		return
	}
	defer done()

	sup, err := sc.catalog.SetSupplierLogo(c.Context(), actor(c), id, up)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(sup)
}
