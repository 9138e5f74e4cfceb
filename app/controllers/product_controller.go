package controllers

import (
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
)

type ProductController struct {
	catalog *services.CatalogService
	stock   *services.StockService
	sales   *services.SaleService
}

func NewProductController(catalog *services.CatalogService, stock *services.StockService, sales *services.SaleService) *ProductController {
	return &ProductController{catalog: catalog, stock: stock, sales: sales}
}

// Index lists products, newest first.
func (pc *ProductController) Index(c *ctx.Context) {
	page, err := pc.catalog.ListProducts(c.Context(), actor(c), c.QueryInt("page", 1), c.QueryInt("per_page", orm.DefaultPerPage))
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(page.Products, page.Pagination)
}

// Search matches ?q= against name, description and category.
func (pc *ProductController) Search(c *ctx.Context) {
	page, err := pc.catalog.SearchProducts(c.Context(), actor(c), c.Query("q"), c.QueryInt("page", 1), c.QueryInt("per_page", orm.DefaultPerPage))
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(page.Products, page.Pagination)
}

func (pc *ProductController) Show(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	p, err := pc.catalog.GetProduct(c.Context(), actor(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Store(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.catalog.CreateProduct(c.Context(), actor(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(p)
}

func (pc *ProductController) Update(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.catalog.UpdateProduct(c.Context(), actor(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Destroy(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if err := pc.catalog.DeleteProduct(c.Context(), actor(c), id); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}

// Image replaces the product image from the multipart field "image".
func (pc *ProductController) Image(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	up, done, ok := upload(c, "image")
	if !ok {
		return
	}
	defer done()

	p, err := pc.catalog.SetProductImage(c.Context(), actor(c), id, up)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

// Stock applies a set or delta quantity update.
func (pc *ProductController) Stock(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.StockUpdate
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.stock.UpdateQuantity(c.Context(), actor(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

// RecordSale sells from stock.
func (pc *ProductController) RecordSale(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.SaleInput
	if !c.BindJSON(&in) {
		return
	}
	sale, err := pc.sales.Record(c.Context(), actor(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(sale)
}

func (pc *ProductController) Sales(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	sales, err := pc.sales.ForProduct(c.Context(), actor(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(sales)
}
