package controllers

import (
	"context"

	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

type StockController struct {
	stock *services.StockService
}

func NewStockController(stock *services.StockService) *StockController {
	return &StockController{stock: stock}
}

func (sc *StockController) Status(c *ctx.Context) { sc.list(c, sc.stock.Status) }
func (sc *StockController) Low(c *ctx.Context)    { sc.list(c, sc.stock.LowStock) }
func (sc *StockController) Out(c *ctx.Context)    { sc.list(c, sc.stock.OutOfStock) }

func (sc *StockController) list(c *ctx.Context, fn func(context.Context, services.Actor) ([]services.StockStatus, error)) {
	rows, err := fn(c.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(rows)
}
