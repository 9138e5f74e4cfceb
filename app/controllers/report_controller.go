package controllers

import (
	"bytes"
	"context"
	"io"

	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportController struct {
	reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{reports: reports}
}

// Suppliers returns per-supplier product counts. ?id= narrows the report.
func (rc *ReportController) Suppliers(c *ctx.Context) {
	stats, err := rc.reports.SupplierReport(c.Context(), actor(c), c.QueryUints("id")...)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(stats)
}

// ExportCSV downloads products.csv.
func (rc *ReportController) ExportCSV(c *ctx.Context) {
	rc.download(c, "products.csv", "text/csv; charset=utf-8", rc.reports.ExportAllCSV)
}

// ExportXLSX downloads products.xlsx.
func (rc *ReportController) ExportXLSX(c *ctx.Context) {
	rc.download(c, "products.xlsx", xlsxContentType, rc.reports.ExportAllXLSX)
}

// download renders the whole file before the headers go out so a failure
// still gets a JSON error.
func (rc *ReportController) download(c *ctx.Context, filename, contentType string,
	render func(context.Context, services.Actor, io.Writer) error) {
	var buf bytes.Buffer
	if err := render(c.Context(), actor(c), &buf); err != nil {
		fail(c, err)
		return
	}
	if err := c.Download(filename, contentType, &buf); err != nil {
		logger.WithCtx(c.Context()).Warn("download interrupted", "file", filename, "error", err)
	}
}

// Import upserts products from the multipart field "file".
func (rc *ReportController) Import(c *ctx.Context) {
	up, done, ok := upload(c, "file")
	if !ok {
		return
	}
	defer done()

	res, err := rc.reports.ImportCSV(c.Context(), actor(c), up.Filename, up.Body)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(res)
}
