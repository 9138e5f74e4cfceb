package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/cache"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHeader is the first row of every product export and import file.
var ExportHeader = []string{"Name", "Description", "Quantity", "Category", "Suppliers"}

const supplierReportKey = "reports:suppliers"

// SupplierStat is one row of the supplier report.
type SupplierStat = repositories.SupplierStat

// RowError is one rejected import row. Line is the 1-based line in the file.
type RowError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

// ImportResult summarises an import.
type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Errors  []RowError `json:"errors"`
}

// ReportService exports, imports and aggregates catalog data.
type ReportService struct {
	db        *gorm.DB
	products  *repositories.ProductRepository
	suppliers *repositories.SupplierRepository
	cache     cache.Store
	cacheTTL  time.Duration
}

func NewReportService(db *gorm.DB, store cache.Store, cacheTTL time.Duration) *ReportService {
	return &ReportService{
		db:        db,
		products:  repositories.NewProductRepository(db),
		suppliers: repositories.NewSupplierRepository(db),
		cache:     store,
		cacheTTL:  cacheTTL,
	}
}

// exportRow renders p as Name, Description, Quantity, Category, Suppliers.
// A product without a category exports an empty Category field.
func exportRow(p models.Product) []string {
	return []string{
		p.Name,
		p.Description,
		strconv.Itoa(p.Quantity),
		p.CategoryName(),
		strings.Join(p.SupplierNames(), ", "),
	}
}

// ExportCSV writes products as CSV. Categories and suppliers must be loaded.
func (s *ReportService) ExportCSV(ctx context.Context, w io.Writer, products []models.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := cw.Write(exportRow(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportAllCSV writes every product, ordered by name.
func (s *ReportService) ExportAllCSV(ctx context.Context, actor Actor, w io.Writer) error {
	products, err := s.loadAll(ctx, actor)
	if err != nil {
		return err
	}
	return s.ExportCSV(ctx, w, products)
}

// ExportXLSX writes products as a workbook with a single "Products" sheet.
func (s *ReportService) ExportXLSX(ctx context.Context, w io.Writer, products []models.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Products"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, p := range products {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := exportRow(p)
		if err := sw.SetRow(cell, []interface{}{row[0], row[1], p.Quantity, row[3], row[4]}); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

// ExportAllXLSX writes every product, ordered by name, as a workbook.
func (s *ReportService) ExportAllXLSX(ctx context.Context, actor Actor, w io.Writer) error {
	products, err := s.loadAll(ctx, actor)
	if err != nil {
		return err
	}
	return s.ExportXLSX(ctx, w, products)
}

func (s *ReportService) loadAll(ctx context.Context, actor Actor) ([]models.Product, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return nil, err
	}
	return s.products.WithTx(s.db.WithContext(ctx)).All()
}

// ImportCSV upserts products from a CSV with the export header. Each row is
// applied in its own transaction; bad rows are reported in Errors and the
// rest of the file still imports.
func (s *ReportService) ImportCSV(ctx context.Context, actor Actor, filename string, r io.Reader) (ImportResult, error) {
	var res ImportResult
	if err := actor.requireManage(); err != nil {
		return res, err
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return res, invalid("file", "This is not a csv file.")
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header := true
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		first := header
		header = false
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return res, fmt.Errorf("read csv: %w", err)
			}
			if !first {
				res.Errors = append(res.Errors, RowError{Line: perr.StartLine, Err: perr.Err.Error()})
				metrics.ImportRows.WithLabelValues("rejected").Inc()
			}
			continue
		}
		if first {
			continue
		}
		line, _ := cr.FieldPos(0)

		created, err := s.importRow(ctx, record)
		if err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				return res, fmt.Errorf("import line %d: %w", line, err)
			}
			res.Errors = append(res.Errors, RowError{Line: line, Err: rowMessage(verr)})
			metrics.ImportRows.WithLabelValues("rejected").Inc()
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
		metrics.ImportRows.WithLabelValues("imported").Inc()
	}

	forgetSupplierReport(ctx, s.cache)
	logger.WithCtx(ctx).Info("import: finished",
		"file", filename, "created", res.Created, "updated", res.Updated,
		"rejected", len(res.Errors), "user", actor.Username)
	return res, nil
}

func rowMessage(e *ValidationError) string {
	if len(e.Fields) == 1 {
		for _, msg := range e.Fields {
			return msg
		}
	}
	return e.Error()
}

// importRow applies one record and reports whether the product was new.
func (s *ReportService) importRow(ctx context.Context, record []string) (bool, error) {
	if len(record) != len(ExportHeader) {
		return false, invalid("row", "expected %d fields, got %d", len(ExportHeader), len(record))
	}
	name := strings.TrimSpace(record[0])
	description := record[1]
	categoryName := strings.TrimSpace(record[3])
	if name == "" {
		return false, invalid("name", "name is required")
	}
	if len([]rune(name)) > 512 {
		return false, invalid("name", "name must not exceed 512 characters")
	}
	qty, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil || qty < 0 {
		return false, invalid("quantity", "quantity %q is not a non-negative integer", record[2])
	}

	created := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		suppliers := s.suppliers.WithTx(tx)
		categories := repositories.NewCategoryRepository(tx)

		var categoryID *uint
		if categoryName != "" {
			c, err := categories.FirstOrCreate(categoryName)
			if err != nil {
				return err
			}
			categoryID = &c.ID
		}

		p, err := products.FindByName(name)
		switch {
		case orm.IsNotFound(err):
			created = true
			p = models.Product{
				Name:              name,
				LowStockThreshold: models.DefaultLowStockThreshold,
				Image:             models.DefaultProductImage,
			}
		case err != nil:
			return err
		}
		p.Description = description
		p.Quantity = qty
		p.CategoryID = categoryID
		p.Category = nil

		if created {
			err = products.Create(&p)
		} else if err = products.Save(&p); err == nil {
			_, err = products.SetQuantity(p.ID, qty)
		}
		if err != nil {
			return err
		}

		for _, sn := range strings.Split(record[4], ",") {
			sn = strings.TrimSpace(sn)
			if sn == "" {
				continue
			}
			sup, err := suppliers.FirstOrCreate(sn)
			if err != nil {
				return err
			}
			if err := products.AppendSupplier(&p, &sup); err != nil {
				return err
			}
		}
		return nil
	})
	return created, err
}

// SupplierReport returns product count and total quantity per supplier,
// ordered by supplier name. ids narrows the report; none means all.
// Unfiltered results are cached until the next catalog change.
func (s *ReportService) SupplierReport(ctx context.Context, actor Actor, ids ...uint) ([]SupplierStat, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return nil, err
	}
	hit := true
	load := func() ([]SupplierStat, error) {
		hit = false
		stats, err := s.suppliers.WithTx(s.db.WithContext(ctx)).Stats(ids)
		if stats == nil {
			stats = []SupplierStat{}
		}
		return stats, err
	}
	if len(ids) > 0 {
		return load()
	}

	stats, err := cache.Remember(ctx, s.cache, supplierReportKey, s.cacheTTL, load)
	if hit {
		metrics.ReportCache.WithLabelValues("hit").Inc()
	} else {
		metrics.ReportCache.WithLabelValues("miss").Inc()
	}
	return stats, err
}

// forgetSupplierReport drops the cached supplier report after a mutation.
func forgetSupplierReport(ctx context.Context, store cache.Store) {
	if store == nil {
		return
	}
	if err := store.Forget(ctx, supplierReportKey); err != nil {
		logger.WithCtx(ctx).Warn("cache: forget supplier report", "error", err)
	}
}
