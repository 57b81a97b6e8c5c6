// Package inventory exposes the operations a presentation layer calls: gate
// control, product CRUD and the tabular import, export and reset batches.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rogerio-castellano/stockroom/internal/alert"
	"github.com/rogerio-castellano/stockroom/internal/apperrors"
	"github.com/rogerio-castellano/stockroom/internal/logger"
	"github.com/rogerio-castellano/stockroom/internal/metrics"
	"github.com/rogerio-castellano/stockroom/internal/models"
	"github.com/rogerio-castellano/stockroom/internal/repo"
	"github.com/rogerio-castellano/stockroom/internal/tabular"
)

// Gate is the lock consulted before every inventory operation.
type Gate interface {
	TryUnlock(secret string) bool
	Lock()
	Unlocked() bool
}

// ProductView is a product together with its low-stock flag.
type ProductView struct {
	models.Product
	LowStock bool `json:"low_stock"`
}

func newView(p models.Product) ProductView {
	return ProductView{Product: p, LowStock: alert.IsLowStock(p.Quantity, p.AlertThreshold)}
}

type Dashboard struct {
	TotalProducts  int             `json:"total_products"`
	TotalQuantity  int             `json:"total_quantity"`
	LowStock       int             `json:"low_stock"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
}

type Service struct {
	products repo.ProductRepository
	gate     Gate
	log      *logger.Logger
	metrics  *metrics.InventoryMetrics
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *metrics.InventoryMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(products repo.ProductRepository, gate Gate, opts ...Option) *Service {
	s := &Service{
		products: products,
		gate:     gate,
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TryUnlock opens the gate if secret matches the passphrase.
func (s *Service) TryUnlock(ctx context.Context, secret string) bool {
	ok := s.gate.TryUnlock(secret)
	s.metrics.IncUnlock(ok)
	if ok {
		s.log.Info(ctx, "inventory unlocked")
	} else {
		s.log.Warn(ctx, "unlock rejected")
	}
	return ok
}

func (s *Service) Lock(ctx context.Context) {
	s.gate.Lock()
	s.log.Info(ctx, "inventory locked")
}

func (s *Service) Unlocked() bool {
	return s.gate.Unlocked()
}

func (s *Service) ensureUnlocked() error {
	if !s.gate.Unlocked() {
		return apperrors.New(apperrors.CodeLocked, "inventory is locked")
	}
	return nil
}

func (s *Service) ListProducts(ctx context.Context) ([]ProductView, error) {
	if err := s.ensureUnlocked(); err != nil {
		return nil, err
	}
	products, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, s.internal(ctx, err, "listing products")
	}

	views := make([]ProductView, len(products))
	low := 0
	for i, p := range products {
		views[i] = newView(p)
		if views[i].LowStock {
			low++
		}
	}
	s.metrics.SetLowStock(low)
	return views, nil
}

func (s *Service) GetProduct(ctx context.Context, id int) (ProductView, error) {
	if err := s.ensureUnlocked(); err != nil {
		return ProductView{}, err
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return ProductView{}, s.storeError(ctx, err, id, "loading product")
	}
	return newView(p), nil
}

// AddProduct validates and stores a new product, returning its id.
func (s *Service) AddProduct(ctx context.Context, in models.ProductInput) (int, error) {
	if err := s.ensureUnlocked(); err != nil {
		return 0, err
	}
	if err := in.Validate(); err != nil {
		return 0, err
	}
	created, err := s.products.Create(ctx, in.Normalize().Product())
	if err != nil {
		return 0, s.internal(ctx, err, "creating product")
	}
	s.log.Event(ctx, zerolog.InfoLevel).Int("product_id", created.ID).Msg("product created")
	return created.ID, nil
}

// UpdateProduct replaces every editable field of product id.
func (s *Service) UpdateProduct(ctx context.Context, id int, in models.ProductInput) (ProductView, error) {
	if err := s.ensureUnlocked(); err != nil {
		return ProductView{}, err
	}
	if err := in.Validate(); err != nil {
		return ProductView{}, err
	}
	p := in.Normalize().Product()
	p.ID = id
	updated, err := s.products.Update(ctx, p)
	if err != nil {
		return ProductView{}, s.storeError(ctx, err, id, "updating product")
	}
	s.log.Event(ctx, zerolog.InfoLevel).Int("product_id", id).Msg("product updated")
	return newView(updated), nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int) error {
	if err := s.ensureUnlocked(); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return s.storeError(ctx, err, id, "deleting product")
	}
	s.log.Event(ctx, zerolog.InfoLevel).Int("product_id", id).Msg("product deleted")
	return nil
}

// ProductUpdate is one edited record of a bulk save. Err is set when the
// record was already rejected while decoding, before it reached the service.
type ProductUpdate struct {
	ID    int
	Input models.ProductInput
	Err   error
}

// UpdateProducts saves every edited record in turn. A missing id or an invalid
// record fails only its own entry; Row numbers follow the order of updates.
func (s *Service) UpdateProducts(ctx context.Context, updates []ProductUpdate) (BatchResult, error) {
	if err := s.ensureUnlocked(); err != nil {
		return BatchResult{}, err
	}
	started := s.now()

	outcomes := make([]RowOutcome, 0, len(updates))
	for i, u := range updates {
		outcome := RowOutcome{Row: i + 1, ProductID: u.ID}
		if rerr := checkUpdate(i+1, u); rerr != nil {
			outcome.Err = rerr
			outcomes = append(outcomes, outcome)
			continue
		}

		p := u.Input.Normalize().Product()
		p.ID = u.ID
		if _, err := s.products.Update(ctx, p); err != nil {
			if ctx.Err() != nil {
				return Summarize(outcomes), apperrors.Wrap(apperrors.CodeInternal, ctx.Err(), fmt.Sprintf("bulk update interrupted at product %d", u.ID))
			}
			reason := "could not be saved"
			if errors.Is(err, repo.ErrProductNotFound) {
				reason = fmt.Sprintf("product %d not found", u.ID)
			} else {
				s.log.Error(ctx, "bulk update failed", err)
			}
			outcome.Err = updateError(i+1, u, "id", strconv.Itoa(u.ID), reason)
		}
		outcomes = append(outcomes, outcome)
	}

	result := Summarize(outcomes)
	s.finishBatch(ctx, "update", result, started)
	return result, nil
}

// Preview parses a file without touching the store and reports what an
// import would do with every row.
func (s *Service) Preview(ctx context.Context, data []byte, format tabular.Format) ([]tabular.Row, BatchResult, error) {
	if err := s.ensureUnlocked(); err != nil {
		return nil, BatchResult{}, err
	}
	rows, err := tabular.Parse(data, format)
	if err != nil {
		return nil, BatchResult{}, err
	}
	outcomes := make([]RowOutcome, len(rows))
	for i, row := range rows {
		outcomes[i] = RowOutcome{Row: row.Index, Line: row.Line, Err: checkRow(row)}
	}
	s.log.Debug(ctx, "import preview parsed")
	return rows, Summarize(outcomes), nil
}

// ImportFrom adds one product per valid row of the file. Bad rows are reported
// in the result and never stop the batch.
func (s *Service) ImportFrom(ctx context.Context, data []byte, format tabular.Format) (BatchResult, error) {
	if err := s.ensureUnlocked(); err != nil {
		return BatchResult{}, err
	}
	rows, err := tabular.Parse(data, format)
	if err != nil {
		return BatchResult{}, err
	}
	return s.Import(ctx, rows)
}

func (s *Service) Import(ctx context.Context, rows []tabular.Row) (BatchResult, error) {
	if err := s.ensureUnlocked(); err != nil {
		return BatchResult{}, err
	}
	started := s.now()

	outcomes := make([]RowOutcome, 0, len(rows))
	for _, row := range rows {
		outcome := RowOutcome{Row: row.Index, Line: row.Line}
		if rerr := checkRow(row); rerr != nil {
			outcome.Err = rerr
			outcomes = append(outcomes, outcome)
			continue
		}

		created, err := s.products.Create(ctx, row.Input().Normalize().Product())
		if err != nil {
			if ctx.Err() != nil {
				return Summarize(outcomes), apperrors.Wrap(apperrors.CodeInternal, ctx.Err(), fmt.Sprintf("import interrupted at row %d", row.Index))
			}
			s.log.Error(ctx, "import row failed", err)
			outcome.Err = newRowError(row, "", "", "could not be stored")
		} else {
			outcome.ProductID = created.ID
		}
		outcomes = append(outcomes, outcome)
	}

	result := Summarize(outcomes)
	s.finishBatch(ctx, "import", result, started)
	return result, nil
}

// ResetFrom replaces every product with the valid rows of the file.
func (s *Service) ResetFrom(ctx context.Context, data []byte, format tabular.Format) (BatchResult, error) {
	if err := s.ensureUnlocked(); err != nil {
		return BatchResult{}, err
	}
	rows, err := tabular.Parse(data, format)
	if err != nil {
		return BatchResult{}, err
	}
	return s.Reset(ctx, rows)
}

// ResetFromFile resets from a CSV or XLSX file on disk, picking the format
// from its extension.
func (s *Service) ResetFromFile(ctx context.Context, path string) (BatchResult, error) {
	if err := s.ensureUnlocked(); err != nil {
		return BatchResult{}, err
	}
	format, err := tabular.ParseFormat(filepath.Ext(path))
	if err != nil {
		return BatchResult{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return BatchResult{}, apperrors.Wrap(apperrors.CodeParse, err, "reading "+filepath.Base(path))
	}
	return s.ResetFrom(ctx, data, format)
}

// Reset deletes every product and stores the valid rows in their place with
// fresh ids. Invalid rows are skipped and reported. The replacement is a
// single store transaction; if it fails the previous products remain.
func (s *Service) Reset(ctx context.Context, rows []tabular.Row) (BatchResult, error) {
	if err := s.ensureUnlocked(); err != nil {
		return BatchResult{}, err
	}
	started := s.now()

	outcomes := make([]RowOutcome, len(rows))
	valid := make([]int, 0, len(rows))
	products := make([]models.Product, 0, len(rows))
	for i, row := range rows {
		outcomes[i] = RowOutcome{Row: row.Index, Line: row.Line, Err: checkRow(row)}
		if outcomes[i].Err == nil {
			valid = append(valid, i)
			products = append(products, row.Input().Normalize().Product())
		}
	}

	previous, err := s.products.Count(ctx)
	if err != nil {
		return BatchResult{}, s.internal(ctx, err, "counting products")
	}
	created, err := s.products.Reset(ctx, products)
	if err != nil {
		return BatchResult{}, s.internal(ctx, err, "resetting products")
	}
	s.log.Event(ctx, zerolog.InfoLevel).
		Int("replaced", previous).
		Int("stored", len(created)).
		Msg("products replaced")
	for n, i := range valid {
		if n < len(created) {
			outcomes[i].ProductID = created[n].ID
		}
	}

	result := Summarize(outcomes)
	s.finishBatch(ctx, "reset", result, started)
	return result, nil
}

func (s *Service) ExportTo(ctx context.Context, format tabular.Format) ([]byte, error) {
	if err := s.ensureUnlocked(); err != nil {
		return nil, err
	}
	if _, err := tabular.ParseFormat(string(format)); err != nil {
		return nil, err
	}
	products, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, s.internal(ctx, err, "listing products")
	}
	out, err := tabular.Export(products, format)
	if err != nil {
		return nil, s.internal(ctx, err, "exporting products")
	}
	return out, nil
}

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	views, err := s.ListProducts(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{TotalProducts: len(views), InventoryValue: decimal.Zero}
	for _, v := range views {
		d.TotalQuantity += v.Quantity
		if v.LowStock {
			d.LowStock++
		}
		d.InventoryValue = d.InventoryValue.Add(v.Price.Mul(decimal.NewFromInt(int64(v.Quantity))))
	}
	d.InventoryValue = d.InventoryValue.Round(2)
	return d, nil
}

func (s *Service) finishBatch(ctx context.Context, operation string, result BatchResult, started time.Time) {
	elapsed := s.now().Sub(started)
	s.metrics.ObserveBatch(operation, result.Succeeded, result.Failed, elapsed)

	level := zerolog.InfoLevel
	if result.Failed > 0 {
		level = zerolog.WarnLevel
	}
	s.log.Event(ctx, level).
		Str("operation", operation).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Dur("elapsed", elapsed).
		Msg("batch finished")
}

func (s *Service) storeError(ctx context.Context, err error, id int, action string) error {
	if errors.Is(err, repo.ErrProductNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, err, fmt.Sprintf("product %d not found", id)).
			WithDetails(map[string]int{"id": id})
	}
	return s.internal(ctx, err, action)
}

func (s *Service) internal(ctx context.Context, err error, action string) error {
	s.log.Error(ctx, action+" failed", err)
	return apperrors.Wrap(apperrors.CodeInternal, err, action)
}
