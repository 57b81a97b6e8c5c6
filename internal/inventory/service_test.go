package inventory

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rogerio-castellano/stockroom/internal/apperrors"
	"github.com/rogerio-castellano/stockroom/internal/auth"
	"github.com/rogerio-castellano/stockroom/internal/logger"
	"github.com/rogerio-castellano/stockroom/internal/models"
	"github.com/rogerio-castellano/stockroom/internal/repo"
	"github.com/rogerio-castellano/stockroom/internal/tabular"
)

const passphrase = "demo2025"

func newGate(t *testing.T) *auth.Gate {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.MinCost)
	require.NoError(t, err)
	g, err := auth.NewGateFromHash(string(hash))
	require.NoError(t, err)
	return g
}

func newUnlockedService(t *testing.T, r repo.ProductRepository) *Service {
	t.Helper()
	s := NewService(r, newGate(t))
	require.True(t, s.TryUnlock(context.Background(), passphrase))
	return s
}

func mouseInput() models.ProductInput {
	return models.ProductInput{
		Name:           "Mysz",
		Quantity:       10,
		AlertThreshold: models.IntPtr(2),
		Location:       "A1",
		Price:          decimal.RequireFromString("25.99"),
	}
}

func TestGateGuardsEveryOperation(t *testing.T) {
	ctx := context.Background()
	s := NewService(repo.NewInMemoryProductRepository(), newGate(t))
	assert.False(t, s.Unlocked())

	_, err := s.ListProducts(ctx)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeLocked))
	_, err = s.AddProduct(ctx, mouseInput())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeLocked))
	_, err = s.ImportFrom(ctx, []byte("x"), tabular.FormatCSV)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeLocked))
	_, err = s.ExportTo(ctx, tabular.FormatCSV)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeLocked))
	assert.True(t, apperrors.IsCode(s.DeleteProduct(ctx, 1), apperrors.CodeLocked))
	_, err = s.UpdateProducts(ctx, []ProductUpdate{{ID: 1, Input: mouseInput()}})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeLocked))

	assert.False(t, s.TryUnlock(ctx, "wrong"))
	assert.False(t, s.Unlocked())

	assert.True(t, s.TryUnlock(ctx, passphrase))
	assert.True(t, s.Unlocked())
	_, err = s.ListProducts(ctx)
	assert.NoError(t, err)

	s.Lock(ctx)
	assert.False(t, s.Unlocked())
	_, err = s.ListProducts(ctx)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeLocked))
}

func TestAddThenList(t *testing.T) {
	ctx := context.Background()
	s := newUnlockedService(t, repo.NewInMemoryProductRepository())

	id, err := s.AddProduct(ctx, mouseInput())
	require.NoError(t, err)
	other, err := s.AddProduct(ctx, models.ProductInput{Name: " Kabel ", Quantity: 1, AlertThreshold: models.IntPtr(5)})
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	views, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, id, views[0].ID)
	assert.Equal(t, "Mysz", views[0].Name)
	assert.False(t, views[0].LowStock)

	assert.Equal(t, "Kabel", views[1].Name)
	assert.True(t, views[1].LowStock)
	assert.True(t, views[1].Price.IsZero())
}

func TestAddRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	r := repo.NewInMemoryProductRepository()
	s := newUnlockedService(t, r)

	tests := []struct {
		name  string
		in    models.ProductInput
		field string
	}{
		{"empty name", models.ProductInput{Name: "  ", Quantity: 1}, "name"},
		{"negative quantity", models.ProductInput{Name: "A", Quantity: -1}, "quantity"},
		{"negative threshold", models.ProductInput{Name: "A", AlertThreshold: models.IntPtr(-2)}, "alert_threshold"},
		{"negative price", models.ProductInput{Name: "A", Price: decimal.NewFromInt(-1)}, "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddProduct(ctx, tt.in)
			require.Error(t, err)
			typed := apperrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, apperrors.CodeValidation, typed.Code())
			fields, ok := typed.Details().([]apperrors.FieldError)
			require.True(t, ok)
			assert.Equal(t, tt.field, fields[0].Field)
		})
	}

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateMissingProductLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newUnlockedService(t, repo.NewInMemoryProductRepository())
	id, err := s.AddProduct(ctx, mouseInput())
	require.NoError(t, err)
	before, err := s.ListProducts(ctx)
	require.NoError(t, err)

	_, err = s.UpdateProduct(ctx, 999, models.ProductInput{Name: "Ghost", Quantity: 1})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	assert.ErrorIs(t, err, repo.ErrProductNotFound)
	assert.Contains(t, err.Error(), "999")

	after, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	updated, err := s.UpdateProduct(ctx, id, models.ProductInput{Name: "Mysz", Quantity: 1, AlertThreshold: models.IntPtr(1)})
	require.NoError(t, err)
	assert.True(t, updated.LowStock)
	assert.Equal(t, "", updated.Location)
}

func TestUpdateProductsContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	s := newUnlockedService(t, repo.NewInMemoryProductRepository())
	a, err := s.AddProduct(ctx, mouseInput())
	require.NoError(t, err)
	b, err := s.AddProduct(ctx, models.ProductInput{Name: "Kabel", Quantity: 3})
	require.NoError(t, err)

	result, err := s.UpdateProducts(ctx, []ProductUpdate{
		{ID: a, Input: models.ProductInput{Name: "Mysz", Quantity: 1, AlertThreshold: models.IntPtr(2), Location: "A1"}},
		{ID: 999, Input: models.ProductInput{Name: "Duch", Quantity: 1}},
		{ID: b, Input: models.ProductInput{Name: "Kabel", Quantity: -4}},
		{ID: b, Err: apperrors.New(apperrors.CodeValidation, "quantity is required").
			WithDetails([]apperrors.FieldError{{Field: "quantity", Description: "is required"}})},
		{ID: b, Input: models.ProductInput{Name: "Kabel HDMI", Quantity: 7}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 3, result.Failed)
	require.Len(t, result.Failures, 3)
	assert.Equal(t, RowError{Row: 2, Field: "id", Value: "999", Reason: "product 999 not found",
		Content: map[string]string{"id": "999", "name": "Duch"}}, result.Failures[0])
	assert.Equal(t, 3, result.Failures[1].Row)
	assert.Equal(t, "quantity", result.Failures[1].Field)
	assert.Equal(t, "-4", result.Failures[1].Value)
	assert.Equal(t, "is required", result.Failures[2].Reason)
	assert.Equal(t, b, result.Outcomes[4].ProductID)

	views, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].LowStock)
	assert.Equal(t, "Kabel HDMI", views[1].Name)
	assert.Equal(t, 7, views[1].Quantity)
}

func TestDeleteRemovesOnlyTarget(t *testing.T) {
	ctx := context.Background()
	s := newUnlockedService(t, repo.NewInMemoryProductRepository())
	a, err := s.AddProduct(ctx, mouseInput())
	require.NoError(t, err)
	b, err := s.AddProduct(ctx, models.ProductInput{Name: "Kabel", Quantity: 3})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProduct(ctx, a))
	err = s.DeleteProduct(ctx, 12345)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	views, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, b, views[0].ID)
	assert.Equal(t, "Kabel", views[0].Name)

	_, err = s.GetProduct(ctx, a)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestImportRowThreeOfFiveFails(t *testing.T) {
	ctx := context.Background()
	s := newUnlockedService(t, repo.NewInMemoryProductRepository())

	data := strings.Join([]string{
		"nazwa,ilosc,prog_alertu,lokalizacja,cena",
		"A,1,0,L1,1.00",
		"B,2,0,L2,2.00",
		"C,abc,0,L3,3.00",
		"D,4,0,L4,4.00",
		"E,5,0,L5,5.00",
	}, "\n")

	result, err := s.ImportFrom(ctx, []byte(data), tabular.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Outcomes, 5)
	require.Len(t, result.Failures, 1)

	failure := result.Failures[0]
	assert.Equal(t, 3, failure.Row)
	assert.Equal(t, 4, failure.Line)
	assert.Equal(t, "quantity", failure.Field)
	assert.Equal(t, "abc", failure.Value)
	assert.Equal(t, "C", failure.Content["nazwa"])
	assert.Contains(t, failure.Error(), "row 3")

	views, err := s.ListProducts(ctx)
	require.NoError(t, err)
	var names []string
	for _, v := range views {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"A", "B", "D", "E"}, names)
}

func TestImportReportsValidationFailures(t *testing.T) {
	ctx := context.Background()
	s := newUnlockedService(t, repo.NewInMemoryProductRepository())

	data := "nazwa,ilosc,prog_alertu,lokalizacja\n,1,0,L1\nB,-3,0,L2\nC,3,,L3\n"
	result, err := s.ImportFrom(ctx, []byte(data), tabular.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	require.Len(t, result.Failures, 2)
	assert.Equal(t, "name", result.Failures[0].Field)
	assert.Equal(t, "quantity", result.Failures[1].Field)
	assert.Equal(t, "-3", result.Failures[1].Value)
}

func TestImportRejectsUnparseableFile(t *testing.T) {
	ctx := context.Background()
	r := repo.NewInMemoryProductRepository()
	s := newUnlockedService(t, r)

	_, err := s.ImportFrom(ctx, []byte("nazwa;cena\nA;1\n"), tabular.FormatCSV)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeParse))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, format := range []tabular.Format{tabular.FormatCSV, tabular.FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			src := newUnlockedService(t, repo.NewInMemoryProductRepository())
			for _, in := range []models.ProductInput{
				mouseInput(),
				{Name: "Klawiatura; PL", Quantity: 0, Location: "B2", Price: decimal.RequireFromString("45.5")},
				{Name: "Monitor", Quantity: 3, AlertThreshold: models.IntPtr(3)},
			} {
				_, err := src.AddProduct(ctx, in)
				require.NoError(t, err)
			}
			want, err := src.ListProducts(ctx)
			require.NoError(t, err)

			out, err := src.ExportTo(ctx, format)
			require.NoError(t, err)

			dst := newUnlockedService(t, repo.NewInMemoryProductRepository())
			result, err := dst.ImportFrom(ctx, out, format)
			require.NoError(t, err)
			assert.Equal(t, len(want), result.Succeeded)
			assert.Zero(t, result.Failed)

			got, err := dst.ListProducts(ctx)
			require.NoError(t, err)
			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, want[i].Input().Normalize().Name, got[i].Name)
				assert.Equal(t, want[i].Quantity, got[i].Quantity)
				assert.Equal(t, want[i].AlertThreshold, got[i].AlertThreshold)
				assert.Equal(t, want[i].Location, got[i].Location)
				assert.True(t, want[i].Price.Equal(got[i].Price))
				assert.Equal(t, want[i].LowStock, got[i].LowStock)
			}
		})
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	s := newUnlockedService(t, repo.NewInMemoryProductRepository())
	_, err := s.ExportTo(context.Background(), tabular.Format("pdf"))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeParse))
}

func TestResetWithNoRowsEmptiesStore(t *testing.T) {
	ctx := context.Background()
	s := newUnlockedService(t, repo.NewInMemoryProductRepository())
	_, err := s.AddProduct(ctx, mouseInput())
	require.NoError(t, err)

	result, err := s.Reset(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, result.Succeeded)
	assert.Empty(t, result.Outcomes)

	views, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestResetSkipsInvalidRows(t *testing.T) {
	ctx := context.Background()
	s := newUnlockedService(t, repo.NewInMemoryProductRepository())
	old, err := s.AddProduct(ctx, mouseInput())
	require.NoError(t, err)

	data := "nazwa,ilosc,prog_alertu,lokalizacja,cena\nA,1,0,L1,1\nB,x,0,L2,2\nC,3,1,L3,3\n"
	result, err := s.ResetFrom(ctx, []byte(data), tabular.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, result.Failures[0].Row)
	assert.NotZero(t, result.Outcomes[0].ProductID)
	assert.Zero(t, result.Outcomes[1].ProductID)
	assert.NotZero(t, result.Outcomes[2].ProductID)

	views, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "A", views[0].Name)
	assert.Equal(t, "C", views[1].Name)
	for _, v := range views {
		assert.NotEqual(t, old, v.ID)
	}
}

func TestResetLogsReplacedCount(t *testing.T) {
	ctx := context.Background()
	buf := &bytes.Buffer{}
	s := NewService(repo.NewInMemoryProductRepository(), newGate(t),
		WithLogger(logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: buf})))
	require.True(t, s.TryUnlock(ctx, passphrase))
	for i := 0; i < 3; i++ {
		_, err := s.AddProduct(ctx, mouseInput())
		require.NoError(t, err)
	}

	rows, _, err := s.Preview(ctx, []byte("nazwa,ilosc,prog_alertu,lokalizacja\nKabel,1,,B1\n"), tabular.FormatCSV)
	require.NoError(t, err)
	_, err = s.Reset(ctx, rows)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"message":"import preview parsed"`)
	assert.Contains(t, buf.String(), `"replaced":3,"stored":1`)
}

type failingResetRepo struct {
	*repo.InMemoryProductRepository
}

func (failingResetRepo) Reset(context.Context, []models.Product) ([]models.Product, error) {
	return nil, errors.New("disk full")
}

func TestResetFailureKeepsPreviousProducts(t *testing.T) {
	ctx := context.Background()
	r := failingResetRepo{repo.NewInMemoryProductRepository()}
	s := newUnlockedService(t, r)
	_, err := s.AddProduct(ctx, mouseInput())
	require.NoError(t, err)

	_, err = s.ResetFrom(ctx, []byte("nazwa,ilosc,prog_alertu,lokalizacja\nA,1,0,L1\n"), tabular.FormatCSV)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInternal))

	views, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Mysz", views[0].Name)
}

func TestResetFromFile(t *testing.T) {
	ctx := context.Background()
	s := newUnlockedService(t, repo.NewInMemoryProductRepository())

	dir := t.TempDir()
	path := filepath.Join(dir, "produkty_demo.csv")
	require.NoError(t, os.WriteFile(path, []byte("nazwa,ilosc,prog_alertu,lokalizacja,cena\nDemo,4,5,X1,9.99\n"), 0o600))

	result, err := s.ResetFromFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)

	_, err = s.ResetFromFile(ctx, filepath.Join(dir, "missing.csv"))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeParse))

	_, err = s.ResetFromFile(ctx, filepath.Join(dir, "notes.txt"))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeParse))
}

func TestPreviewDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	r := repo.NewInMemoryProductRepository()
	s := newUnlockedService(t, r)

	rows, result, err := s.Preview(ctx, []byte("name,quantity,threshold,location\nA,1,,L\nB,two,,L\n"), tabular.FormatCSV)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	s := newUnlockedService(t, repo.NewInMemoryProductRepository())
	_, err := s.AddProduct(ctx, mouseInput())
	require.NoError(t, err)
	_, err = s.AddProduct(ctx, models.ProductInput{Name: "Kabel", Quantity: 2, AlertThreshold: models.IntPtr(2), Price: decimal.RequireFromString("1.50")})
	require.NoError(t, err)

	d, err := s.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, d.TotalProducts)
	assert.Equal(t, 12, d.TotalQuantity)
	assert.Equal(t, 1, d.LowStock)
	assert.Equal(t, "262.90", d.InventoryValue.StringFixed(2))
}

func TestSummarize(t *testing.T) {
	result := Summarize([]RowOutcome{
		{Row: 1, ProductID: 4},
		{Row: 2, Err: &RowError{Row: 2, Reason: "bad"}},
	})
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []RowError{{Row: 2, Reason: "bad"}}, result.Failures)

	empty := Summarize(nil)
	assert.NotNil(t, empty.Outcomes)
	assert.NotNil(t, empty.Failures)
}
