package handlers_integrated_test_suite

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	handler "github.com/rogerio-castellano/stockroom/internal/http/handlers"
)

const products = `nazwa;ilosc;prog_alertu;lokalizacja;cena
Mouse;10;2;A1;25,99 zł
Keyboard;5;1;A2;45,00
Broken;-3;1;A3;1
Monitor;2;3;B1;150`

func TestGateProtectsProducts(t *testing.T) {
	t.Cleanup(clearAllProducts)

	if w := get("/products"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 while locked, got %d", w.Code)
	}
	if w := postJSON("/unlock", handler.UnlockRequest{Passphrase: "nope"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong passphrase, got %d", w.Code)
	}

	unlock(t)
	status := decode[handler.StatusResponse](t, get("/status"))
	if !status.Unlocked || status.State != "unlocked" {
		t.Errorf("expected unlocked status, got %+v", status)
	}
	if w := get("/products"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 after unlock, got %d", w.Code)
	}
}

func TestProductLifecycle(t *testing.T) {
	t.Cleanup(clearAllProducts)
	unlock(t)

	quantity, threshold := 4, 3
	w := postJSON("/products", handler.ProductRequest{
		Name: "Lamp", Quantity: &quantity, AlertThreshold: &threshold, Location: "C1", Price: decimal.RequireFromString("19.999"),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[handler.ProductResponse](t, w)
	if created.Price != "20.00" || created.LowStock {
		t.Errorf("unexpected created product %+v", created)
	}

	lowQuantity := 2
	req := fmt.Sprintf("/products/%d", created.Id)
	fetched := decode[handler.ProductResponse](t, get(req))
	if fetched.Name != "Lamp" || fetched.AlertThreshold == nil || *fetched.AlertThreshold != 3 {
		t.Errorf("unexpected stored product %+v", fetched)
	}

	w = serveMethod(http.MethodPut, req, handler.ProductRequest{Name: "Lamp", Quantity: &lowQuantity, AlertThreshold: &threshold, Location: "C1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if updated := decode[handler.ProductResponse](t, w); !updated.LowStock {
		t.Errorf("expected low stock after update, got %+v", updated)
	}

	if w := serveMethod(http.MethodDelete, req, nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := get(req); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestImportResetExportAgainstDatabase(t *testing.T) {
	t.Cleanup(clearAllProducts)
	unlock(t)

	w := upload("/products/import", []byte(products), "produkty.csv")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	imported := decode[handler.ImportProductsResult](t, w)
	if imported.Succeeded != 3 || imported.Failed != 1 || imported.Errors[0].Field != "quantity" {
		t.Fatalf("unexpected import result %+v", imported)
	}

	w = get("/products/export")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	if len(records) != 4 || records[1][5] != "25.99" || records[3][6] != "!" {
		t.Errorf("unexpected export %v", records)
	}

	w = upload("/products/reset?confirm=true", []byte("name,quantity,threshold,location\nDesk,1,,D1\n"), "produkty.csv")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	list := decode[handler.ProductsResult](t, get("/products"))
	if list.Meta.TotalCount != 1 || list.Data[0].Name != "Desk" {
		t.Errorf("expected only the reset product, got %+v", list.Data)
	}

	dashboard := decode[handler.DashboardResponse](t, get("/metrics/dashboard"))
	if dashboard.TotalProducts != 1 || dashboard.InventoryValue != "0.00" {
		t.Errorf("unexpected dashboard %+v", dashboard)
	}
}

func TestResetDemo(t *testing.T) {
	t.Cleanup(clearAllProducts)
	unlock(t)

	if err := os.WriteFile(seedFile, []byte(products), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(seedFile) })

	w := postJSON("/products/reset/demo?confirm=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	result := decode[handler.ImportProductsResult](t, w)
	if result.Succeeded != 3 || result.Failed != 1 {
		t.Errorf("unexpected demo reset %+v", result)
	}

	var names []string
	for _, p := range decode[handler.ProductsResult](t, get("/products")).Data {
		names = append(names, p.Name)
	}
	if got := strings.Join(names, ","); got != "Mouse,Keyboard,Monitor" {
		t.Errorf("unexpected demo products %s", got)
	}
}

func TestHealthReportsStore(t *testing.T) {
	health := decode[handler.HealthResponse](t, get("/health"))
	if health.Status != "ok" || health.Store != "ok" {
		t.Errorf("unexpected health %+v", health)
	}
}
