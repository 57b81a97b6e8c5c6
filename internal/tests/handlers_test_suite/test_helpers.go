package handlers_test_suite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/rogerio-castellano/stockroom/internal/auth"
	api "github.com/rogerio-castellano/stockroom/internal/http"
	handler "github.com/rogerio-castellano/stockroom/internal/http/handlers"
	"github.com/rogerio-castellano/stockroom/internal/inventory"
	"github.com/rogerio-castellano/stockroom/internal/metrics"
	"github.com/rogerio-castellano/stockroom/internal/repo"
)

const passphrase = "secret"

var (
	productRepo *repo.InMemoryProductRepository
	service     *inventory.Service
	registry    *prometheus.Registry
)

func init() {
	setupTestService(passphrase)
}

func setupTestService(secret string) {
	productRepo = repo.NewInMemoryProductRepository()

	hash, _ := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	gate, err := auth.NewGateFromHash(string(hash))
	if err != nil {
		panic(fmt.Sprintf("error creating gate: %v", err))
	}

	registry = prometheus.NewRegistry()
	service = inventory.NewService(productRepo, gate, inventory.WithMetrics(metrics.NewInventoryMetrics(registry)))
}

func newRouter(opts ...func(*handler.Options)) http.Handler {
	options := handler.Options{}
	for _, opt := range opts {
		opt(&options)
	}
	srv := handler.NewServer(service, options)
	return api.NewRouter(srv, api.RouterOptions{Gatherer: registry})
}

func withSeedFile(path string) func(*handler.Options) {
	return func(o *handler.Options) { o.SeedFile = path }
}

func withMaxUpload(n int64) func(*handler.Options) {
	return func(o *handler.Options) { o.MaxUploadBytes = n }
}

func clearAllProducts() {
	_, _ = productRepo.Reset(context.Background(), nil)
}

// unlock opens the gate for the test and closes it again afterwards.
func unlock(t *testing.T, r http.Handler) {
	t.Helper()
	w := postJSON(r, "/unlock", handler.UnlockRequest{Passphrase: passphrase})
	if w.Code != http.StatusOK {
		t.Fatalf("unlock failed: %d %s", w.Code, w.Body.String())
	}
	t.Cleanup(func() {
		postJSON(r, "/lock", nil)
	})
}

func postJSON(r http.Handler, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createProduct(r http.Handler, p handler.ProductRequest) *httptest.ResponseRecorder {
	return postJSON(r, "/products", p)
}

func updateProduct(r http.Handler, id int, p handler.ProductRequest) *httptest.ResponseRecorder {
	body, _ := json.Marshal(p)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/products/%d", id), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func listProducts(t *testing.T, r http.Handler) handler.ProductsResult {
	t.Helper()
	w := get(r, "/products")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK listing products, got %d", w.Code)
	}
	var result handler.ProductsResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode products: %v", err)
	}
	return result
}

func multipartFile(content []byte, filename string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, _ := writer.CreateFormFile("file", filename)
	part.Write(content)

	writer.Close()
	return &buf, writer.FormDataContentType()
}

func upload(r http.Handler, path string, content []byte, filename string) *httptest.ResponseRecorder {
	body, contentType := multipartFile(content, filename)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func intPtr(v int) *int {
	return &v
}

func newRecorder(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
