package handlers_integrated_test_suite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rogerio-castellano/stockroom/internal/app"
	handler "github.com/rogerio-castellano/stockroom/internal/http/handlers"
)

const passphrase = "demo2025"

var (
	inventoryApp *app.App
	router       http.Handler
	seedFile     string
)

// unlock opens the gate for the test and closes it again afterwards.
func unlock(t *testing.T) {
	t.Helper()
	w := postJSON("/unlock", handler.UnlockRequest{Passphrase: passphrase})
	if w.Code != http.StatusOK {
		t.Fatalf("unlock failed: %d %s", w.Code, w.Body.String())
	}
	t.Cleanup(func() {
		postJSON("/lock", nil)
	})
}

func clearAllProducts() {
	ctx := context.Background()
	if !inventoryApp.Service.Unlocked() {
		inventoryApp.Service.TryUnlock(ctx, passphrase)
		defer inventoryApp.Service.Lock(ctx)
	}
	if _, err := inventoryApp.Service.Reset(ctx, nil); err != nil {
		panic(fmt.Sprintf("clearing products: %v", err))
	}
}

func postJSON(path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", "application/json")
	return serve(req)
}

func get(path string) *httptest.ResponseRecorder {
	return serve(httptest.NewRequest(http.MethodGet, path, nil))
}

func upload(path string, content []byte, filename string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, _ := writer.CreateFormFile("file", filename)
	part.Write(content)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return serve(req)
}

func serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func serveMethod(method, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	return serve(req)
}
