package handlers

import (
	"fmt"
	"net/http"

	"github.com/rogerio-castellano/stockroom/internal/inventory"
)

// CreateProductHandler godoc
// @Summary Create a new product
// @Description Adds a product to the inventory
// @Tags products
// @Accept json
// @Produce json
// @Param product body ProductRequest true "Product to add"
// @Success 201 {object} ProductResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /products [post]
func (s *Server) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := readJSON(w, r, &req); err != nil {
		s.invalidJSON(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	id, err := s.svc.AddProduct(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	created, err := s.svc.GetProduct(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	headers := http.Header{"Location": []string{fmt.Sprintf("/products/%d", id)}}
	_ = writeJSON(w, http.StatusCreated, toProductResponse(created), headers)
}

// GetProductsHandler godoc
// @Summary List all products
// @Tags products
// @Produce json
// @Success 200 {object} ProductsResult
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /products [get]
func (s *Server) GetProductsHandler(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.ListProducts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result := ProductsResult{Data: make([]ProductResponse, len(views))}
	for i, v := range views {
		result.Data[i] = toProductResponse(v)
		if v.LowStock {
			result.Meta.LowStock++
		}
	}
	result.Meta.TotalCount = len(views)
	_ = writeJSON(w, http.StatusOK, result)
}

// GetProductByIDHandler godoc
// @Summary Get product by ID
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [get]
func (s *Server) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := s.svc.GetProduct(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toProductResponse(view))
}

// UpdateProductHandler godoc
// @Summary Replace a product
// @Description Replaces every field of an existing product
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param product body ProductRequest true "New product fields"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [put]
func (s *Server) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req ProductRequest
	if err := readJSON(w, r, &req); err != nil {
		s.invalidJSON(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	updated, err := s.svc.UpdateProduct(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toProductResponse(updated))
}

// UpdateProductsHandler godoc
// @Summary Save an edited product table
// @Description Updates every listed product. A missing id or invalid record fails only its own entry.
// @Tags products
// @Accept json
// @Produce json
// @Param products body []ProductUpdateRequest true "Edited products"
// @Success 200 {object} ImportProductsResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /products [put]
func (s *Server) UpdateProductsHandler(w http.ResponseWriter, r *http.Request) {
	var req []ProductUpdateRequest
	if err := readJSON(w, r, &req); err != nil {
		s.invalidJSON(w, r, err)
		return
	}

	updates := make([]inventory.ProductUpdate, len(req))
	for i, item := range req {
		in, err := item.input()
		if err != nil {
			in.Name = item.Name
		}
		updates[i] = inventory.ProductUpdate{ID: item.Id, Input: in, Err: err}
	}

	result, err := s.svc.UpdateProducts(r.Context(), updates)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toImportResult(result))
}

// DeleteProductHandler godoc
// @Summary Delete product by ID
// @Tags products
// @Param id path int true "Product ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [delete]
func (s *Server) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.svc.DeleteProduct(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
