package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rogerio-castellano/stockroom/internal/apperrors"
	"github.com/rogerio-castellano/stockroom/internal/tabular"
)

// readUpload returns the multipart "file" field and its format, taken from the
// format query parameter or else from the file name.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, tabular.Format, error) {
	if r.ContentLength > s.maxUploadBytes {
		return nil, "", s.tooLarge(nil)
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", s.tooLarge(err)
		}
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid multipart upload")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", apperrors.New(apperrors.CodeValidation, "missing file")
	}
	defer file.Close()

	source := r.URL.Query().Get("format")
	if source == "" {
		source = header.Filename
	}
	format, err := tabular.ParseFormat(source)
	if err != nil {
		return nil, "", err
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeParse, err, "could not read upload")
	}
	return data, format, nil
}

func (s *Server) tooLarge(cause error) error {
	msg := fmt.Sprintf("upload exceeds the limit of %d bytes", s.maxUploadBytes)
	if s.maxUploadBytes%(1<<20) == 0 {
		msg = fmt.Sprintf("upload exceeds the limit of %d MB", s.maxUploadBytes>>20)
	}
	return apperrors.Wrap(apperrors.CodeTooLarge, cause, msg).
		WithDetails(map[string]int64{"limit_bytes": s.maxUploadBytes})
}

func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

// ImportProductsHandler godoc
// @Summary Import products from CSV or XLSX
// @Description Adds one product per valid row. Invalid rows are reported and skipped.
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Param format query string false "csv or xlsx; defaults to the file extension"
// @Success 200 {object} ImportProductsResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /products/import [post]
func (s *Server) ImportProductsHandler(w http.ResponseWriter, r *http.Request) {
	data, format, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.svc.ImportFrom(r.Context(), data, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toImportResult(result))
}

// PreviewImportHandler godoc
// @Summary Preview an import
// @Description Parses the file and validates every row without storing anything
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Param format query string false "csv or xlsx"
// @Success 200 {object} PreviewResult
// @Failure 400 {object} ErrorResponse
// @Router /products/import/preview [post]
func (s *Server) PreviewImportHandler(w http.ResponseWriter, r *http.Request) {
	data, format, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rows, result, err := s.svc.Preview(r.Context(), data, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, PreviewResult{
		Rows:      rows,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Errors:    result.Failures,
	})
}

// ResetProductsHandler godoc
// @Summary Replace all products from a file
// @Description Deletes every product and imports the file in its place. Requires confirm=true.
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Param confirm query bool true "Must be true"
// @Param format query string false "csv or xlsx"
// @Success 200 {object} ImportProductsResult
// @Failure 400 {object} ErrorResponse
// @Router /products/reset [post]
func (s *Server) ResetProductsHandler(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		s.badRequest(w, r, "reset deletes every product; repeat with confirm=true")
		return
	}

	data, format, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.svc.ResetFrom(r.Context(), data, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toImportResult(result))
}

// ResetDemoHandler godoc
// @Summary Replace all products with the demo data set
// @Tags import
// @Produce json
// @Param confirm query bool true "Must be true"
// @Success 200 {object} ImportProductsResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /products/reset/demo [post]
func (s *Server) ResetDemoHandler(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		s.badRequest(w, r, "reset deletes every product; repeat with confirm=true")
		return
	}
	if s.seedFile == "" {
		s.fail(w, r, apperrors.New(apperrors.CodeNotFound, "no demo data configured"))
		return
	}

	result, err := s.svc.ResetFromFile(r.Context(), s.seedFile)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, toImportResult(result))
}

// ExportProductsHandler godoc
// @Summary Export all products
// @Tags import
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /products/export [get]
func (s *Server) ExportProductsHandler(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("format")
	if source == "" {
		source = string(tabular.FormatCSV)
	}
	format, err := tabular.ParseFormat(source)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data, err := s.svc.ExportTo(r.Context(), format)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.Error(r.Context(), "writing export", err)
	}
}
