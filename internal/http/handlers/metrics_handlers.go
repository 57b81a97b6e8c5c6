package handlers

import (
	"net/http"
)

// GetDashboardMetricsHandler godoc
// @Summary Dashboard metrics
// @Tags metrics
// @Produce json
// @Success 200 {object} DashboardResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /metrics/dashboard [get]
func (s *Server) GetDashboardMetricsHandler(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, DashboardResponse{
		TotalProducts:  d.TotalProducts,
		TotalQuantity:  d.TotalQuantity,
		LowStockCount:  d.LowStock,
		InventoryValue: d.InventoryValue.StringFixed(2),
	})
}

// HealthHandler godoc
// @Summary Liveness and store reachability
// @Tags metrics
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Store: "ok"}
	status := http.StatusOK
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.log.Error(r.Context(), "store ping failed", err)
			resp = HealthResponse{Status: "degraded", Store: "unreachable"}
			status = http.StatusServiceUnavailable
		}
	}
	_ = writeJSON(w, status, resp)
}
