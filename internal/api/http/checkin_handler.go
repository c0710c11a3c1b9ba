package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	nodes "nodewatch/internal/nodes/domain"
	"nodewatch/internal/observability/metrics"
)

// CheckinService handles one device check-in.
type CheckinService interface {
	Process(ctx context.Context, req nodes.CheckinRequest) error
}

// CheckinHandler serves device check-ins.
type CheckinHandler struct {
	svc    CheckinService
	logger *zap.Logger
}

// NewCheckinHandler constructs a CheckinHandler.
func NewCheckinHandler(svc CheckinService, logger *zap.Logger) *CheckinHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckinHandler{svc: svc, logger: logger}
}

// ServeHTTP handles POST /checkin.
func (h *CheckinHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.svc == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	var req nodes.CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.APIKey == "" || req.NodeID == "" {
		http.Error(w, "api_key and node_id are required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	if err := h.svc.Process(r.Context(), req); err != nil {
		metrics.ObserveCheckin(metrics.ResultError, time.Since(start))
		h.logger.Error("check-in failed",
			zap.String("node_id", req.NodeID),
			zap.Error(err))
		http.Error(w, "check-in processing error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveCheckin(metrics.ResultSuccess, time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(req)
}
