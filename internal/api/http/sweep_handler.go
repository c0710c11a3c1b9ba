package apihttp

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// SweepRunner runs one offline sweep pass.
type SweepRunner interface {
	Run(ctx context.Context) (int, error)
}

// AlertSenderHandler triggers an offline sweep on demand. The cron
// scheduler covers routine operation; this route exists for external
// schedulers and manual runs.
type AlertSenderHandler struct {
	sweeper SweepRunner
	logger  *zap.Logger
}

// NewAlertSenderHandler constructs an AlertSenderHandler.
func NewAlertSenderHandler(sweeper SweepRunner, logger *zap.Logger) *AlertSenderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertSenderHandler{sweeper: sweeper, logger: logger}
}

// ServeHTTP handles GET /alert-sender.
func (h *AlertSenderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.sweeper == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	notified, err := h.sweeper.Run(r.Context())
	if err != nil {
		h.logger.Error("offline sweep failed", zap.Error(err))
		http.Error(w, "alert sweep error", http.StatusInternalServerError)
		return
	}
	h.logger.Info("offline sweep completed", zap.Int("notified", notified))
	_, _ = w.Write([]byte("OK"))
}
