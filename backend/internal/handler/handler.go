package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/itchan-dev/msgboard/backend/internal/service"
	"github.com/itchan-dev/msgboard/shared/logger"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	thread  service.ThreadService
	storage HealthChecker
	cache   HealthChecker // nil when there is no board cache
}

func New(thread service.ThreadService, storage HealthChecker, cache HealthChecker) *Handler {
	return &Handler{thread: thread, storage: storage, cache: cache}
}

// writeJSON encodes into a buffer first so an encoding failure can still
// produce a clean 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}
