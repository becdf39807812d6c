package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/itchan-dev/msgboard/shared/api"
	"github.com/itchan-dev/msgboard/shared/logger"
)

const readyTimeout = 2 * time.Second

const (
	depOK   = "ok"
	depDown = "down"
	depOff  = "off"
)

// Health is the liveness check. It never touches storage.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeText(w, "ok")
}

// Ready pings storage and, when configured, the board cache in parallel.
// Only a storage failure makes the instance unready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	var (
		wg       sync.WaitGroup
		cacheErr error
	)
	if h.cache != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cacheErr = h.cache.Ping(ctx)
		}()
	}
	storageErr := h.storage.Ping(ctx)
	wg.Wait()

	resp := api.ReadinessResponse{Status: "ready", Storage: depOK, Cache: depOff}
	status := http.StatusOK
	if h.cache != nil {
		resp.Cache = depOK
		if cacheErr != nil {
			logger.Log.Warn("board cache unreachable", "error", cacheErr)
			resp.Cache = depDown
			resp.Status = "degraded"
		}
	}
	if storageErr != nil {
		logger.Log.Warn("readiness check failed", "error", storageErr)
		resp.Storage = depDown
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
