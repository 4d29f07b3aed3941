// Package stream implements Server-Sent Events (SSE) streaming of fleet
// position snapshots. Clients connect via GET /api/v1/stream/positions and
// receive the latest sub-satellite points at a fixed interval.
//
// SSE message format:
//
//	data: {"type":"fleet","t":"2026-08-31T04:00:00Z","sat":[...]}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","catalog_loaded_at":"...","catalog_age_seconds":120}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to prevent
// timeout. Reconnecting clients receive a fresh metadata message on each
// connection.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/cache"
	"github.com/vsafedot/Earth-Sat/internal/engine"
	"github.com/vsafedot/Earth-Sat/internal/httputil"
	"github.com/vsafedot/Earth-Sat/internal/metrics"
	"github.com/vsafedot/Earth-Sat/internal/tle"
)

// Config holds streaming configuration loaded from environment variables.
type Config struct {
	MaxConcurrentPerIP int           // max concurrent streams per IP (default: 10)
	KeepaliveInterval  time.Duration // keep-alive ping interval (default: 30s)
	TrustProxy         bool          // trust X-Forwarded-For for client IPs
}

// Handler manages SSE streaming connections.
type Handler struct {
	cache   *cache.FleetCache
	store   *tle.Store
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(fleet *cache.FleetCache, store *tle.Store, config Config, logger *slog.Logger) *Handler {
	if config.MaxConcurrentPerIP <= 0 {
		config.MaxConcurrentPerIP = 10
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	return &Handler{
		cache:   fleet,
		store:   store,
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP),
		logger:  logger,
	}
}

// HandlePositions serves the SSE fleet position stream.
// GET /api/v1/stream/positions?interval=5
func (h *Handler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	interval := 5
	if v := r.URL.Query().Get("interval"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 60 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid interval parameter, must be 1-60"})
			return
		}
		interval = n
	}

	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"interval", interval,
	)

	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Clear the server's default WriteTimeout for this long-lived connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	c := &client{
		w:       w,
		flusher: flusher,
		rc:      rc,
		ip:      ip,
		logger:  h.logger,
	}

	// Jittered retry interval (3-7s) to prevent thundering-herd reconnection
	// storms when the server restarts.
	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(w, "retry: %d\n\n", retryMs)
	flusher.Flush()

	if cat := h.store.Get(); cat != nil {
		meta := metadataMessage{
			Type:            "metadata",
			CatalogLoadedAt: cat.LoadedAt.UTC().Format(time.RFC3339),
			CatalogAge:      int(time.Since(cat.LoadedAt).Seconds()),
			Satellites:      len(cat.Sets),
		}
		if err := c.sendJSON(meta); err != nil {
			metrics.IncStreamErrors("send_error")
			h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
			return
		}
	}

	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			snap := h.cache.Latest()
			if snap == nil {
				metrics.IncStreamErrors("cache_miss")
				h.logger.Debug("stream cache miss", "remote_ip", ip)
				continue
			}

			data, err := json.Marshal(buildFleetMessage(snap))
			if err != nil {
				metrics.IncStreamErrors("marshal_error")
				h.logger.Warn("stream marshal error", "remote_ip", ip, "error", err)
				continue
			}
			if err := c.sendRaw(data); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}

			// Reset keepalive since we just sent data.
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// buildFleetMessage formats a fleet snapshot into the SSE payload.
func buildFleetMessage(snap *engine.FleetSnapshot) fleetMessage {
	sats := make([]satPayload, len(snap.Satellites))
	for i, s := range snap.Satellites {
		sats[i] = satPayload{
			Name: s.Name,
			Lat:  s.LatDeg,
			Lon:  s.LonDeg,
			Alt:  s.AltKm,
		}
	}
	return fleetMessage{
		Type: "fleet",
		T:    snap.Time.UTC().Format(time.RFC3339),
		Sat:  sats,
	}
}

// SSE message payload types.

type metadataMessage struct {
	Type            string `json:"type"`
	CatalogLoadedAt string `json:"catalog_loaded_at"`
	CatalogAge      int    `json:"catalog_age_seconds"`
	Satellites      int    `json:"satellites"`
}

type fleetMessage struct {
	Type string       `json:"type"`
	T    string       `json:"t"`
	Sat  []satPayload `json:"sat"`
}

type satPayload struct {
	Name string  `json:"name"`
	Lat  float64 `json:"latitude"`
	Lon  float64 `json:"longitude"`
	Alt  float64 `json:"altitude"`
}
