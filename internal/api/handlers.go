package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/engine"
	"github.com/vsafedot/Earth-Sat/internal/sgp4"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine and propagation failures to HTTP statuses:
// unknown satellite name is 404, other bad input is 400, a propagation
// failure (decayed or numerically unstable set) is 422, anything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *engine.InputError
	if errors.As(err, &inputErr) {
		status := http.StatusBadRequest
		if inputErr.Field == "name" {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": inputErr.Error()})
		return
	}

	var propErr *sgp4.PropagationError
	if errors.As(err, &propErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":  propErr.Error(),
			"reason": propErr.Kind.String(),
		})
		return
	}

	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// queryTime parses an optional RFC 3339 "time" parameter, defaulting to now.
func queryTime(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("time")
	if v == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errors.New("time must be RFC 3339")
	}
	return t.UTC(), nil
}

// queryFloat parses a required float parameter.
func queryFloat(r *http.Request, key string) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, errors.New(key + " parameter is required")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(key + " must be a number")
	}
	return f, nil
}

// queryFloatDefault parses an optional float parameter.
func queryFloatDefault(r *http.Request, key string, def float64) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(key + " must be a number")
	}
	return f, nil
}

// handleSatellites lists the loaded satellite names.
// GET /api/v1/satellites
func (s *Server) handleSatellites(w http.ResponseWriter, r *http.Request) {
	names, err := s.eng.Names()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"satellites": names,
		"count":      len(names),
	})
}

// handlePosition returns the sub-satellite point of one satellite.
// GET /api/v1/position?name=ISS%20(ZARYA)&time=2026-08-31T00:00:00Z
func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name parameter is required"})
		return
	}
	t, err := queryTime(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	pos, err := s.eng.PositionAt(name, t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// handleVisibility returns look angles and the visibility verdict for an
// observer.
// GET /api/v1/visibility?name=...&lat=48.85&lon=2.35&alt=0.1&min_elevation=10
func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name parameter is required"})
		return
	}

	lat, err := queryFloat(r, "lat")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	alt, err := queryFloatDefault(r, "alt", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	minElev, err := queryFloatDefault(r, "min_elevation", math.NaN())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	t, err := queryTime(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	topo, err := s.eng.Visibility(name, lat, lon, alt, t, minElev)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topo)
}

// handlePasses predicts passes over an observer.
// GET /api/v1/passes?name=...&lat=48.85&lon=2.35&hours=24&min_elevation=10
func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name parameter is required"})
		return
	}

	lat, err := queryFloat(r, "lat")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	alt, err := queryFloatDefault(r, "alt", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	minElev, err := queryFloatDefault(r, "min_elevation", math.NaN())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	hours := 24.0
	if v := r.URL.Query().Get("hours"); v != "" {
		h, err := strconv.ParseFloat(v, 64)
		if err != nil || h <= 0 || h > 72 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "hours must be in (0, 72]"})
			return
		}
		hours = h
	}

	start, err := queryTime(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	window := time.Duration(hours * float64(time.Hour))
	result, err := s.eng.PredictPasses(r.Context(), name, lat, lon, alt, start, window, minElev)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   name,
		"start":  start,
		"hours":  hours,
		"passes": result,
		"count":  len(result),
	})
}

// handleTrack samples the ground track.
// GET /api/v1/track?name=...&minutes=90&step=30
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name parameter is required"})
		return
	}

	minutes := 90.0
	if v := r.URL.Query().Get("minutes"); v != "" {
		m, err := strconv.ParseFloat(v, 64)
		if err != nil || m <= 0 || m > 1440 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "minutes must be in (0, 1440]"})
			return
		}
		minutes = m
	}

	stepSec := 30
	if v := r.URL.Query().Get("step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 600 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "step must be in [1, 600] seconds"})
			return
		}
		stepSec = n
	}

	start, err := queryTime(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	span := time.Duration(minutes * float64(time.Minute))
	points, err := s.eng.GroundTrack(name, start, span, time.Duration(stepSec)*time.Second)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   name,
		"points": points,
		"count":  len(points),
	})
}

// handleFleet returns the latest cached fleet snapshot.
// GET /api/v1/fleet
func (s *Server) handleFleet(w http.ResponseWriter, r *http.Request) {
	snap := s.fleet.Latest()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no fleet snapshot available"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleCatalog reports catalog metadata and cache statistics.
// GET /api/v1/catalog
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.store.Get()
	if cat == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no element catalog loaded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"loaded_at":   cat.LoadedAt.UTC().Format(time.RFC3339),
		"age_seconds": int(time.Since(cat.LoadedAt).Seconds()),
		"satellites":  len(cat.Sets),
		"skipped":     len(cat.Skipped),
		"fresh":       s.store.Fresh(),
		"cache":       s.fleet.Stats(),
	})
}
