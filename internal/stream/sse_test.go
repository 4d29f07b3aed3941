package stream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/cache"
	"github.com/vsafedot/Earth-Sat/internal/engine"
	"github.com/vsafedot/Earth-Sat/internal/tle"
	"github.com/vsafedot/Earth-Sat/internal/transform"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHandler(t *testing.T, config Config) *Handler {
	t.Helper()
	store := tle.NewStore(0)
	eng := engine.New(store, engine.Config{}, testLogger())
	fleet := cache.NewFleetCache(cache.Config{}, eng, testLogger())
	return NewHandler(fleet, store, config, testLogger())
}

func TestLimiterPerIP(t *testing.T) {
	l := newStreamLimiter(2)

	if !l.acquire("10.0.0.1") || !l.acquire("10.0.0.1") {
		t.Fatal("first two connections rejected")
	}
	if l.acquire("10.0.0.1") {
		t.Error("third connection for the same IP allowed past limit 2")
	}
	// Another IP is unaffected.
	if !l.acquire("10.0.0.2") {
		t.Error("different IP rejected")
	}

	l.release("10.0.0.1")
	if !l.acquire("10.0.0.1") {
		t.Error("connection rejected after release freed a slot")
	}
	if got := l.count("10.0.0.1"); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
}

func TestLimiterGlobalCap(t *testing.T) {
	l := newStreamLimiter(5)
	l.maxTotal = 3

	for i := 0; i < 3; i++ {
		ip := string(rune('a' + i))
		if !l.acquire(ip) {
			t.Fatalf("connection %d rejected below global cap", i)
		}
	}
	if l.acquire("z") {
		t.Error("connection allowed past global cap")
	}
}

func TestLimiterReleaseCleansUp(t *testing.T) {
	l := newStreamLimiter(5)
	l.acquire("10.0.0.1")
	l.release("10.0.0.1")

	if got := l.count("10.0.0.1"); got != 0 {
		t.Errorf("count = %d after release, want 0", got)
	}
	if len(l.perIP) != 0 {
		t.Errorf("per-IP map not cleaned up: %v", l.perIP)
	}
}

func TestBuildFleetMessage(t *testing.T) {
	snap := &engine.FleetSnapshot{
		Time: time.Date(2023, 2, 9, 12, 0, 0, 0, time.UTC),
		Satellites: []engine.Position{
			{
				Name:     "ISS (ZARYA)",
				Geodetic: transform.Geodetic{LatDeg: 51.5, LonDeg: -0.1, AltKm: 420.3},
			},
		},
	}

	data, err := json.Marshal(buildFleetMessage(snap))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got struct {
		Type string `json:"type"`
		T    string `json:"t"`
		Sat  []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Altitude  float64 `json:"altitude"`
		} `json:"sat"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "fleet" || got.T != "2023-02-09T12:00:00Z" {
		t.Errorf("header = %q %q", got.Type, got.T)
	}
	if len(got.Sat) != 1 || got.Sat[0].Name != "ISS (ZARYA)" || got.Sat[0].Altitude != 420.3 {
		t.Errorf("sat payload = %+v", got.Sat)
	}
}

func TestHandlePositionsInvalidInterval(t *testing.T) {
	h := testHandler(t, Config{})

	for _, v := range []string{"0", "61", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stream/positions?interval="+v, nil)
		rec := httptest.NewRecorder()
		h.HandlePositions(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("interval=%s: status = %d, want 400", v, rec.Code)
		}
	}
}

func TestHandlePositionsRateLimited(t *testing.T) {
	h := testHandler(t, Config{MaxConcurrentPerIP: 1})

	// Occupy the single slot for this IP out-of-band.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stream/positions", nil)
	req.RemoteAddr = "192.0.2.1:55000"
	if !h.limiter.acquire("192.0.2.1") {
		t.Fatal("setup acquire failed")
	}

	rec := httptest.NewRecorder()
	h.HandlePositions(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestHandlePositionsStreamsMetadata(t *testing.T) {
	store := tle.NewStore(0)
	eng := engine.New(store, engine.Config{}, testLogger())
	if _, err := eng.LoadCatalog(newCatalogReader()); err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	fleet := cache.NewFleetCache(cache.Config{}, eng, testLogger())
	h := NewHandler(fleet, store, Config{}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stream/positions?interval=60", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	h.HandlePositions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "retry: ") {
		t.Error("missing retry directive")
	}
	if !strings.Contains(body, `"type":"metadata"`) {
		t.Errorf("missing metadata message in body:\n%s", body)
	}
}

func newCatalogReader() *strings.Reader {
	return strings.NewReader(`ISS (ZARYA)
1 25544U 98067A   23040.53492407  .00000602  00000-0  21163-4 0  9998
2 25544  51.6375  24.9244 0005533 115.3655 243.0075 15.16785044513894
`)
}
