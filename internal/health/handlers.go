package health

import (
	"context"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/noah-isme/backend-lab/internal/common"
)

// Probe checks one dependency. A nil error means the dependency is usable.
type Probe func(ctx context.Context) error

var notReady atomic.Bool

// SetReady toggles readiness; the API server flips it off while draining.
func SetReady(ready bool) {
	notReady.Store(!ready)
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Probes  map[string]Probe
	Timeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe with its own timeout and reports each result by name.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if notReady.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"server": "shutting down"})
		return
	}
	if len(h.Probes) == 0 {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"server": "dependencies unavailable"})
		return
	}
	names := make([]string, 0, len(h.Probes))
	for name := range h.Probes {
		names = append(names, name)
	}
	sort.Strings(names)

	status := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		status[name] = "ok"
		if err := h.run(r.Context(), h.Probes[name]); err != nil {
			status[name] = err.Error()
			healthy = false
		}
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}

func (h Handler) run(ctx context.Context, probe Probe) error {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return probe(ctx)
}
