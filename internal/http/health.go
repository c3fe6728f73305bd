package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger is satisfied by *sqlx.DB and store.KV.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a ping function (store.KV.Ping) to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthHandler GET /healthz pings the database and the KV store.
// A nil dependency (in-memory mode) is reported as "memory".
type HealthHandler struct {
	db     Pinger
	kv     Pinger
	logger *zap.Logger
}

func NewHealthHandler(db, kv Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, kv: kv, logger: logger}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, r, "GET, HEAD")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{
		"database": h.check(ctx, "database", h.db),
		"kv":       h.check(ctx, "kv", h.kv),
	}
	for _, v := range checks {
		if v == "down" {
			res := Fail("unhealthy")
			res.Result = checks
			writeJSON(w, http.StatusServiceUnavailable, res)
			return
		}
	}
	writeJSON(w, http.StatusOK, Ok(checks))
}

func (h *HealthHandler) check(ctx context.Context, name string, p Pinger) string {
	if p == nil {
		return "memory"
	}
	if err := p.PingContext(ctx); err != nil {
		h.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
		return "down"
	}
	return "up"
}
