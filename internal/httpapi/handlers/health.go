package handlers

import (
	"context"
	"net/http"
	"time"

	"reel/internal/httpkit"
)

const checkTimeout = 5 * time.Second

// Health reports liveness. With ?deep=true it also pings postgres, redis
// and the storage provider and reports "degraded" if any of them fails.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	health := map[string]any{
		"status":  "ok",
		"service": "reel-api",
		"version": h.version,
	}

	if r.URL.Query().Get("deep") == "true" {
		checks := map[string]any{
			"postgres": check(ctx, h.store.Ping),
			"redis":    check(ctx, h.queue.Ping),
			"storage":  h.checkStorage(ctx),
		}
		health["checks"] = checks

		for _, c := range checks {
			if c.(map[string]any)["status"] != "ok" {
				health["status"] = "degraded"
				h.log.FromContext(ctx).Warn("health check degraded", "checks", checks)
				break
			}
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, health)
}

func check(ctx context.Context, ping func(context.Context) error) map[string]any {
	start := time.Now()
	result := map[string]any{"status": "ok"}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := ping(checkCtx); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}
	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}

func (h *Handler) checkStorage(ctx context.Context) map[string]any {
	result := check(ctx, h.sp.Ping)
	result["provider"] = h.sp.Provider()
	return result
}
