package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/loomworks-backend/api/responses"
	"github.com/angelmondragon/loomworks-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is any dependency with a health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Loomworks-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and redis. A nil pinger is reported as skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger, redisPinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Loomworks-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		for name, p := range map[string]Pinger{"database": dbPinger, "redis": redisPinger} {
			if p == nil {
				checks[name] = "skipped"
				continue
			}
			if err := p.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
					WithDetails(map[string]any{"dependency": name}))
				return
			}
			checks[name] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
