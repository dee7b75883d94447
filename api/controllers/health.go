package controllers

import (
	"net/http"

	"github.com/craftlane/storefront-backend/api/responses"
	"github.com/craftlane/storefront-backend/pkg/config"
	"github.com/craftlane/storefront-backend/pkg/db"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
	"github.com/craftlane/storefront-backend/pkg/logger"
	pkgredis "github.com/craftlane/storefront-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Craftlane-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when both backing stores answer a ping.
func HealthReady(cfg *config.Config, dbClient *db.Client, redisClient *pkgredis.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Craftlane-Env", cfg.App.Env)

		if dbClient != nil {
			if err := dbClient.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
