/*
main.go - Compute service entry point

PURPOSE:
  Starts the productivity KPI engine as an HTTP service. The service is
  stateless: configuration files are read at startup, every compute request
  carries its own tables, and nothing persists between runs.

STARTUP SEQUENCE:
  1. Configure zerolog console output
  2. Load server environment (PORT, LOG_LEVEL, config paths)
  3. Load app config YAML and category mapping JSON (degraded on failure)
  4. Build handler and router
  5. Serve with graceful shutdown on SIGINT/SIGTERM

ENVIRONMENT:
  PORT              HTTP port (default 8080)
  ALLOWED_ORIGINS   comma-separated CORS origins
  LOG_LEVEL         zerolog level (default info)
  APP_CONFIG        path to app_config.yaml
  CATEGORY_MAPPING  path to category_mapping.json

SEE ALSO:
  - api/server.go: router configuration
  - cmd/kpirun: one-shot batch variant of the same pipeline
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warp/productivity-engine/api"
	"github.com/warp/productivity-engine/config"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	srv := config.LoadServer()

	level, err := zerolog.ParseLevel(srv.LogLevel)
	if err != nil {
		log.Warn().Str("level", srv.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	app := config.LoadApp(srv.AppConfigPath, log.Logger)
	baseCfg, err := app.EngineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid app config")
	}
	mapping := config.LoadCategoryMapping(srv.CategoryMapPath, log.Logger)

	handler := api.NewHandler(baseCfg, mapping, log.Logger)
	router := api.NewRouter(handler, srv.AllowedOrigins)

	server := &http.Server{
		Addr:         ":" + srv.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", srv.Port).
			Str("timezone", baseCfg.Timezone).
			Str("policy", string(baseCfg.OverlapPolicy)).
			Int("categories", len(mapping)).
			Msg("starting productivity engine")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
