package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fxresolver/internal/api"
	"fxresolver/internal/api/middleware"
	"fxresolver/internal/resolver"
	"fxresolver/internal/service"
)

const monitoringPath = "/monitoring"

func (app *App) initHTTP(rates *resolver.Service, adv api.Advisor, refreshes service.RefreshServiceInterface) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(app.logger))
	r.Use(chimiddleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/rates", api.HandleGetRate(rates))
		r.Get("/rates/history", api.HandleGetHistory(adv))
		r.Post("/rates/refresh", api.HandleRequestRefresh(refreshes, validate))
		r.Get("/rates/refresh/{refresh_id}", api.HandleGetRefresh(refreshes))
		r.Get("/convert", api.HandleConvert(adv))
		r.Post("/convert/batch", api.HandleConvertBatch(adv, validate))
		r.Get("/currencies", api.HandleListCurrencies(adv))
	})

	r.Get("/healthz", api.HandleHealthz())
	r.Get("/readyz", api.HandleReadyz(rates, app.db, app.rdbCache, app.rdbAsynq))
	r.Handle("/metrics", promhttp.Handler())

	if app.cfg.Server.ServeSwagger {
		r.Get("/swagger/*", api.SwaggerUIHandler())
		r.Get("/openapi.json", api.OpenAPISpecHandler())
	}

	if app.cfg.Server.ServeAsynqmon && app.cfg.Redis.AsynqAddr != "" {
		app.monitor = asynqmon.New(asynqmon.Options{
			RootPath:     monitoringPath,
			RedisConnOpt: asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr},
		})
		r.Handle(app.monitor.RootPath()+"/*", app.monitor)
	}

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
