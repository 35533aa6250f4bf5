// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/sensorboard/internal/auth"
	"github.com/tomtom215/sensorboard/internal/authz"
	"github.com/tomtom215/sensorboard/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	authenticator *auth.Middleware
	authorizer    *authz.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router.
func NewRouter(handler *Handler, authn *auth.Middleware, authzMW *authz.Middleware, chiMW *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		authenticator: authn,
		authorizer:    authzMW,
		chiMiddleware: chiMW,
	}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)
	r.Use(h.perf.Middleware)
	r.Use(middleware.Compression)

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(SecurityHeaders)
		r.Use(router.chiMiddleware.RateLimit(limitDefault))
		r.Get("/api/v1/health", h.Health)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(SecurityHeaders)
		r.With(router.chiMiddleware.RateLimit(limitLogin)).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// The download key authorizes the request.
	r.With(SecurityHeaders, router.chiMiddleware.RateLimit(limitDownload)).
		Get("/download/{filename}/{downloadKey}/{disposition}", h.Download)

	r.Group(func(r chi.Router) {
		r.Use(SecurityHeaders)
		r.Use(router.authenticator.Authenticate)
		r.Use(router.authorizer.AuthorizeRequest)

		r.Get("/dashboard/sensors/{sensorID}", h.SensorDashboard)

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit(limitDefault))

			r.Get("/ws", h.WebSocket)
			r.Post("/ingest", h.Ingest)

			r.Route("/houses", func(r chi.Router) {
				r.Get("/", h.ListHouses)
				r.Post("/", h.CreateHouse)
				r.Get("/{houseID}", h.GetHouse)
				r.Put("/{houseID}", h.UpdateHouse)
				r.Delete("/{houseID}", h.DeleteHouse)
				r.Get("/{houseID}/devices", h.ListDevices)
				r.Post("/{houseID}/devices", h.CreateDevice)
			})
			r.Route("/devices/{deviceID}", func(r chi.Router) {
				r.Get("/", h.GetDevice)
				r.Put("/", h.UpdateDevice)
				r.Delete("/", h.DeleteDevice)
				r.Post("/token", h.DeviceToken)
				r.Get("/sensors", h.ListSensors)
				r.Post("/sensors", h.CreateSensor)
			})
			r.Route("/sensors/{sensorID}", func(r chi.Router) {
				r.Get("/", h.GetSensor)
				r.Put("/", h.UpdateSensor)
				r.Delete("/", h.DeleteSensor)
				r.Get("/samples", h.LatestSamples)
			})

			r.Group(func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimit(limitQuery))
				r.Post("/data/{kind}", h.Data)
				r.Post("/export/{kind}", h.Export)
			})

			r.Get("/powerprices/{date}", h.GetPowerPrices)
			r.Put("/powerprices/{date}", h.PutPowerPrices)

			r.Get("/admin/performance", h.Performance)
		})
	})

	return r
}
