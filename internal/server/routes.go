package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/vigil/internal/api/v1"
	"github.com/gosuda/vigil/internal/api/ws"
)

func registerAPIRoutes(api huma.API, store v1.DataStore, reconciler v1.Reconciler, freshness v1.FreshnessReader) {
	v1.RegisterSessionRoutes(api, store)
	v1.RegisterReconcileRoutes(api, store, reconciler, freshness)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/reconcile", hub.ServeReconcile)
}
