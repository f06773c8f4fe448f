package handlers

import "github.com/go-chi/chi/v5"

func (h *handler) setRoutes() {
	h.r.Route("/api/bot", func(r chi.Router) {
		r.Post("/update", h.update)
	})

	// The provider reports delayed transaction outcomes here; some
	// deployments use GET, so both methods are accepted.
	h.r.Post("/api/callback/status", h.statusCallback)
	h.r.Get("/api/callback/status", h.statusCallback)

	h.r.Get("/api/pricelist", h.priceList)

	h.r.Get("/api/health", h.health)
}
