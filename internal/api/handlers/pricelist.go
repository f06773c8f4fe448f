package handlers

import (
	"fmt"
	"net/http"
)

// priceList relays the provider's published price list as-is. The document
// is provider-hosted JSON; nothing in it is interpreted here.
func (h *handler) priceList(w http.ResponseWriter, r *http.Request) {
	if h.prices == nil {
		h.error(w, r, fmt.Errorf("price list not configured"), http.StatusNotFound)
		return
	}

	raw, err := h.prices.FetchPriceList(r.Context())
	if err != nil {
		h.error(w, r, fmt.Errorf("failed to fetch price list - %w", err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", ContentTypeApplicationJSON)
	w.Write(raw)
}
