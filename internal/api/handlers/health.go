package handlers

import (
	"fmt"
	"net/http"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(); err != nil {
			h.error(w, r, fmt.Errorf("storage unreachable - %w", err), http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", ContentTypeTextPlain)
	w.Write([]byte("OK"))
}
