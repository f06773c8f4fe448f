package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

func (h *handler) error(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	type errorJSON struct {
		Error      string
		StatusCode int
	}
	e := errorJSON{
		Error:      err.Error(),
		StatusCode: statusCode,
	}

	log := h.log.With().Str("reqID", middleware.GetReqID(r.Context())).Logger()

	b, errMarshal := json.Marshal(e)
	if errMarshal != nil {
		log.Error().Err(errMarshal).Msg("failed to marshal error response")
		http.Error(w, err.Error(), statusCode)
		return
	}

	w.Header().Set("Content-Type", ContentTypeApplicationJSON)
	w.WriteHeader(statusCode)
	w.Write(b)
	log.Error().Err(err).Int("status", statusCode).Str("url", r.URL.Path).Msg("request failed")
}
