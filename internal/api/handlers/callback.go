package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sergeysynergy/omegabot/internal/bot"
	"github.com/sergeysynergy/omegabot/internal/otomax"
)

// statusCallback settles a recorded transaction from the provider's report:
// `refid` plus the provider's status code, with optional `sn`, `ket` and
// `harga` fields. Pending orders are resolved this way once the remote
// answers. The provider expects a literal "OK" body on success.
func (h *handler) statusCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.error(w, r, fmt.Errorf("failed to parse callback parameters - %w", err), http.StatusBadRequest)
		return
	}

	refID := r.Form.Get("refid")
	code := r.Form.Get("status")
	if refID == "" || code == "" {
		h.error(w, r, fmt.Errorf("refid and status parameters needed"), http.StatusBadRequest)
		return
	}

	upd := bot.TransactionUpdate{
		Status:  otomax.StatusFromCode(code).String(),
		SN:      r.Form.Get("sn"),
		Message: r.Form.Get("ket"),
	}
	if upd.Message == "" {
		upd.Message = otomax.StatusDescription(code)
	}
	if price, err := strconv.ParseUint(r.Form.Get("harga"), 10, 64); err == nil {
		upd.Price = price
	}

	if err := h.bot.ResolveTransaction(refID, upd); err != nil {
		if errors.Is(err, bot.ErrTransactionNotFound) {
			h.error(w, r, err, http.StatusNotFound)
			return
		}
		h.error(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ContentTypeTextPlain)
	w.Write([]byte("OK"))
}
