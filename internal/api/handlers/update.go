package handlers

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sergeysynergy/omegabot/internal/bot"
)

// chatUpdate is the inbound webhook payload, a minimal cut of the Telegram
// Bot API update object: either a typed message or an inline-keyboard
// callback.
type chatUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message,omitempty"`
	CallbackQuery *struct {
		From struct {
			ID int64 `json:"id"`
		} `json:"from"`
		Data string `json:"data"`
	} `json:"callback_query,omitempty"`
}

// replyJSON is the webhook answer: the render instruction for the chat
// transport, choices included so it can build an inline keyboard.
type replyJSON struct {
	Text    string       `json:"text"`
	Choices []choiceJSON `json:"choices,omitempty"`
}

type choiceJSON struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, ContentTypeApplicationJSON) {
		h.error(w, r, fmt.Errorf("wrong content type, JSON needed"), http.StatusBadRequest)
		return
	}

	reqBody, err := ioutil.ReadAll(r.Body)
	if err != nil {
		h.error(w, r, fmt.Errorf("failed to read request body - %w", err), http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	var upd chatUpdate
	if err = json.Unmarshal(reqBody, &upd); err != nil {
		h.error(w, r, fmt.Errorf("failed to unmarshal update - %w", err), http.StatusBadRequest)
		return
	}

	action, err := actionFromUpdate(&upd)
	if err != nil {
		h.error(w, r, err, http.StatusBadRequest)
		return
	}

	corrID := uuid.NewString()
	h.log.Debug().
		Str("corrID", corrID).
		Int64("updateID", upd.UpdateID).
		Int64("user", action.UserID).
		Msg("chat update received")

	reply := h.bot.HandleAction(r.Context(), action)

	if h.sender != nil {
		if err = h.sender.Send(r.Context(), action.UserID, reply); err != nil {
			h.log.Error().Err(err).Str("corrID", corrID).Int64("user", action.UserID).
				Msg("failed to deliver reply to chat")
		}
	}

	out := replyJSON{Text: reply.Text}
	for _, c := range reply.Choices {
		out.Choices = append(out.Choices, choiceJSON{Label: c.Label, Data: c.Data})
	}

	b, err := json.Marshal(out)
	if err != nil {
		h.error(w, r, fmt.Errorf("failed to marshal reply - %w", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ContentTypeApplicationJSON)
	w.Write(b)
	h.log.Debug().Str("corrID", corrID).Int64("user", action.UserID).Msg("reply sent")
}

// actionFromUpdate maps the wire update to the bot's discriminated action.
// "/start" and the "menu" callback open the main menu; "/cancel" and the
// "cancel" callback discard the pending session.
func actionFromUpdate(upd *chatUpdate) (bot.Action, error) {
	switch {
	case upd.Message != nil:
		a := bot.Action{UserID: upd.Message.Chat.ID}
		switch strings.TrimSpace(upd.Message.Text) {
		case "/start", "/menu":
			a.Kind = bot.ActionStart
		case "/cancel":
			a.Kind = bot.ActionCancel
		default:
			a.Kind = bot.ActionText
			a.Data = upd.Message.Text
		}
		return a, nil

	case upd.CallbackQuery != nil:
		a := bot.Action{UserID: upd.CallbackQuery.From.ID}
		switch upd.CallbackQuery.Data {
		case "menu":
			a.Kind = bot.ActionStart
		case "cancel":
			a.Kind = bot.ActionCancel
		default:
			a.Kind = bot.ActionMenu
			a.Data = upd.CallbackQuery.Data
		}
		return a, nil
	}

	return bot.Action{}, fmt.Errorf("update carries neither message nor callback")
}
