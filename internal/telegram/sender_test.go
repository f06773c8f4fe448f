package telegram

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeysynergy/omegabot/internal/bot"
)

func TestSend(t *testing.T) {
	var got sendMessage
	var path string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, err := ioutil.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	s := NewSender("TOKEN", WithBaseURL(ts.URL), WithLogger(zerolog.Nop()))

	err := s.Send(context.Background(), 7, &bot.Reply{
		Text: "Pick an option:",
		Choices: []bot.Choice{
			{Label: "Check Balance", Data: "balance"},
			{Label: "Order Product", Data: "order"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, int64(7), got.ChatID)
	assert.Equal(t, "Pick an option:", got.Text)
	require.NotNil(t, got.ReplyMarkup)
	require.Len(t, got.ReplyMarkup.InlineKeyboard, 2)
	assert.Equal(t, "balance", got.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
}

func TestSendPlainText(t *testing.T) {
	var got sendMessage

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := ioutil.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	s := NewSender("TOKEN", WithBaseURL(ts.URL), WithLogger(zerolog.Nop()))

	require.NoError(t, s.Send(context.Background(), 7, &bot.Reply{Text: "Done."}))
	assert.Nil(t, got.ReplyMarkup)
}

func TestSendAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer ts.Close()

	s := NewSender("BAD", WithBaseURL(ts.URL), WithLogger(zerolog.Nop()))

	err := s.Send(context.Background(), 7, &bot.Reply{Text: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSendWithoutToken(t *testing.T) {
	s := NewSender("", WithLogger(zerolog.Nop()))
	assert.NoError(t, s.Send(context.Background(), 7, &bot.Reply{Text: "hi"}))
}
