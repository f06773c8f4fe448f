package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeysynergy/omegabot/internal/basicstorage"
	"github.com/sergeysynergy/omegabot/internal/bot"
	"github.com/sergeysynergy/omegabot/internal/otomax"
)

// stubGateway answers every operation with the scripted result.
type stubGateway struct {
	result *otomax.Result
}

func (g *stubGateway) CheckBalance(context.Context) *otomax.Result { return g.result }
func (g *stubGateway) ListProducts(context.Context, string, string) *otomax.Result {
	return g.result
}
func (g *stubGateway) CheckPrice(context.Context, string, string, string) *otomax.Result {
	return g.result
}
func (g *stubGateway) SubmitOrder(context.Context, string, string, string) *otomax.Result {
	return g.result
}
func (g *stubGateway) RequestDeposit(context.Context, uint64) *otomax.Result { return g.result }

func newTestServer(t *testing.T, gw bot.Gateway, opts ...Option) (*httptest.Server, bot.Storer) {
	t.Helper()

	st := basicstorage.New()
	b := bot.New(st, gw, bot.WithLogger(zerolog.Nop()))
	opts = append(opts, WithLogger(zerolog.Nop()))
	h := New(b, opts...)

	ts := httptest.NewServer(h.GetRouter())
	t.Cleanup(ts.Close)

	return ts, st
}

func TestUpdate(t *testing.T) {
	type want struct {
		statusCode int
		text       string
		hasChoices bool
	}
	tests := []struct {
		name        string
		contentType string
		body        string
		want        want
	}{
		{
			name:        "start command opens main menu",
			contentType: ContentTypeApplicationJSON,
			body:        `{"update_id":1,"message":{"chat":{"id":7},"text":"/start"}}`,
			want: want{
				statusCode: http.StatusOK,
				text:       "Welcome! Pick an option:",
				hasChoices: true,
			},
		},
		{
			name:        "menu callback opens main menu",
			contentType: ContentTypeApplicationJSON,
			body:        `{"update_id":2,"callback_query":{"from":{"id":7},"data":"menu"}}`,
			want: want{
				statusCode: http.StatusOK,
				text:       "Welcome! Pick an option:",
				hasChoices: true,
			},
		},
		{
			name:        "balance callback relays the gateway answer",
			contentType: ContentTypeApplicationJSON,
			body:        `{"update_id":3,"callback_query":{"from":{"id":7},"data":"balance"}}`,
			want: want{
				statusCode: http.StatusOK,
				text:       "Your balance: Rp 50.000",
			},
		},
		{
			name:        "free text without session",
			contentType: ContentTypeApplicationJSON,
			body:        `{"update_id":4,"message":{"chat":{"id":7},"text":"08123456789"}}`,
			want: want{
				statusCode: http.StatusOK,
				text:       "No order in progress. Start one from the menu:",
				hasChoices: true,
			},
		},
		{
			name:        "wrong content type",
			contentType: ContentTypeTextPlain,
			body:        `{"update_id":5}`,
			want:        want{statusCode: http.StatusBadRequest},
		},
		{
			name:        "neither message nor callback",
			contentType: ContentTypeApplicationJSON,
			body:        `{"update_id":6}`,
			want:        want{statusCode: http.StatusBadRequest},
		},
		{
			name:        "malformed JSON",
			contentType: ContentTypeApplicationJSON,
			body:        `{"update_id":`,
			want:        want{statusCode: http.StatusBadRequest},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &stubGateway{result: &otomax.Result{
				Status: otomax.StatusSuccess,
				Fields: map[string]string{otomax.FieldSaldo: "50000"},
			}}
			ts, _ := newTestServer(t, gw)

			client := resty.New()
			resp, err := client.R().
				SetHeader("Content-Type", tt.contentType).
				SetBody(tt.body).
				Post(ts.URL + "/api/bot/update")

			require.NoError(t, err)
			require.Equal(t, tt.want.statusCode, resp.StatusCode())
			if tt.want.statusCode != http.StatusOK {
				return
			}

			var reply replyJSON
			require.NoError(t, json.Unmarshal(resp.Body(), &reply))
			assert.Equal(t, tt.want.text, reply.Text)
			if tt.want.hasChoices {
				assert.NotEmpty(t, reply.Choices)
			} else {
				assert.Empty(t, reply.Choices)
			}
		})
	}
}

func TestStatusCallback(t *testing.T) {
	gw := &stubGateway{result: &otomax.Result{Status: otomax.StatusSuccess}}
	ts, st := newTestServer(t, gw)

	require.NoError(t, st.AddTransaction(&bot.Transaction{
		UserID:      7,
		RefID:       "TRX1700000000000",
		ProductCode: "PLN10",
		Destination: "123456",
		Status:      "PENDING",
	}))

	client := resty.New()

	resp, err := client.R().
		Get(ts.URL + "/api/callback/status?refid=TRX1700000000000&status=20&sn=1234-5678&harga=10500")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "OK", string(resp.Body()))

	trs, err := st.UserTransactions(7, 1)
	require.NoError(t, err)
	require.Len(t, trs, 1)
	assert.Equal(t, "SUKSES", trs[0].Status)
	assert.Equal(t, "1234-5678", trs[0].SN)
	assert.Equal(t, uint64(10500), trs[0].Price)

	// Unknown reference IDs are reported, so the provider keeps retrying.
	resp, err = client.R().Get(ts.URL + "/api/callback/status?refid=NOPE&status=40")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	// Missing parameters are a client error.
	resp, err = client.R().Get(ts.URL + "/api/callback/status?refid=TRX1700000000000")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
}

type stubPriceList struct {
	raw json.RawMessage
	err error
}

func (p *stubPriceList) FetchPriceList(context.Context) (json.RawMessage, error) {
	return p.raw, p.err
}

func TestPriceList(t *testing.T) {
	gw := &stubGateway{result: &otomax.Result{Status: otomax.StatusSuccess}}

	t.Run("relayed as-is", func(t *testing.T) {
		raw := json.RawMessage(`[{"code":"PLN10","price":10500}]`)
		ts, _ := newTestServer(t, gw, WithPriceLister(&stubPriceList{raw: raw}))

		resp, err := resty.New().R().Get(ts.URL + "/api/pricelist")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.JSONEq(t, string(raw), string(resp.Body()))
	})

	t.Run("upstream failure", func(t *testing.T) {
		ts, _ := newTestServer(t, gw, WithPriceLister(&stubPriceList{err: fmt.Errorf("connection refused")}))

		resp, err := resty.New().R().Get(ts.URL + "/api/pricelist")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode())
	})

	t.Run("not configured", func(t *testing.T) {
		ts, _ := newTestServer(t, gw)

		resp, err := resty.New().R().Get(ts.URL + "/api/pricelist")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	})
}

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping() error { return p.err }

func TestHealth(t *testing.T) {
	gw := &stubGateway{result: &otomax.Result{Status: otomax.StatusSuccess}}

	t.Run("healthy storage", func(t *testing.T) {
		ts, _ := newTestServer(t, gw, WithPinger(&stubPinger{}))

		resp, err := resty.New().R().Get(ts.URL + "/api/health")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, "OK", string(resp.Body()))
	})

	t.Run("unreachable storage", func(t *testing.T) {
		ts, _ := newTestServer(t, gw, WithPinger(&stubPinger{err: fmt.Errorf("connection refused")}))

		resp, err := resty.New().R().Get(ts.URL + "/api/health")
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode())
	})
}
