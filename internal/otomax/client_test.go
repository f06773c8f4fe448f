package otomax

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(cfg Config) *Client {
	if cfg.Profile.Tag == "" {
		cfg.Profile = DefaultProfile()
	}
	cfg.Credentials = testCreds
	return New(cfg, WithLogger(zerolog.Nop()))
}

func TestFailover(t *testing.T) {
	var primaryHits, backupHits int64

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&primaryHits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	backup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&backupHits, 1)
		w.Write([]byte("20|50000|OK"))
	}))
	defer backup.Close()

	c := newTestClient(Config{
		Endpoint:       primary.URL,
		EndpointBackup: backup.URL,
		QueryTimeout:   2 * time.Second,
	})

	res := c.CheckBalance(context.Background())
	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "50000", res.Fields[FieldSaldo])

	// Exactly one request per endpoint: one failed attempt on the primary,
	// one successful retry on the backup.
	assert.Equal(t, int64(1), atomic.LoadInt64(&primaryHits))
	assert.Equal(t, int64(1), atomic.LoadInt64(&backupHits))
	assert.True(t, c.UsingBackup())

	// The flag is sticky: the next call goes straight to the backup.
	res = c.CheckBalance(context.Background())
	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, int64(1), atomic.LoadInt64(&primaryHits))
	assert.Equal(t, int64(2), atomic.LoadInt64(&backupHits))
}

func TestFailoverBackupFailureIsTerminal(t *testing.T) {
	var primaryHits, backupHits int64

	broken := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&primaryHits, 1)
		broken.ServeHTTP(w, r)
	}))
	defer primary.Close()
	backup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&backupHits, 1)
		broken.ServeHTTP(w, r)
	}))
	defer backup.Close()

	c := newTestClient(Config{
		Endpoint:       primary.URL,
		EndpointBackup: backup.URL,
		QueryTimeout:   2 * time.Second,
	})

	res := c.CheckBalance(context.Background())
	require.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, int64(1), atomic.LoadInt64(&primaryHits))
	assert.Equal(t, int64(1), atomic.LoadInt64(&backupHits))
}

func TestSubmitOrderSignedRequest(t *testing.T) {
	var gotQuery map[string]string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte("OK"))
	}))
	defer ts.Close()

	c := newTestClient(Config{Endpoint: ts.URL})

	res := c.SubmitOrder(context.Background(), "PLN10", "08123456789", "")
	require.Equal(t, StatusSuccess, res.Status)

	require.NotNil(t, gotQuery)
	assert.Equal(t, "TEST01", gotQuery["memberID"])
	assert.Equal(t, "PLN10", gotQuery["product"])
	assert.Equal(t, "08123456789", gotQuery["dest"])
	assert.Equal(t, "1", gotQuery["qty"])

	refID := gotQuery["refID"]
	require.NotEmpty(t, refID)
	assert.Equal(t, refID, res.Fields[FieldRefID])

	// The signature on the wire must match the documented derivation for the
	// reference ID actually sent.
	want := TransactionSignature("OtomaX", testCreds, "PLN10", "08123456789", refID)
	assert.Equal(t, want, gotQuery["sign"])
}

func TestSubmitOrderTimeoutIsAmbiguous(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte("OK"))
	}))
	defer ts.Close()

	// No backup endpoint: the timeout must surface as pending, never as a
	// silent retry with a fresh reference ID.
	c := newTestClient(Config{
		Endpoint:     ts.URL,
		OrderTimeout: 50 * time.Millisecond,
	})

	res := c.SubmitOrder(context.Background(), "PLN10", "08123456789", "")
	assert.Equal(t, StatusPending, res.Status)
	assert.NotEmpty(t, res.Fields[FieldRefID])
}

func TestBalanceTimeoutIsFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte("20|50000|OK"))
	}))
	defer ts.Close()

	c := newTestClient(Config{
		Endpoint:     ts.URL,
		QueryTimeout: 50 * time.Millisecond,
	})

	res := c.CheckBalance(context.Background())
	assert.Equal(t, StatusFailed, res.Status)
}

func TestBalanceSchemeFromProfile(t *testing.T) {
	var gotSign string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSign = r.URL.Query().Get("sign")
		w.Write([]byte("OK"))
	}))
	defer ts.Close()

	profile := DefaultProfile()
	profile.BalanceScheme = BalanceEmptySlots
	c := newTestClient(Config{Endpoint: ts.URL, Profile: profile})

	res := c.CheckBalance(context.Background())
	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, BalanceSignatureEmptySlots("OtomaX", testCreds), gotSign)
}

func TestListProducts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "LISTDX", r.URL.Query().Get("product"))
		w.Write([]byte("906752|AIGO 75GB|156275\n905897|AIGO Mini|3775"))
	}))
	defer ts.Close()

	c := newTestClient(Config{Endpoint: ts.URL})

	res := c.ListProducts(context.Background(), "LISTDX", "08123456789")
	require.Equal(t, StatusSuccess, res.Status)
	require.Len(t, res.Products, 2)
	assert.Equal(t, uint64(3775), res.Products[1].Price)
}

func TestRefIDMonotonic(t *testing.T) {
	c := newTestClient(Config{Endpoint: "http://localhost"})

	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 1000; i++ {
		ref := c.refID("TRX")
		assert.False(t, seen[ref], "reference ID repeated: %s", ref)
		seen[ref] = true
		assert.Greater(t, ref, prev)
		prev = ref
	}
}
