// Package otomax implements a signed-request client for the OtomaX-style
// Host-to-Host reseller protocol: balance checks, product listings, price
// checks and order submission against a primary endpoint with a sticky
// backup-endpoint failover.
package otomax

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/sergeysynergy/omegabot/pkg/logger"
)

const (
	queryTimeoutDefault = 10 * time.Second
	orderTimeoutDefault = 60 * time.Second
)

// Config carries everything a Client needs: account credentials, the
// primary/backup endpoint base URLs, per-call timeouts and the deployment
// profile. All of it is collaborator-supplied and immutable after New.
type Config struct {
	Endpoint       string
	EndpointBackup string
	PriceListURL   string
	Credentials    Credentials
	Profile        Profile
	// QueryTimeout bounds balance/list/price calls.
	QueryTimeout time.Duration
	// OrderTimeout bounds order submission; the remote may take tens of
	// seconds to confirm stock and delivery.
	OrderTimeout time.Duration
}

type Client struct {
	cfg  Config
	rest *resty.Client
	log  zerolog.Logger

	mu        sync.Mutex
	useBackup bool
	lastRef   int64
}

type Option func(*Client)

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = queryTimeoutDefault
	}
	if cfg.OrderTimeout == 0 {
		cfg.OrderTimeout = orderTimeoutDefault
	}

	c := &Client{
		cfg:  cfg,
		rest: resty.New(),
		log:  logger.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// UsingBackup reports whether the client has failed over to the backup
// endpoint. The flag is sticky: once the primary has failed, subsequent
// calls go straight to the backup instead of waiting out its timeouts.
func (c *Client) UsingBackup() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.useBackup
}

func (c *Client) endpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.useBackup {
		return c.cfg.EndpointBackup
	}
	return c.cfg.Endpoint
}

func (c *Client) switchToBackup() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.useBackup || c.cfg.EndpointBackup == "" {
		return false
	}
	c.useBackup = true
	c.log.Warn().Str("backup", c.cfg.EndpointBackup).Msg("primary endpoint failed, switching to backup")
	return true
}

// refID returns a fresh reference ID: an operation prefix plus the current
// Unix time in milliseconds, kept strictly monotonic so rapid calls for the
// same user never collide.
func (c *Client) refID(prefix string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= c.lastRef {
		now = c.lastRef + 1
	}
	c.lastRef = now

	return prefix + strconv.FormatInt(now, 10)
}

// CheckBalance queries the account balance. No side effects beyond the call.
func (c *Client) CheckBalance(ctx context.Context) *Result {
	p := c.cfg.Profile
	creds := c.cfg.Credentials

	var sig string
	switch p.BalanceScheme {
	case BalanceEmptySlots:
		sig = BalanceSignatureEmptySlots(p.Tag, creds)
	default:
		sig = BalanceSignature(p.Tag, creds)
	}

	params := map[string]string{
		p.MemberIDField: creds.MemberID,
		p.PINField:      creds.PIN,
		p.PasswordField: creds.Password,
		p.SignField:     sig,
	}

	return c.call(ctx, opBalance, p.BalancePath, params, c.cfg.QueryTimeout, false)
}

// ListProducts fetches the catalog for a category code (LISTDX, LISTSAKTI,
// ...) scoped to a destination number. Read-only.
func (c *Client) ListProducts(ctx context.Context, categoryCode, dest string) *Result {
	params, err := c.transactionParams(categoryCode, dest, c.refID("LIST"), "")
	if err != nil {
		return failure(err.Error())
	}
	return c.call(ctx, opList, c.cfg.Profile.OrderPath, params, c.cfg.QueryTimeout, false)
}

// CheckPrice asks the price and description of one catalog item.
func (c *Client) CheckPrice(ctx context.Context, categoryCode, dest, productID string) *Result {
	params, err := c.transactionParams(categoryCode, dest, c.refID("CEK"), productID)
	if err != nil {
		return failure(err.Error())
	}
	return c.call(ctx, opTransaction, c.cfg.Profile.OrderPath, params, c.cfg.QueryTimeout, false)
}

// SubmitOrder places an order: money moves and goods are delivered on the
// remote side. The operation is idempotent per reference ID; a fresh ID is
// generated here and returned in the result fields. A timeout is reported as
// StatusPending — the order may have been applied remotely, so the caller
// must never retry it with a new reference ID.
func (c *Client) SubmitOrder(ctx context.Context, productCode, dest, productID string) *Result {
	refID := c.refID("TRX")
	params, err := c.transactionParams(productCode, dest, refID, productID)
	if err != nil {
		return failure(err.Error())
	}
	p := c.cfg.Profile
	if p.QtyField != "" {
		params[p.QtyField] = "1"
	}

	res := c.call(ctx, opTransaction, p.OrderPath, params, c.cfg.OrderTimeout, true)
	if _, ok := res.Fields[FieldRefID]; !ok {
		res.Fields[FieldRefID] = refID
	}
	return res
}

// RequestDeposit asks the remote for a deposit ticket over the given amount.
func (c *Client) RequestDeposit(ctx context.Context, amount uint64) *Result {
	p := c.cfg.Profile
	creds := c.cfg.Credentials
	amountStr := strconv.FormatUint(amount, 10)

	params := map[string]string{
		p.MemberIDField: creds.MemberID,
		p.ProductField:  "TIKET",
		p.DestField:     amountStr,
		p.RefIDField:    c.refID("DEP"),
		p.SignField:     DepositSignature(p.Tag, creds, amountStr),
	}

	return c.call(ctx, opTransaction, p.OrderPath, params, c.cfg.QueryTimeout, false)
}

// FetchPriceList downloads the published price list. It lives outside the
// signed H2H surface, so unlike the other operations it returns a plain error.
func (c *Client) FetchPriceList(ctx context.Context) (json.RawMessage, error) {
	if c.cfg.PriceListURL == "" {
		return nil, errors.New("price list URL not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.QueryTimeout)
	defer cancel()

	resp, err := c.rest.R().SetContext(ctx).Get(c.cfg.PriceListURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price list - %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("price list request failed with status code %d", resp.StatusCode())
	}

	return json.RawMessage(resp.Body()), nil
}

func (c *Client) transactionParams(product, dest, refID, productID string) (map[string]string, error) {
	if product == "" {
		return nil, errors.New("product code needed")
	}
	if dest == "" {
		return nil, errors.New("destination needed")
	}

	p := c.cfg.Profile
	creds := c.cfg.Credentials

	params := map[string]string{
		p.MemberIDField: creds.MemberID,
		p.ProductField:  product,
		p.DestField:     dest,
		p.RefIDField:    refID,
		p.SignField:     TransactionSignature(p.Tag, creds, product, dest, refID),
	}
	if productID != "" && p.ProductIDField != "" {
		params[p.ProductIDField] = productID
	}

	return params, nil
}

// call issues the signed request against the active endpoint, failing over
// to the backup once on transport failure or a non-2xx status. A failure on
// the backup is terminal for the call. The reference ID is part of params,
// so the failover retry is the identical, idempotent request.
func (c *Client) call(ctx context.Context, op operation, path string, params map[string]string, timeout time.Duration, ambiguousTimeout bool) *Result {
	body, err := c.send(ctx, c.endpoint()+path, params, timeout)
	if err != nil {
		if !c.switchToBackup() {
			return c.transportResult(err, ambiguousTimeout)
		}
		body, err = c.send(ctx, c.endpoint()+path, params, timeout)
		if err != nil {
			return c.transportResult(err, ambiguousTimeout)
		}
	}

	res := normalize(op, body)
	c.log.Debug().Str("path", path).Str("status", res.Status.String()).Msg("reseller call completed")
	return res
}

func (c *Client) send(ctx context.Context, url string, params map[string]string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := c.rest.R().SetContext(ctx)

	var resp *resty.Response
	var err error
	if c.cfg.Profile.Method == http.MethodPost {
		resp, err = req.SetFormData(params).Post(url)
	} else {
		resp, err = req.SetQueryParams(params).Get(url)
	}
	if err != nil {
		return "", err
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return "", fmt.Errorf("unexpected status code %d", resp.StatusCode())
	}

	return string(resp.Body()), nil
}

// transportResult folds a transport error into the result sum type. Timeouts
// on order submission are ambiguous: the request may have reached the remote,
// so they surface as pending rather than failed.
func (c *Client) transportResult(err error, ambiguousTimeout bool) *Result {
	if ambiguousTimeout && isTimeout(err) {
		c.log.Warn().Err(err).Msg("order submission timed out, outcome unknown")
		return pending("request timed out; the order may still be processed, verify before retrying")
	}

	c.log.Error().Err(err).Msg("reseller request failed")
	return failure(fmt.Sprintf("connection error: %s", err))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
