// Package plaid is a thin JSON client for the vendor's REST API. Requests and
// responses are passed through as raw JSON; the demo server only shapes the
// request bodies and relays whatever comes back.
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alfredjeanlab/flash/internal/config"
)

// Vendor API paths used by the proxy routes.
const (
	PathLinkTokenCreate            = "/link/token/create"
	PathSandboxPublicTokenCreate   = "/sandbox/public_token/create"
	PathItemPublicTokenExchange    = "/item/public_token/exchange"
	PathAuthGet                    = "/auth/get"
	PathAccountsBalanceGet         = "/accounts/balance/get"
	PathAccountsGet                = "/accounts/get"
	PathSignalEvaluate             = "/signal/evaluate"
	PathTransactionsGet            = "/transactions/get"
	PathInvestmentsTransactionsGet = "/investments/transactions/get"
	PathItemRemove                 = "/item/remove"
	PathUserCreate                 = "/user/create"
	PathCRAIncomeInsightsGet       = "/cra/check_report/income_insights/get"
	PathCRAPartnerInsightsGet      = "/cra/check_report/partner_insights/get"
)

// DefaultTimeout bounds a single vendor call.
const DefaultTimeout = 30 * time.Second

// Client calls the vendor API at a fixed base URL. Credentials are supplied
// per call so one client serves both the primary and alternate pair.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// BaseURL returns the vendor base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// APIError is a non-2xx vendor response. Body is relayed to the browser
// verbatim.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid: HTTP %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// JSONBody reports whether Body is a JSON document that can be relayed as-is.
func (e *APIError) JSONBody() bool { return json.Valid(e.Body) }

// Call POSTs body as JSON to path and returns the raw response. A vendor
// error response yields *APIError; transport and decode failures are plain
// wrapped errors.
func (c *Client) Call(ctx context.Context, creds config.Credentials, path string, body any) (json.RawMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PLAID-CLIENT-ID", creds.ClientID)
	req.Header.Set("PLAID-SECRET", creds.Secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: respBody}
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("decoding response: invalid JSON from %s", path)
	}
	return json.RawMessage(respBody), nil
}

// CallInto is Call followed by decoding the response into result.
func (c *Client) CallInto(ctx context.Context, creds config.Credentials, path string, body, result any) error {
	raw, err := c.Call(ctx, creds, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
