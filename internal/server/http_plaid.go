package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alfredjeanlab/flash/internal/plaid"
)

const (
	linkClientName        = "Plaid Flash"
	linkCustomizationName = "flash"
	defaultInstitutionID  = "ins_109511"
	defaultSignalAmount   = 100.00
)

var (
	defaultProducts = []string{"auth"}
	defaultLinkUser = map[string]string{
		"client_user_id": "flash_user_id01",
		"phone_number":   "+14155550011",
	}
)

var (
	routeCreateLinkToken = proxyRoute{
		name:    "create-link-token",
		failure: "Failed to create link token",
		display: "Unable to create link token. Please try again.",
	}
	routeSandboxPublicToken = proxyRoute{
		name:    "sandbox-public-token-create",
		failure: "Failed to create sandbox public token",
		display: "Unable to create sandbox public token. Please try again.",
	}
	routeExchangePublicToken = proxyRoute{
		name:    "exchange-public-token",
		failure: "Failed to exchange token",
		display: "Unable to exchange token. Please try again.",
	}
	routeAuthGet                 = proxyRoute{name: "auth-get", failure: "Failed to get auth data"}
	routeSignalBalance           = proxyRoute{name: "signal-balance", failure: "Failed to fetch balance"}
	routeSignalEvaluate          = proxyRoute{name: "signal-evaluate", failure: "Failed to evaluate signal"}
	routeTransactionsGet         = proxyRoute{name: "transactions-get", failure: "Failed to fetch transactions"}
	routeInvestmentsTransactions = proxyRoute{name: "investments-transactions-get", failure: "Failed to get investments transactions"}
	routeItemRemove              = proxyRoute{name: "item-remove", failure: "Failed to remove item"}
	routeUserCreate              = proxyRoute{name: "user-create", failure: "Failed to create user"}
	routeCRAIncomeInsights       = proxyRoute{name: "cra-income-insights-get", failure: "Failed to get CRA income insights"}
	routeCRAPartnerInsights      = proxyRoute{name: "cra-partner-insights-get", failure: "Failed to get CRA partner insights"}
)

// Flags the browser sends that are never forwarded to the vendor.
const (
	flagAltCredentials  = "useAltCredentials"
	flagLegacyUserToken = "useLegacyUserToken"
)

var errAccessTokenRequired = inputError("access_token is required")

// handleCreateLinkToken handles POST /api/create-link-token.
func (s *Server) handleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	route := routeCreateLinkToken
	body, err := decodeProxyBody(w, r)
	if err != nil {
		s.fail(w, route, err)
		return
	}

	req := map[string]any{
		"link_customization_name": linkCustomizationName,
		"user":                    body.value("user", defaultLinkUser),
		"client_name":             linkClientName,
		"products":                body.value("products", defaultProducts),
		"country_codes":           []string{"US"},
		"language":                "en",
	}
	var required []json.RawMessage
	if body.truthy("required_if_supported_products") {
		_ = json.Unmarshal(body["required_if_supported_products"], &required)
	}
	if len(required) > 0 {
		req["required_if_supported_products"] = required
	}
	for _, key := range []string{"user_id", "user_token", "webhook"} {
		if body.truthy(key) {
			req[key] = body[key]
		}
	}
	// Anything else the UI sends (e.g. per-product options) is merged last.
	for k, v := range body.without("products", "required_if_supported_products",
		"user_id", "user_token", "user", "webhook", flagAltCredentials) {
		req[k] = v
	}

	var resp struct {
		LinkToken string `json:"link_token"`
	}
	if err := s.plaid.CallInto(r.Context(), s.credentials(body), plaid.PathLinkTokenCreate, req, &resp); err != nil {
		s.fail(w, route, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"link_token": resp.LinkToken})
}

// handleSandboxPublicTokenCreate handles POST /api/sandbox-public-token-create.
func (s *Server) handleSandboxPublicTokenCreate(w http.ResponseWriter, r *http.Request) {
	route := routeSandboxPublicToken
	body, err := decodeProxyBody(w, r)
	if err != nil {
		s.fail(w, route, err)
		return
	}

	req := map[string]any{
		"institution_id":   body.value("institution_id", defaultInstitutionID),
		"initial_products": body.value("initial_products", defaultProducts),
	}
	for _, key := range []string{"options", "user_id", "user_token"} {
		if body.truthy(key) {
			req[key] = body[key]
		}
	}

	var resp struct {
		PublicToken string `json:"public_token"`
	}
	if err := s.plaid.CallInto(r.Context(), s.credentials(body), plaid.PathSandboxPublicTokenCreate, req, &resp); err != nil {
		s.fail(w, route, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_token": resp.PublicToken})
}

// handleExchangePublicToken handles POST /api/exchange-public-token.
func (s *Server) handleExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	route := routeExchangePublicToken
	body, err := decodeProxyBody(w, r)
	if err != nil {
		s.fail(w, route, err)
		return
	}

	req := map[string]any{"public_token": body.value("public_token", nil)}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := s.plaid.CallInto(r.Context(), s.credentials(body), plaid.PathItemPublicTokenExchange, req, &resp); err != nil {
		s.fail(w, route, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": resp.AccessToken})
}

// handleAuthGet handles POST /api/auth-get.
func (s *Server) handleAuthGet(w http.ResponseWriter, r *http.Request) {
	s.relayAccessTokenCall(w, r, routeAuthGet, plaid.PathAuthGet, false)
}

// handleSignalBalance handles POST /api/signal-balance.
func (s *Server) handleSignalBalance(w http.ResponseWriter, r *http.Request) {
	s.relayAccessTokenCall(w, r, routeSignalBalance, plaid.PathAccountsBalanceGet, true)
}

// relayAccessTokenCall forwards {access_token} to path and relays the
// vendor's response body.
func (s *Server) relayAccessTokenCall(w http.ResponseWriter, r *http.Request, route proxyRoute, path string, require bool) {
	body, err := decodeProxyBody(w, r)
	if err != nil {
		s.fail(w, route, err)
		return
	}
	if require && !body.truthy("access_token") {
		s.fail(w, route, errAccessTokenRequired)
		return
	}

	raw, err := s.plaid.Call(r.Context(), s.credentials(body), path, map[string]any{
		"access_token": body.value("access_token", nil),
	})
	if err != nil {
		s.fail(w, route, err)
		return
	}
	writeRawJSON(w, http.StatusOK, raw)
}

// handleSignalEvaluate handles POST /api/signal-evaluate. The first account
// on the item is evaluated.
func (s *Server) handleSignalEvaluate(w http.ResponseWriter, r *http.Request) {
	route := routeSignalEvaluate
	body, err := decodeProxyBody(w, r)
	if err != nil {
		s.fail(w, route, err)
		return
	}
	if !body.truthy("access_token") {
		s.fail(w, route, errAccessTokenRequired)
		return
	}
	creds := s.credentials(body)
	accessToken := body["access_token"]

	var accounts struct {
		Accounts []struct {
			AccountID string `json:"account_id"`
		} `json:"accounts"`
	}
	if err := s.plaid.CallInto(r.Context(), creds, plaid.PathAccountsGet, map[string]any{"access_token": accessToken}, &accounts); err != nil {
		s.fail(w, route, err)
		return
	}
	if len(accounts.Accounts) == 0 || accounts.Accounts[0].AccountID == "" {
		s.fail(w, route, inputError("No accounts found for this item"))
		return
	}

	raw, err := s.plaid.Call(r.Context(), creds, plaid.PathSignalEvaluate, map[string]any{
		"access_token":          accessToken,
		"account_id":            accounts.Accounts[0].AccountID,
		"client_transaction_id": body.value("client_transaction_id", fmt.Sprintf("txn_%d", s.now().UnixMilli())),
		"amount":                body.value("amount", defaultSignalAmount),
		"ruleset_key":           "default",
	})
	if err != nil {
		s.fail(w, route, err)
		return
	}
	writeRawJSON(w, http.StatusOK, raw)
}

// handleTransactionsGet handles POST /api/transactions-get.
func (s *Server) handleTransactionsGet(w http.ResponseWriter, r *http.Request) {
	s.relayDateRangeCall(w, r, routeTransactionsGet, plaid.PathTransactionsGet, 15)
}

// handleInvestmentsTransactionsGet handles POST /api/investments-transactions-get.
func (s *Server) handleInvestmentsTransactionsGet(w http.ResponseWriter, r *http.Request) {
	s.relayDateRangeCall(w, r, routeInvestmentsTransactions, plaid.PathInvestmentsTransactionsGet, 30)
}

// relayDateRangeCall forwards {access_token, start_date, end_date}. Missing
// dates default to the last defaultDays days.
func (s *Server) relayDateRangeCall(w http.ResponseWriter, r *http.Request, route proxyRoute, path string, defaultDays int) {
	body, err := decodeProxyBody(w, r)
	if err != nil {
		s.fail(w, route, err)
		return
	}
	if !body.truthy("access_token") {
		s.fail(w, route, errAccessTokenRequired)
		return
	}

	now := s.now()
	start, err := vendorDate(body, "start_date", now.Add(-time.Duration(defaultDays)*24*time.Hour))
	if err != nil {
		s.fail(w, route, err)
		return
	}
	end, err := vendorDate(body, "end_date", now)
	if err != nil {
		s.fail(w, route, err)
		return
	}

	raw, err := s.plaid.Call(r.Context(), s.credentials(body), path, map[string]any{
		"access_token": body["access_token"],
		"start_date":   start,
		"end_date":     end,
	})
	if err != nil {
		s.fail(w, route, err)
		return
	}
	writeRawJSON(w, http.StatusOK, raw)
}

// handleItemRemove handles POST /api/item-remove.
func (s *Server) handleItemRemove(w http.ResponseWriter, r *http.Request) {
	route := routeItemRemove
	body, err := decodeProxyBody(w, r)
	if err != nil {
		s.fail(w, route, err)
		return
	}
	if !body.truthy("access_token") {
		s.fail(w, route, errAccessTokenRequired)
		return
	}
	if _, err := s.plaid.Call(r.Context(), s.credentials(body), plaid.PathItemRemove, map[string]any{
		"access_token": body["access_token"],
	}); err != nil {
		s.fail(w, route, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleUserCreate handles POST /api/user-create. Everything except the
// browser-only flags is forwarded.
func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	route := routeUserCreate
	body, err := decodeProxyBody(w, r)
	if err != nil {
		s.fail(w, route, err)
		return
	}
	creds := s.credentials(body)
	s.logger.Info("creating user",
		"alt_credentials", body.truthy(flagAltCredentials),
		"client_id", redactID(creds.ClientID),
	)

	raw, err := s.plaid.Call(r.Context(), creds, plaid.PathUserCreate, body.without(flagAltCredentials, flagLegacyUserToken))
	if err != nil {
		s.fail(w, route, err)
		return
	}
	writeRawJSON(w, http.StatusOK, raw)
}

// handleCRAIncomeInsightsGet handles POST /api/cra-income-insights-get.
func (s *Server) handleCRAIncomeInsightsGet(w http.ResponseWriter, r *http.Request) {
	s.relayCRAReport(w, r, routeCRAIncomeInsights, plaid.PathCRAIncomeInsightsGet)
}

// handleCRAPartnerInsightsGet handles POST /api/cra-partner-insights-get.
func (s *Server) handleCRAPartnerInsightsGet(w http.ResponseWriter, r *http.Request) {
	s.relayCRAReport(w, r, routeCRAPartnerInsights, plaid.PathCRAPartnerInsightsGet)
}

// relayCRAReport fetches a check report for the user, identified by user_id
// or, failing that, the legacy user_token.
func (s *Server) relayCRAReport(w http.ResponseWriter, r *http.Request, route proxyRoute, path string) {
	body, err := decodeProxyBody(w, r)
	if err != nil {
		s.fail(w, route, err)
		return
	}

	req := map[string]any{}
	switch {
	case body.truthy("user_id"):
		req["user_id"] = body["user_id"]
	case body.truthy("user_token"):
		req["user_token"] = body["user_token"]
	default:
		s.fail(w, route, inputError("Either user_id or user_token is required"))
		return
	}

	raw, err := s.plaid.Call(r.Context(), s.credentials(body), path, req)
	if err != nil {
		s.fail(w, route, err)
		return
	}
	writeRawJSON(w, http.StatusOK, raw)
}
