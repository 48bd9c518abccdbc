package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered and the
// standard middleware applied.
func (s *Server) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	// Webhook relay.
	mux.HandleFunc("POST /api/webhook", s.handleWebhookIngest)
	mux.HandleFunc("GET /api/webhook", s.handleWebhookReady)
	mux.HandleFunc("GET /api/webhooks-stream", s.handleWebhookStream)
	mux.HandleFunc("GET /api/webhooks-ws", s.handleWebhookSocket)
	mux.HandleFunc("GET /api/webhooks", s.handleListWebhooks)
	mux.HandleFunc("GET /api/webhooks/archive", s.handleListArchive)

	// Environment discovery.
	mux.HandleFunc("GET /api/webhook-url", s.handleWebhookURL)
	mux.HandleFunc("GET /api/alt-credentials-check", s.handleAltCredentialsCheck)
	mux.HandleFunc("GET /v1/health", s.handleHealth)

	// Vendor proxy.
	mux.HandleFunc("POST /api/create-link-token", s.handleCreateLinkToken)
	mux.HandleFunc("POST /api/sandbox-public-token-create", s.handleSandboxPublicTokenCreate)
	mux.HandleFunc("POST /api/exchange-public-token", s.handleExchangePublicToken)
	mux.HandleFunc("POST /api/auth-get", s.handleAuthGet)
	mux.HandleFunc("POST /api/signal-balance", s.handleSignalBalance)
	mux.HandleFunc("POST /api/signal-evaluate", s.handleSignalEvaluate)
	mux.HandleFunc("POST /api/transactions-get", s.handleTransactionsGet)
	mux.HandleFunc("POST /api/investments-transactions-get", s.handleInvestmentsTransactionsGet)
	mux.HandleFunc("POST /api/item-remove", s.handleItemRemove)
	mux.HandleFunc("POST /api/user-create", s.handleUserCreate)
	mux.HandleFunc("POST /api/cra-income-insights-get", s.handleCRAIncomeInsightsGet)
	mux.HandleFunc("POST /api/cra-partner-insights-get", s.handleCRAPartnerInsightsGet)

	return RequestIDMiddleware(LoggingMiddleware(s.logger, RecoveryMiddleware(s.logger, mux)))
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeRawJSON writes an already-encoded JSON body.
func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
