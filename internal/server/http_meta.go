package server

import "net/http"

// handleWebhookURL handles GET /api/webhook-url: tells the UI which public
// URL to hand the vendor when creating a link token.
func (s *Server) handleWebhookURL(w http.ResponseWriter, _ *http.Request) {
	url, env, ok := s.cfg.WebhookURL()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"webhookUrl":  nil,
			"environment": env,
			"status":      "unavailable",
			"message":     "Webhook URL not available in this environment",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"webhookUrl":  url,
		"environment": env,
		"status":      "ready",
	})
}

// handleAltCredentialsCheck handles GET /api/alt-credentials-check.
func (s *Server) handleAltCredentialsCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"available": s.cfg.HasAltCredentials()})
}
