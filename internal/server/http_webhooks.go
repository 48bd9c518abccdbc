package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/flash/internal/store"
	"github.com/alfredjeanlab/flash/internal/webhook"
)

// maxWebhookBody caps inbound vendor callbacks.
const maxWebhookBody = 1 << 20

const (
	webhookReadyMessage = "Webhook endpoint is ready to receive Plaid webhooks"
	webhookErrorMessage = "Failed to process webhook payload"
)

type ingestResponse struct {
	Received  bool   `json:"received"`
	WebhookID string `json:"webhook_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleWebhookIngest handles POST /api/webhook. It always answers 200 so the
// vendor never retries; a body that is not JSON is acknowledged with an error
// string and not stored.
func (s *Server) handleWebhookIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err == nil && !json.Valid(body) {
		err = errors.New("body is not valid JSON")
	}
	if err != nil {
		s.logger.Warn("rejected webhook payload", "error", err, "bytes", len(body))
		writeJSON(w, http.StatusOK, ingestResponse{Received: true, Error: webhookErrorMessage})
		return
	}

	ev := s.relay.Ingest(body)
	s.mirror(r.Context(), ev)
	writeJSON(w, http.StatusOK, ingestResponse{Received: true, WebhookID: ev.ID})
}

// handleWebhookReady handles GET /api/webhook.
func (s *Server) handleWebhookReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": webhookReadyMessage,
	})
}

type webhooksResponse struct {
	Webhooks    []webhook.Event `json:"webhooks"`
	Subscribers int             `json:"subscribers"`
}

// handleListWebhooks handles GET /api/webhooks.
func (s *Server) handleListWebhooks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, webhooksResponse{
		Webhooks:    s.relay.Webhooks(),
		Subscribers: s.relay.Subscribers(),
	})
}

// handleListArchive handles GET /api/webhooks/archive.
func (s *Server) handleListArchive(w http.ResponseWriter, r *http.Request) {
	filter, err := parseArchiveFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := s.archive.ListWebhooks(r.Context(), filter)
	if errors.Is(err, store.ErrArchiveDisabled) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("failed to list archived webhooks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list archived webhooks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"webhooks": events})
}

func parseArchiveFilter(r *http.Request) (store.WebhookFilter, error) {
	q := r.URL.Query()
	f := store.WebhookFilter{
		Type:   q.Get("type"),
		Code:   q.Get("code"),
		ItemID: q.Get("item_id"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, inputError("limit must be a non-negative integer")
		}
		f.Limit = n
	}
	return f.Normalize(), nil
}
