package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alfredjeanlab/flash/internal/config"
	"github.com/alfredjeanlab/flash/internal/plaid"
)

// proxyBody is a decoded proxy request. Values stay raw so fields the server
// does not interpret pass through to the vendor untouched.
type proxyBody map[string]json.RawMessage

func decodeProxyBody(w http.ResponseWriter, r *http.Request) (proxyBody, error) {
	var body proxyBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding request body: %w", err)
	}
	if body == nil {
		return nil, errors.New("decoding request body: expected a JSON object")
	}
	return body, nil
}

// truthy follows the browser client's notion of a set flag: anything except
// absent, null, false, 0 and "".
func (b proxyBody) truthy(key string) bool {
	raw, ok := b[key]
	if !ok {
		return false
	}
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// str returns the string value of key, or "" when absent or not a string.
func (b proxyBody) str(key string) string {
	var s string
	if raw, ok := b[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// value returns the raw value of key when truthy, else fallback.
func (b proxyBody) value(key string, fallback any) any {
	if b.truthy(key) {
		return b[key]
	}
	return fallback
}

// without returns a copy of b minus the given keys.
func (b proxyBody) without(keys ...string) proxyBody {
	out := make(proxyBody, len(b))
	for k, v := range b {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// proxyRoute describes how a route reports failures. Routes with a display
// message use the structured vendor-style envelope; the rest use {error}.
type proxyRoute struct {
	name    string
	failure string
	display string
}

func (p proxyRoute) envelope(message string) any {
	if p.display == "" {
		return map[string]string{"error": message}
	}
	return map[string]string{
		"error_code":      "INTERNAL_SERVER_ERROR",
		"error_message":   message,
		"display_message": p.display,
	}
}

// fail writes the response for err. Vendor errors with a JSON body are
// relayed verbatim with the vendor's status; input errors become 400; all
// else is a 500 with the route's envelope.
func (s *Server) fail(w http.ResponseWriter, route proxyRoute, err error) {
	var (
		apiErr *plaid.APIError
		inErr  inputError
	)
	switch {
	case errors.As(err, &inErr):
		writeError(w, http.StatusBadRequest, string(inErr))
	case errors.As(err, &apiErr):
		s.logger.Warn("vendor returned error", "route", route.name, "status", apiErr.StatusCode)
		if apiErr.JSONBody() {
			writeRawJSON(w, apiErr.StatusCode, apiErr.Body)
			return
		}
		writeJSON(w, apiErr.StatusCode, route.envelope(route.failure))
	default:
		s.logger.Error("proxy request failed", "route", route.name, "error", err)
		writeJSON(w, http.StatusInternalServerError, route.envelope(route.failure))
	}
}

// vendorDate normalizes an optional date field to YYYY-MM-DD, defaulting to
// fallback when absent.
func vendorDate(b proxyBody, key string, fallback time.Time) (string, error) {
	if !b.truthy(key) {
		return fallback.UTC().Format(time.DateOnly), nil
	}
	s := b.str(key)
	for _, layout := range []string{time.DateOnly, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.DateOnly), nil
		}
	}
	return "", inputError(key + " must be a YYYY-MM-DD date")
}

// redactID shortens a client ID for logging.
func redactID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

// credentials selects the credential pair for a proxy request.
func (s *Server) credentials(body proxyBody) config.Credentials {
	return s.cfg.Credentials(body.truthy(flagAltCredentials))
}
