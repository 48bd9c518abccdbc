// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// WebhookPrefix is prepended to every webhook event ID.
const WebhookPrefix = "webhook_"

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length is the number of random characters generated (excluding prefix and timestamp).
var Length = 9

// Generate returns a random suffix of Length characters drawn from Alphabet.
func Generate() (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return id, nil
}

// WebhookID returns an ID of the form webhook_<unix-ms>_<random>.
// If nanoid fails (only possible with a bad Alphabet/Length) the random part
// falls back to a truncated UUID so ingest never fails.
func WebhookID(now time.Time) string {
	suffix, err := Generate()
	if err != nil {
		suffix = strings.ReplaceAll(uuid.NewString(), "-", "")[:Length]
	}
	return fmt.Sprintf("%s%d_%s", WebhookPrefix, now.UnixMilli(), suffix)
}
