package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/flash/internal/webhook"
)

// Source supplies the events to export, most-recent-first. *webhook.Relay
// satisfies it.
type Source interface {
	Webhooks() []webhook.Event
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version      string    `json:"version"`
	Type         string    `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	WebhookCount int       `json:"webhook_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ExportJSONL writes a snapshot of src as JSONL: a header line followed by
// one "webhook" record per event, oldest first so appends read naturally.
func ExportJSONL(ctx context.Context, src Source, w io.Writer) error {
	events := src.Webhooks()

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:      "1",
		Type:         "header",
		Timestamp:    time.Now().UTC(),
		WebhookCount: len(events),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for i := len(events) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := events[i]
		data, err := marshalUnescaped(ev)
		if err != nil {
			return fmt.Errorf("marshal webhook %s: %w", ev.ID, err)
		}
		if err := enc.Encode(record{Type: "webhook", Data: data}); err != nil {
			return fmt.Errorf("encode webhook %s: %w", ev.ID, err)
		}
	}

	return nil
}

// marshalUnescaped is json.Marshal without HTML escaping, so codes like
// "A<B>" survive verbatim inside the raw record data.
func marshalUnescaped(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ReadJSONL parses an export produced by ExportJSONL and returns its events
// in file order (oldest first). Unknown record types are skipped.
func ReadJSONL(r io.Reader) ([]webhook.Event, error) {
	dec := json.NewDecoder(r)
	var events []webhook.Event
	for {
		var rec record
		if err := dec.Decode(&rec); err == io.EOF {
			return events, nil
		} else if err != nil {
			return nil, fmt.Errorf("decode record %d: %w", len(events)+1, err)
		}
		if rec.Type != "webhook" {
			continue
		}
		var ev webhook.Event
		if err := json.Unmarshal(rec.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode webhook: %w", err)
		}
		events = append(events, ev)
	}
}
