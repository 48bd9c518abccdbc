// Package webhook implements the in-process webhook relay: a bounded store of
// recently received vendor callbacks, a registry of live subscriber channels,
// and the relay that appends new events and fans them out.
package webhook

import (
	"bytes"
	"encoding/json"
	"time"
)

// Unknown is used for webhook_type / webhook_code when the payload lacks them.
const Unknown = "UNKNOWN"

// TimestampLayout matches JavaScript's Date.toISOString, which browser
// listeners already parse.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Event is a normalized record of one inbound vendor callback.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"webhook_type"`
	Code       string          `json:"webhook_code"`
	ItemID     string          `json:"item_id,omitempty"`
	ReceivedAt Timestamp       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload"`
}

// Timestamp is a UTC time serialized with millisecond precision.
type Timestamp time.Time

func (t Timestamp) Time() time.Time { return time.Time(t) }

func (t Timestamp) String() string { return time.Time(t).UTC().Format(TimestampLayout) }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// callbackFields are the only payload fields the relay looks at.
type callbackFields struct {
	WebhookType any `json:"webhook_type"`
	WebhookCode any `json:"webhook_code"`
	ItemID      any `json:"item_id"`
}

// newEvent builds an unstamped Event (no ID or receivedAt) from a raw
// payload. It never fails: a payload that is not a JSON object yields UNKNOWN
// type/code and no item id, and a payload that is not JSON at all is stored
// as null.
func newEvent(raw []byte) Event {
	ev := Event{
		Type:    Unknown,
		Code:    Unknown,
		Payload: compact(raw),
	}
	var f callbackFields
	if json.Unmarshal(raw, &f) == nil {
		if s, ok := f.WebhookType.(string); ok && s != "" {
			ev.Type = s
		}
		if s, ok := f.WebhookCode.(string); ok && s != "" {
			ev.Code = s
		}
		if s, ok := f.ItemID.(string); ok {
			ev.ItemID = s
		}
	}
	return ev
}

func compact(raw []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(buf.Bytes())
}
