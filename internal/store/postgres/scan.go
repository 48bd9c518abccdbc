package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/alfredjeanlab/flash/internal/webhook"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanWebhook scans one row in webhookColumns order.
func scanWebhook(row scannable) (webhook.Event, error) {
	var (
		ev         webhook.Event
		itemID     sql.NullString
		receivedAt time.Time
		payload    []byte
	)
	if err := row.Scan(&ev.ID, &ev.Type, &ev.Code, &itemID, &receivedAt, &payload); err != nil {
		return webhook.Event{}, err
	}
	ev.ItemID = itemID.String
	ev.ReceivedAt = webhook.Timestamp(receivedAt.UTC())
	ev.Payload = json.RawMessage(payload)
	return ev, nil
}

func scanWebhooks(rows *sql.Rows) ([]webhook.Event, error) {
	events := []webhook.Event{}
	for rows.Next() {
		ev, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
