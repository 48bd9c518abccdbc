package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/flash/internal/store"
	"github.com/alfredjeanlab/flash/internal/webhook"
)

const webhookColumns = `id, webhook_type, webhook_code, item_id, received_at, payload`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryRecordWebhook inserts ev. Re-recording an ID is a no-op since events
// are immutable.
func queryRecordWebhook(ctx context.Context, db executor, ev *webhook.Event) error {
	payload := []byte(ev.Payload)
	if len(payload) == 0 {
		payload = []byte("null")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO webhooks (id, webhook_type, webhook_code, item_id, received_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		ev.ID,
		ev.Type,
		ev.Code,
		nullString(ev.ItemID),
		ev.ReceivedAt.Time(),
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert webhook %s: %w", ev.ID, err)
	}
	return nil
}

func queryListWebhooks(ctx context.Context, db executor, filter store.WebhookFilter) ([]webhook.Event, error) {
	where, args := buildWebhookFilter(filter)
	args = append(args, filter.Limit)
	q := `SELECT ` + webhookColumns + ` FROM webhooks` + where +
		fmt.Sprintf(` ORDER BY received_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()
	return scanWebhooks(rows)
}

// buildWebhookFilter returns a WHERE clause (with leading space, or empty)
// and its positional arguments.
func buildWebhookFilter(f store.WebhookFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("webhook_type", f.Type)
	add("webhook_code", f.Code)
	add("item_id", f.ItemID)
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
