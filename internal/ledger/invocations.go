package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/paddock/internal/slot"
)

// Invocation status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Invocation is one entry of the invocation log.
type Invocation struct {
	Seq          int64     `json:"seq"`
	ID           string    `json:"id"`
	Caller       string    `json:"caller"`
	Operation    string    `json:"operation"`
	Payload      []byte    `json:"payload"`
	SlotIDs      []slot.ID `json:"slot_ids"`
	Status       string    `json:"status"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// AppendInvocation appends inv to the log and returns it with ID and Seq set.
// An empty ID is filled from the ledger's ID generator.
func (t *Tx) AppendInvocation(ctx context.Context, inv Invocation) (Invocation, error) {
	if inv.ID == "" {
		inv.ID = t.idGen.Generate()
	}
	if inv.Payload == nil {
		inv.Payload = []byte{}
	}

	slotIDsJSON, err := marshalSlotIDs(inv.SlotIDs)
	if err != nil {
		return Invocation{}, fmt.Errorf("append invocation: %w", err)
	}

	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO invocations
		(id, caller, operation, payload, slot_ids, status, error_code, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.ID,
		inv.Caller,
		inv.Operation,
		inv.Payload,
		slotIDsJSON,
		inv.Status,
		inv.ErrorCode,
		inv.ErrorMessage,
	)
	if err != nil {
		return Invocation{}, fmt.Errorf("append invocation: %w", err)
	}

	inv.Seq, err = result.LastInsertId()
	if err != nil {
		return Invocation{}, fmt.Errorf("append invocation: last insert id: %w", err)
	}
	return inv, nil
}

// ReadInvocations returns the whole log ordered by seq ASC.
func (l *Ledger) ReadInvocations(ctx context.Context) ([]Invocation, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, id, caller, operation, payload, slot_ids, status, error_code, error_message
		FROM invocations
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	return scanInvocations(rows)
}

// ReadInvocationsByCaller returns the log entries of one caller ordered by seq ASC.
func (l *Ledger) ReadInvocationsByCaller(ctx context.Context, caller string) ([]Invocation, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, id, caller, operation, payload, slot_ids, status, error_code, error_message
		FROM invocations
		WHERE caller = ?
		ORDER BY seq ASC
	`, caller)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	return scanInvocations(rows)
}

func scanInvocations(rows *sql.Rows) ([]Invocation, error) {
	defer rows.Close()

	var invocations []Invocation
	for rows.Next() {
		var inv Invocation
		var slotIDsJSON string
		if err := rows.Scan(
			&inv.Seq, &inv.ID, &inv.Caller, &inv.Operation, &inv.Payload,
			&slotIDsJSON, &inv.Status, &inv.ErrorCode, &inv.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}

		ids, err := unmarshalSlotIDs(slotIDsJSON)
		if err != nil {
			return nil, fmt.Errorf("invocation %s: %w", inv.ID, err)
		}
		inv.SlotIDs = ids
		invocations = append(invocations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocations: %w", err)
	}

	if invocations == nil {
		invocations = []Invocation{}
	}
	return invocations, nil
}
