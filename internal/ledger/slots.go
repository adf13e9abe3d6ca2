package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/paddock/internal/fault"
	"github.com/roach88/paddock/internal/slot"
)

// SlotInfo describes a stored slot.
type SlotInfo struct {
	ID         slot.ID   `json:"id"`
	Capacity   int       `json:"capacity"`
	Perm       slot.Perm `json:"perm"`
	Data       []byte    `json:"-"`
	CreatedSeq int64     `json:"created_seq"`
	UpdatedSeq int64     `json:"updated_seq"`
}

// Slot returns a slot view over the stored bytes.
func (i SlotInfo) Slot() *slot.Slot {
	return slot.Wrap(i.ID, i.Data, i.Perm)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateSlot allocates a zeroed slot with the given capacity and permissions.
func (l *Ledger) CreateSlot(ctx context.Context, capacity int, perm slot.Perm) (slot.ID, error) {
	if capacity <= 0 {
		return "", fault.New(fault.CodeInvalidArgument, "capacity must be positive, got %d", capacity)
	}

	id := slot.ID(l.idGen.Generate())
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO slots (id, capacity, perm, data, created_seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(created_seq), 0) + 1 FROM slots))
	`,
		string(id),
		capacity,
		int(perm),
		make([]byte, capacity),
	)
	if err != nil {
		return "", fmt.Errorf("create slot: %w", err)
	}

	return id, nil
}

// ReadSlot returns the stored slot with the given ID.
// Returns a CodeSlotNotFound error if no such slot exists.
func (l *Ledger) ReadSlot(ctx context.Context, id slot.ID) (SlotInfo, error) {
	return readSlot(ctx, l.db, id)
}

// ListSlots returns all slots in creation order.
func (l *Ledger) ListSlots(ctx context.Context) ([]SlotInfo, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, capacity, perm, data, created_seq, updated_seq
		FROM slots
		ORDER BY created_seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var slots []SlotInfo
	for rows.Next() {
		var info SlotInfo
		if err := rows.Scan(&info.ID, &info.Capacity, &info.Perm, &info.Data, &info.CreatedSeq, &info.UpdatedSeq); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	if slots == nil {
		slots = []SlotInfo{}
	}
	return slots, nil
}

// LoadSlots reads the slots with the given IDs, in order.
func (t *Tx) LoadSlots(ctx context.Context, ids []slot.ID) ([]*slot.Slot, error) {
	slots := make([]*slot.Slot, 0, len(ids))
	for _, id := range ids {
		info, err := readSlot(ctx, t.tx, id)
		if err != nil {
			return nil, err
		}
		slots = append(slots, info.Slot())
	}
	return slots, nil
}

// SaveSlot persists the bytes of s, stamping it with the invocation seq that
// produced them. The stored capacity must match.
func (t *Tx) SaveSlot(ctx context.Context, s *slot.Slot, seq int64) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE slots SET data = ?, updated_seq = ?
		WHERE id = ? AND capacity = ?
	`,
		s.Bytes(),
		seq,
		string(s.ID()),
		s.Capacity(),
	)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", s.ID(), err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save slot %s: rows affected: %w", s.ID(), err)
	}
	if n != 1 {
		return fmt.Errorf("save slot %s: %w", s.ID(), fault.New(fault.CodeSlotNotFound, "no slot with capacity %d", s.Capacity()))
	}
	return nil
}

func readSlot(ctx context.Context, q queryer, id slot.ID) (SlotInfo, error) {
	info := SlotInfo{ID: id}
	err := q.QueryRowContext(ctx, `
		SELECT capacity, perm, data, created_seq, updated_seq
		FROM slots
		WHERE id = ?
	`, string(id)).Scan(&info.Capacity, &info.Perm, &info.Data, &info.CreatedSeq, &info.UpdatedSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return SlotInfo{}, fault.New(fault.CodeSlotNotFound, "no stored slot").WithSlot(string(id))
	}
	if err != nil {
		return SlotInfo{}, fmt.Errorf("read slot %s: %w", id, err)
	}
	return info, nil
}
