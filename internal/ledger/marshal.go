package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/paddock/internal/slot"
)

// marshalSlotIDs converts the ordered slot list of an invocation to JSON TEXT.
// A nil list is stored as "[]".
func marshalSlotIDs(ids []slot.ID) (string, error) {
	if ids == nil {
		ids = []slot.ID{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal slot ids: %w", err)
	}
	return string(data), nil
}

// unmarshalSlotIDs parses JSON TEXT back to the ordered slot list.
func unmarshalSlotIDs(data string) ([]slot.ID, error) {
	ids := []slot.ID{}
	if data == "" || data == "[]" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal slot ids: %w", err)
	}
	return ids, nil
}
