package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/paddock/internal/slot"
)

func appendAll(t *testing.T, l *Ledger, invs ...Invocation) []Invocation {
	t.Helper()
	ctx := context.Background()
	var out []Invocation
	err := l.WithTx(ctx, func(tx *Tx) error {
		for _, inv := range invs {
			stored, err := tx.AppendInvocation(ctx, inv)
			if err != nil {
				return err
			}
			out = append(out, stored)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestAppendInvocation_AssignsIDAndSeq(t *testing.T) {
	l := createTestLedger(t, WithIDGenerator(NewFixedGenerator("inv-1", "inv-2")))

	stored := appendAll(t, l,
		Invocation{Caller: "alice", Operation: "create", Payload: []byte{0x00}, SlotIDs: []slot.ID{"a"}, Status: StatusOK},
		Invocation{Caller: "bob", Operation: "op(0xff)", Payload: []byte{0xff}, Status: StatusError, ErrorCode: "UNKNOWN_OPERATION", ErrorMessage: "selector 0xff"},
	)

	assert.Equal(t, "inv-1", stored[0].ID)
	assert.Equal(t, int64(1), stored[0].Seq)
	assert.Equal(t, "inv-2", stored[1].ID)
	assert.Equal(t, int64(2), stored[1].Seq)
}

func TestAppendInvocation_KeepsExplicitID(t *testing.T) {
	l := createTestLedger(t, WithIDGenerator(NewFixedGenerator()))

	stored := appendAll(t, l, Invocation{ID: "given", Caller: "alice", Operation: "read", Status: StatusOK})

	assert.Equal(t, "given", stored[0].ID)
}

func TestReadInvocations_RoundTrip(t *testing.T) {
	l := createTestLedger(t, WithIDGenerator(NewFixedGenerator("inv-1", "inv-2", "inv-3")))
	appendAll(t, l,
		Invocation{Caller: "alice", Operation: "create", Payload: []byte{0x00, 0x01}, SlotIDs: []slot.ID{"a", "b"}, Status: StatusOK},
		Invocation{Caller: "bob", Operation: "start_session", Payload: []byte{0x04}, Status: StatusOK},
		Invocation{Caller: "alice", Operation: "", Payload: nil, Status: StatusError, ErrorCode: "INVALID_INSTRUCTION", ErrorMessage: "empty payload"},
	)

	invs, err := l.ReadInvocations(context.Background())
	require.NoError(t, err)
	require.Len(t, invs, 3)

	assert.Equal(t, Invocation{
		Seq: 1, ID: "inv-1", Caller: "alice", Operation: "create",
		Payload: []byte{0x00, 0x01}, SlotIDs: []slot.ID{"a", "b"}, Status: StatusOK,
	}, invs[0])
	assert.Equal(t, []slot.ID{}, invs[1].SlotIDs)
	assert.Equal(t, []byte{}, invs[2].Payload)
	assert.Equal(t, "INVALID_INSTRUCTION", invs[2].ErrorCode)
}

func TestReadInvocationsByCaller(t *testing.T) {
	l := createTestLedger(t, WithIDGenerator(NewFixedGenerator("inv-1", "inv-2", "inv-3")))
	appendAll(t, l,
		Invocation{Caller: "alice", Operation: "create", Status: StatusOK},
		Invocation{Caller: "bob", Operation: "read", Status: StatusOK},
		Invocation{Caller: "alice", Operation: "read", Status: StatusOK},
	)

	invs, err := l.ReadInvocationsByCaller(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, invs, 2)
	assert.Equal(t, []int64{1, 3}, []int64{invs[0].Seq, invs[1].Seq})

	none, err := l.ReadInvocationsByCaller(context.Background(), "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSlotIDsMarshal(t *testing.T) {
	text, err := marshalSlotIDs(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", text)

	text, err = marshalSlotIDs([]slot.ID{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, text)

	ids, err := unmarshalSlotIDs(text)
	require.NoError(t, err)
	assert.Equal(t, []slot.ID{"a", "b"}, ids)

	_, err = unmarshalSlotIDs("{")
	assert.Error(t, err)
}
