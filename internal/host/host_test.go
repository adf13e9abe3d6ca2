package host

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/paddock/internal/dispatch"
	"github.com/roach88/paddock/internal/fault"
	"github.com/roach88/paddock/internal/ledger"
	"github.com/roach88/paddock/internal/record"
	"github.com/roach88/paddock/internal/slot"
)

type fixture struct {
	ledger *ledger.Ledger
	host   *Host
}

func newFixture(t *testing.T, ids ...string) *fixture {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "test.db"), ledger.WithIDGenerator(ledger.NewFixedGenerator(ids...)))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ep := dispatch.New(dispatch.WithLogger(logger))
	return &fixture{ledger: l, host: New(l, ep, WithLogger(logger))}
}

func (f *fixture) slotBytes(t *testing.T, id slot.ID) []byte {
	t.Helper()
	info, err := f.ledger.ReadSlot(context.Background(), id)
	require.NoError(t, err)
	return info.Data
}

func TestInvoke_PersistsMutations(t *testing.T) {
	f := newFixture(t, "horse", "inv-1", "inv-2", "inv-3")
	ctx := context.Background()
	id, err := f.ledger.CreateSlot(ctx, 64, slot.PermReadWrite)
	require.NoError(t, err)

	_, err = f.host.InvokeInstruction(ctx, "alice", []slot.ID{id}, dispatch.CreateInstruction(0, "Secretariat", 10, 10, 10))
	require.NoError(t, err)

	_, err = f.host.InvokeInstruction(ctx, "alice", []slot.ID{id}, dispatch.UpgradeStatsInstruction(0, 5, 0, 2))
	require.NoError(t, err)

	out, err := f.host.InvokeInstruction(ctx, "alice", []slot.ID{id}, dispatch.GetStatsInstruction(0))
	require.NoError(t, err)
	require.NotNil(t, out.Record)
	assert.Equal(t, record.Stats{Name: "Secretariat", Velocity: 15, Durability: 10, Stability: 12}, out.Record.Stats())

	want := make([]byte, 64)
	copy(want, record.Encode(record.Record{Name: "Secretariat", Velocity: 15, Durability: 10, Stability: 12}))
	assert.Equal(t, want, f.slotBytes(t, id))

	info, err := f.ledger.ReadSlot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.UpdatedSeq, "read-only ops must not restamp the slot")

	invs, err := f.ledger.ReadInvocations(ctx)
	require.NoError(t, err)
	require.Len(t, invs, 3)
	assert.Equal(t, []string{"create", "upgrade_stats", "get_stats"},
		[]string{invs[0].Operation, invs[1].Operation, invs[2].Operation})
	for _, inv := range invs {
		assert.Equal(t, ledger.StatusOK, inv.Status)
		assert.Equal(t, []slot.ID{id}, inv.SlotIDs)
	}
}

func TestInvoke_FailureIsLoggedButNotPersisted(t *testing.T) {
	f := newFixture(t, "horse", "inv-1", "inv-2", "inv-3")
	ctx := context.Background()
	id, err := f.ledger.CreateSlot(ctx, 32, slot.PermReadWrite)
	require.NoError(t, err)

	_, err = f.host.InvokeInstruction(ctx, "alice", []slot.ID{id}, dispatch.CreateInstruction(0, "Secretariat", 10, 10, 10))
	require.NoError(t, err)
	before := f.slotBytes(t, id)

	_, err = f.host.InvokeInstruction(ctx, "alice", []slot.ID{id}, dispatch.CreateInstruction(0, strings.Repeat("x", 40), 1, 1, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrCapacityExceeded)

	_, err = f.host.Invoke(ctx, "alice", []slot.ID{id}, []byte{0xff})
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrUnknownOperation)

	assert.Equal(t, before, f.slotBytes(t, id))

	invs, err := f.ledger.ReadInvocations(ctx)
	require.NoError(t, err)
	require.Len(t, invs, 3)
	assert.Equal(t, ledger.StatusError, invs[1].Status)
	assert.Equal(t, string(fault.CodeCapacityExceeded), invs[1].ErrorCode)
	assert.Equal(t, "op(0xff)", invs[2].Operation)
	assert.Equal(t, string(fault.CodeUnknownOperation), invs[2].ErrorCode)
}

func TestInvoke_Sessions(t *testing.T) {
	f := newFixture(t, "inv-1", "inv-2")
	ctx := context.Background()

	out, err := f.host.InvokeInstruction(ctx, "alice", nil, dispatch.StartSessionInstruction())
	require.NoError(t, err)
	assert.Equal(t, dispatch.OpStartSession, out.Op)

	_, err = f.host.InvokeInstruction(ctx, "alice", nil, dispatch.EndSessionInstruction())
	require.NoError(t, err)

	invs, err := f.ledger.ReadInvocationsByCaller(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, invs, 2)
}

func TestInvoke_MissingSlot(t *testing.T) {
	f := newFixture(t)

	_, err := f.host.InvokeInstruction(context.Background(), "alice", []slot.ID{"ghost"}, dispatch.ReadInstruction(0))

	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrSlotNotFound)

	invs, err := f.ledger.ReadInvocations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, invs)
}

func TestInvoke_ReadOnlySlot(t *testing.T) {
	f := newFixture(t, "ro", "inv-1")
	ctx := context.Background()
	id, err := f.ledger.CreateSlot(ctx, 64, slot.PermRead)
	require.NoError(t, err)

	_, err = f.host.InvokeInstruction(ctx, "alice", []slot.ID{id}, dispatch.CreateInstruction(0, "Bo", 1, 1, 1))

	assert.ErrorIs(t, err, fault.ErrPermissionDenied)
	assert.Equal(t, make([]byte, 64), f.slotBytes(t, id))
}

func TestOperationName(t *testing.T) {
	assert.Equal(t, "", operationName(nil))
	assert.Equal(t, "create", operationName([]byte{0x00, 0x01}))
	assert.Equal(t, "op(0x7f)", operationName([]byte{0x7f}))
}
