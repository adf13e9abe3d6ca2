package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/paddock/internal/dispatch"
	"github.com/roach88/paddock/internal/record"
)

func TestInvoke_CreateUpgradeGetStats(t *testing.T) {
	db := testDB(t)
	id := newSlot(t, db, "--capacity", "32")

	out, err := runCLI(t, db, "invoke", "create", "--slot", id,
		"--name", "Secretariat", "--velocity", "10", "--durability", "10", "--stability", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ create (slot "+id+")")
	assert.Contains(t, out, "name:       Secretariat")

	_, err = runCLI(t, db, "invoke", "upgrade_stats", "--slot", id, "--velocity", "5", "--stability", "2")
	require.NoError(t, err)

	out, err = runCLI(t, db, "--format", "json", "invoke", "get_stats", "--slot", id)
	require.NoError(t, err)

	var result InvokeResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "get_stats", result.Op)
	assert.Equal(t, id, string(result.Slot))
	assert.Equal(t, &record.Stats{Name: "Secretariat", Velocity: 15, Durability: 10, Stability: 12}, result.Stats)
}

func TestInvoke_Sessions(t *testing.T) {
	db := testDB(t)

	out, err := runCLI(t, db, "invoke", "start_session")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ start_session")

	out, err = runCLI(t, db, "invoke", "end_session", "--caller", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ end_session")
}

func TestInvoke_CapacityExceeded(t *testing.T) {
	db := testDB(t)
	id := newSlot(t, db, "--capacity", "20")

	out, err := runCLI(t, db, "invoke", "create", "--slot", id, "--name", "A much longer name")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [CAPACITY_EXCEEDED]")
}

func TestInvoke_ReadUninitialized(t *testing.T) {
	db := testDB(t)
	id := newSlot(t, db)

	out, err := runCLI(t, db, "--format", "json", "invoke", "read", "--slot", id)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeData(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MALFORMED", resp.Error.Code)
}

func TestInvoke_Raw(t *testing.T) {
	db := testDB(t)
	id := newSlot(t, db)

	out, err := runCLI(t, db, "invoke", "--raw", "ff", "--slot", id)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [UNKNOWN_OPERATION]")

	out, err = runCLI(t, db, "invoke", "--raw", "0200ff", "--slot", id)
	require.Error(t, err)
	assert.Contains(t, out, "Error [INVALID_INSTRUCTION]")
}

func TestInvoke_UnknownSlot(t *testing.T) {
	out, err := runCLI(t, testDB(t), "invoke", "read", "--slot", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [SLOT_NOT_FOUND]")
}

func TestInvoke_CommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantOut string
	}{
		{name: "no operation", args: []string{"invoke"}, wantOut: "an operation or --raw is required"},
		{name: "unknown operation", args: []string{"invoke", "gallop"}, wantOut: "Error [UNKNOWN_OPERATION]"},
		{name: "missing slot", args: []string{"invoke", "get_stats"}, wantOut: "get_stats requires --slot"},
		{name: "raw and op", args: []string{"invoke", "read", "--raw", "0100"}, wantOut: "--raw replaces"},
		{name: "raw not hex", args: []string{"invoke", "--raw", "xyz"}, wantOut: "invalid --raw payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, testDB(t), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestBuildInvocation(t *testing.T) {
	opts := &InvokeOptions{Slots: []string{"a"}, Velocity: 1}

	payload, in, err := buildInvocation(opts, []string{"upgrade_stats"})
	require.NoError(t, err)
	assert.Nil(t, payload)
	assert.Equal(t, dispatch.UpgradeStatsInstruction(0, 1, 0, 0), in)
	assert.Equal(t, []byte{0x03, 0x00, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, in.Encode())

	payload, in, err = buildInvocation(&InvokeOptions{}, []string{"start_session"})
	require.NoError(t, err)
	assert.Nil(t, payload)
	assert.Equal(t, dispatch.OpStartSession, in.Op)

	payload, _, err = buildInvocation(&InvokeOptions{Raw: "04"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04}, payload)
}

func TestInvokeHelpText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewInvokeCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Invoke an operation")
	assert.Contains(t, output, "--slot")
	assert.Contains(t, output, "--raw")
}
