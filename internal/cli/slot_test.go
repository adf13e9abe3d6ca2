package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotNew_DefaultCapacity(t *testing.T) {
	out, err := runCLI(t, testDB(t), "--format", "json", "slot", "new")
	require.NoError(t, err)

	var summary SlotSummary
	decodeData(t, out, &summary)
	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, 64, summary.Capacity)
	assert.Equal(t, "rw", summary.Perm)
	assert.Equal(t, SlotStateEmpty, summary.State)
}

func TestSlotNew_InvalidCapacity(t *testing.T) {
	out, err := runCLI(t, testDB(t), "slot", "new", "--capacity=-4")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [INVALID_ARGUMENT]")
}

func TestSlotNew_Fit(t *testing.T) {
	db := testDB(t)
	long := strings.Repeat("n", 60)

	out, err := runCLI(t, db, "--format", "json", "slot", "new", "--fit", long)
	require.NoError(t, err)
	var summary SlotSummary
	decodeData(t, out, &summary)
	assert.Equal(t, 77, summary.Capacity)

	out, err = runCLI(t, db, "--format", "json", "slot", "new", "--fit", "Bo")
	require.NoError(t, err)
	decodeData(t, out, &summary)
	assert.Equal(t, 64, summary.Capacity)

	// NFC expands U+0958 to 6 bytes, so 20 bytes cannot hold it.
	out, err = runCLI(t, db, "slot", "new", "--capacity", "20", "--fit", "\u0958")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [CAPACITY_EXCEEDED]")

	id := newSlot(t, db, "--capacity", "23", "--fit", "\u0958")
	_, err = runCLI(t, db, "invoke", "create", "--slot", id, "--name", "\u0958")
	require.NoError(t, err)
}

func TestSlotList(t *testing.T) {
	db := testDB(t)

	out, err := runCLI(t, db, "slot", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No slots.")

	horse := newSlot(t, db, "--capacity", "32")
	ro := newSlot(t, db, "--capacity", "24", "--read-only")
	_, err = runCLI(t, db, "invoke", "create", "--slot", horse, "--name", "Bo", "--velocity", "1")
	require.NoError(t, err)

	out, err = runCLI(t, db, "--format", "json", "slot", "list")
	require.NoError(t, err)

	var summaries []SlotSummary
	decodeData(t, out, &summaries)
	require.Len(t, summaries, 2)
	assert.Equal(t, SlotSummary{ID: summaries[0].ID, Capacity: 32, Perm: "rw", State: SlotStateRecord, Name: "Bo"}, summaries[0])
	assert.Equal(t, horse, string(summaries[0].ID))
	assert.Equal(t, SlotSummary{ID: summaries[1].ID, Capacity: 24, Perm: "r", State: SlotStateEmpty}, summaries[1])
	assert.Equal(t, ro, string(summaries[1].ID))

	out, err = runCLI(t, db, "slot", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `record  "Bo"`)
	assert.Contains(t, lines[1], "empty")
}
