package record

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/paddock/internal/fault"
)

func TestNew_NormalizesName(t *testing.T) {
	decomposed, err := New("Ble\u0301riot", 1, 2, 3)
	require.NoError(t, err)
	composed, err := New("Bl\u00e9riot", 1, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, "Bl\u00e9riot", decomposed.Name)
	assert.Equal(t, composed, decomposed)
	assert.Equal(t, Encode(composed), Encode(decomposed))
}

func TestNew_RejectsInvalidUTF8(t *testing.T) {
	_, err := New(string([]byte{0xc3, 0x28}), 0, 0, 0)
	require.Error(t, err)
	assert.Equal(t, fault.CodeInvalidArgument, fault.CodeOf(err))
}

func TestStats_Projection(t *testing.T) {
	r := Record{Name: "Secretariat", Velocity: 10, Durability: 11, Stability: 12}
	assert.Equal(t, Stats{Name: "Secretariat", Velocity: 10, Durability: 11, Stability: 12}, r.Stats())
}

func TestUpgrade_AddsIncrements(t *testing.T) {
	r := Record{Name: "Secretariat", Velocity: 10, Durability: 10, Stability: 10}

	got, err := r.Upgrade(5, 0, 2)

	require.NoError(t, err)
	assert.Equal(t, Record{Name: "Secretariat", Velocity: 15, Durability: 10, Stability: 12}, got)
	assert.Equal(t, uint32(10), r.Velocity, "receiver must not change")
}

func TestUpgrade_Monotonic(t *testing.T) {
	r := Record{Name: "x", Velocity: 3, Durability: 1000, Stability: math.MaxUint32 - 5}
	increments := [][3]uint32{{0, 0, 0}, {1, 1, 1}, {7, 0, 5}, {math.MaxUint32 - 3, 0, 0}}

	for _, inc := range increments {
		got, err := r.Upgrade(inc[0], inc[1], inc[2])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Velocity, r.Velocity)
		assert.GreaterOrEqual(t, got.Durability, r.Durability)
		assert.GreaterOrEqual(t, got.Stability, r.Stability)
	}
}

func TestUpgrade_Overflow(t *testing.T) {
	r := Record{Name: "x", Velocity: math.MaxUint32, Durability: 1, Stability: math.MaxUint32 - 1}

	tests := []struct {
		name    string
		inc     [3]uint32
		message string
	}{
		{name: "velocity", inc: [3]uint32{1, 0, 0}, message: "velocity"},
		{name: "durability", inc: [3]uint32{0, math.MaxUint32, 0}, message: "durability"},
		{name: "stability", inc: [3]uint32{0, 0, 2}, message: "stability"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Upgrade(tt.inc[0], tt.inc[1], tt.inc[2])
			require.Error(t, err)
			assert.ErrorIs(t, err, fault.ErrOverflow)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestUpgrade_MaxWithoutOverflow(t *testing.T) {
	r := Record{Velocity: math.MaxUint32 - 1}
	got, err := r.Upgrade(1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), got.Velocity)
}
