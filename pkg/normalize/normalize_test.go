package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noduleprep/internal/models"
)

func volumeWithValue(depth, height, width int, value float64) *models.Volume {
	vol := models.NewVolume(depth, height, width, [3]float64{1, 1, 1})
	for i := range vol.Data {
		vol.Data[i] = value
	}
	return vol
}

func TestApplyWindowMapping(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{name: "water maps into the window", input: 0, want: 1000.0 / 1400.0},
		{name: "lower bound maps to zero", input: -1000, want: 0.0},
		{name: "upper bound maps to one", input: 400, want: 1.0},
		{name: "below window clips to zero", input: -2000, want: 0.0},
		{name: "above window clips to one", input: 1000, want: 1.0},
	}

	n := New(DefaultMinHU, DefaultMaxHU, 2)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol := volumeWithValue(2, 3, 4, tt.input)
			out, err := n.Apply(context.Background(), vol)
			require.NoError(t, err)
			for _, v := range out.Data {
				assert.InDelta(t, tt.want, v, 1e-12)
			}
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	vol := volumeWithValue(2, 2, 2, -5000)
	n := New(DefaultMinHU, DefaultMaxHU, 1)

	out, err := n.Apply(context.Background(), vol)
	require.NoError(t, err)

	assert.NotSame(t, &vol.Data[0], &out.Data[0])
	for _, v := range vol.Data {
		assert.Equal(t, -5000.0, v)
	}
}

func TestApplyPreservesShapeAndSpacing(t *testing.T) {
	vol := models.NewVolume(3, 4, 5, [3]float64{0.7, 0.7, 2.5})
	n := New(DefaultMinHU, DefaultMaxHU, 4)

	out, err := n.Apply(context.Background(), vol)
	require.NoError(t, err)

	assert.Equal(t, vol.Depth, out.Depth)
	assert.Equal(t, vol.Height, out.Height)
	assert.Equal(t, vol.Width, out.Width)
	assert.Equal(t, vol.Spacing, out.Spacing)
}

// Normalizing already-windowed values a second time must reproduce them for
// the window endpoints, since clipping is a no-op inside the window.
func TestApplyIdempotentAtEndpoints(t *testing.T) {
	n := New(0.0, 1.0, 1)

	vol := volumeWithValue(1, 2, 2, 1.0)
	once, err := n.Apply(context.Background(), vol)
	require.NoError(t, err)
	twice, err := n.Apply(context.Background(), once)
	require.NoError(t, err)
	assert.Equal(t, once.Data, twice.Data)
}

func TestApplyParallelMatchesSerial(t *testing.T) {
	vol := models.NewVolume(17, 9, 11, [3]float64{1, 1, 1})
	for i := range vol.Data {
		vol.Data[i] = float64(i%3000) - 1500
	}

	serial, err := New(DefaultMinHU, DefaultMaxHU, 1).Apply(context.Background(), vol)
	require.NoError(t, err)

	for _, workers := range []int{2, 5, 32} {
		parallel, err := New(DefaultMinHU, DefaultMaxHU, workers).Apply(context.Background(), vol)
		require.NoError(t, err)
		assert.Equal(t, serial.Data, parallel.Data, "workers=%d", workers)
	}
}

func TestApplyCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	vol := models.NewVolume(8, 8, 8, [3]float64{1, 1, 1})
	_, err := New(DefaultMinHU, DefaultMaxHU, 2).Apply(ctx, vol)
	assert.ErrorIs(t, err, context.Canceled)
}
