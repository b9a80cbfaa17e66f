package features

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// solidPNG encodes a single-color image as PNG bytes
func solidPNG(t *testing.T, c color.Color, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestExtractProducesUnitVector(t *testing.T) {
	vec, err := Extract(solidPNG(t, color.RGBA{R: 200, G: 30, B: 30, A: 255}, 16, 16))
	require.NoError(t, err)
	require.Len(t, vec, VectorSize)

	var sumSquares float64
	for _, v := range vec {
		sumSquares += v * v
	}
	assert.InDelta(t, 1.0, sumSquares, 1e-9)
}

func TestExtractSolidColorFillsOneBin(t *testing.T) {
	vec, err := Extract(solidPNG(t, color.RGBA{R: 255, G: 0, B: 0, A: 255}, 8, 8))
	require.NoError(t, err)

	nonZero := 0
	for _, v := range vec {
		if v != 0 {
			nonZero++
		}
	}
	assert.Equal(t, 1, nonZero)
}

func TestExtractRejectsNonImageData(t *testing.T) {
	_, err := Extract([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	red := solidPNG(t, color.RGBA{R: 255, G: 0, B: 0, A: 255}, 8, 8)
	blue := solidPNG(t, color.RGBA{R: 0, G: 0, B: 255, A: 255}, 8, 8)

	redVec, err := Extract(red)
	require.NoError(t, err)
	blueVec, err := Extract(blue)
	require.NoError(t, err)

	// Identical images match exactly regardless of dimensions
	redVecLarge, err := Extract(solidPNG(t, color.RGBA{R: 255, G: 0, B: 0, A: 255}, 32, 32))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, CosineSimilarity(redVec, redVecLarge), 1e-9)

	// Disjoint color distributions are orthogonal
	assert.InDelta(t, 0.0, CosineSimilarity(redVec, blueVec), 1e-9)
}

func TestCosineSimilarityDegenerateInputs(t *testing.T) {
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.Zero(t, CosineSimilarity([]float64{1, 0}, []float64{1, 0, 0}))
	assert.Zero(t, CosineSimilarity([]float64{0, 0}, []float64{1, 0}))
}

func TestJSONRoundTrip(t *testing.T) {
	vec, err := Extract(solidPNG(t, color.RGBA{R: 10, G: 200, B: 90, A: 255}, 4, 4))
	require.NoError(t, err)

	s, err := ToJSON(vec)
	require.NoError(t, err)

	decoded, err := FromJSON(s)
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)
}

func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON("not json")
	assert.Error(t, err)
}
