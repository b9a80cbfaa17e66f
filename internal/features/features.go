// Package features computes compact color descriptors for uploaded images
// and ranks them by cosine similarity. Descriptors are normalized RGB
// histograms, so two vectors compare meaningfully regardless of image size.
package features

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"math"

	// Image decoders registered for image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// BinsPerChannel controls histogram resolution. 8 bins per RGB channel
// yields a 512-dimension descriptor.
const BinsPerChannel = 8

// VectorSize is the descriptor dimension
const VectorSize = BinsPerChannel * BinsPerChannel * BinsPerChannel

// Extract decodes an image and computes its normalized color histogram
func Extract(data []byte) ([]float64, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	vec := make([]float64, VectorSize)
	bounds := img.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels; bucket into BinsPerChannel bins each
			rb := bin(r)
			gb := bin(g)
			bb := bin(b)
			vec[rb*BinsPerChannel*BinsPerChannel+gb*BinsPerChannel+bb]++
		}
	}

	normalize(vec)
	return vec, nil
}

func bin(channel uint32) int {
	b := int(channel) * BinsPerChannel / 65536
	if b >= BinsPerChannel {
		b = BinsPerChannel - 1
	}
	return b
}

// normalize scales a vector to unit length in place. A zero vector is left
// untouched so similarity against it is defined (and zero).
func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

// CosineSimilarity returns the cosine of the angle between two descriptors.
// Vectors of mismatched length score zero.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// ToJSON serializes a descriptor for storage
func ToJSON(vec []float64) (string, error) {
	data, err := json.Marshal(vec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal feature vector: %w", err)
	}
	return string(data), nil
}

// FromJSON deserializes a stored descriptor
func FromJSON(s string) ([]float64, error) {
	var vec []float64
	if err := json.Unmarshal([]byte(s), &vec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feature vector: %w", err)
	}
	return vec, nil
}
