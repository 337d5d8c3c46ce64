// Package similarity provides the vector math shared by chunk index adapters:
// exact cosine scoring, 8-bit quantization for the candidate prefilter, and
// deterministic ranking.
package similarity

import (
	"cmp"
	"math"
	"slices"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

// Cosine returns the cosine similarity of two equal-length vectors.
// Zero vectors score 0.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Quantized is a unit-normalised vector stored as int8 with one scale factor.
type Quantized struct {
	Values []int8
	Scale  float32
}

// Quantize normalises v and maps it onto int8.
func Quantize(v []float32) Quantized {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	q := Quantized{Values: make([]int8, len(v))}
	if norm == 0 {
		return q
	}
	norm = math.Sqrt(norm)

	var maxAbs float64
	for _, x := range v {
		maxAbs = math.Max(maxAbs, math.Abs(float64(x)/norm))
	}
	if maxAbs == 0 {
		return q
	}
	q.Scale = float32(maxAbs / 127)
	for i, x := range v {
		q.Values[i] = int8(math.Round(float64(x) / norm / float64(q.Scale)))
	}
	return q
}

// Bytes returns the int8 values as a byte slice for storage.
func (q Quantized) Bytes() []byte {
	b := make([]byte, len(q.Values))
	for i, v := range q.Values {
		b[i] = byte(v)
	}
	return b
}

// QuantizedFromBytes restores a vector written by Bytes.
func QuantizedFromBytes(b []byte, scale float32) Quantized {
	q := Quantized{Values: make([]int8, len(b)), Scale: scale}
	for i, v := range b {
		q.Values[i] = int8(v)
	}
	return q
}

// ApproxCosine estimates the cosine similarity of two quantized vectors.
func ApproxCosine(a, b Quantized) float64 {
	var dot int64
	for i := range a.Values {
		dot += int64(a.Values[i]) * int64(b.Values[i])
	}
	return float64(dot) * float64(a.Scale) * float64(b.Scale)
}

// Sort orders results by descending score. Ties are broken by document name,
// then position, then ID, so identical queries rank identically.
func Sort(results []domain.ScoredChunk) {
	slices.SortStableFunc(results, func(a, b domain.ScoredChunk) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Chunk.DocumentName, b.Chunk.DocumentName); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Chunk.Position, b.Chunk.Position); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.ID, b.Chunk.ID)
	})
}

// Top sorts results and keeps at most k.
func Top(results []domain.ScoredChunk, k int) []domain.ScoredChunk {
	Sort(results)
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}
