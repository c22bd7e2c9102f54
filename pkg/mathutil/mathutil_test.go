package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolate(t *testing.T) {
	xs := []float64{0, 100, 300}
	ys := []float64{0, 10, 30}

	tests := []struct {
		name        string
		x           float64
		want        float64
		extrapolate bool
	}{
		{"below range", -10, 0, true},
		{"first knot", 0, 0, false},
		{"inside first segment", 50, 5, false},
		{"on knot", 100, 10, false},
		{"inside second segment", 200, 20, false},
		{"last knot", 300, 30, false},
		{"beyond range", 500, 30, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, extrapolated := Interpolate(tt.x, xs, ys)
			assert.InDelta(t, tt.want, y, 1e-9)
			assert.Equal(t, tt.extrapolate, extrapolated)
		})
	}
}

func TestInterpolate_EmptyKnots(t *testing.T) {
	y, extrapolated := Interpolate(1, nil, nil)
	assert.True(t, math.IsNaN(y))
	assert.True(t, extrapolated)
}

func TestInterpolateAt(t *testing.T) {
	got := InterpolateAt([]float64{25, 75}, []float64{0, 100}, []float64{0, 1})
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, got, 1e-9)
	assert.Nil(t, InterpolateAt(nil, []float64{0}, []float64{0}))
}

func TestMultiplyDivide(t *testing.T) {
	a := []float64{2, 4, 6}
	b := []float64{1, 2}

	assert.Equal(t, []float64{2, 8}, Multiply(a, b))
	assert.Equal(t, []float64{2, 2}, Divide(a, b))
	assert.Nil(t, Multiply(nil, b))
	assert.Nil(t, Divide(a, nil))
	assert.Equal(t, []float64{1, 2, 3}, Scale(a, 0.5))
	assert.Equal(t, []float64{2, 4, 6}, a, "inputs must not be modified")
}

func TestCumThicknessAndMidPoints(t *testing.T) {
	th := []float64{100, 200, 300}
	assert.Equal(t, []float64{100, 300, 600}, CumThickness(th))
	assert.Equal(t, []float64{50, 200, 450}, MidPoints(th))
	assert.Nil(t, CumThickness(nil))
	assert.Equal(t, []float64{}, CumThickness([]float64{}))
}

func TestAreEqual(t *testing.T) {
	assert.True(t, AreEqual(nil, nil))
	assert.False(t, AreEqual(nil, []float64{}))
	assert.True(t, AreEqual([]float64{1, 2}, []float64{1, 2 + 1e-9}))
	assert.False(t, AreEqual([]float64{1, 2}, []float64{1, 2.1}))
	assert.False(t, AreEqual([]float64{1, 2}, []float64{1, 2, 3}))
}

func TestMissingValueHelpers(t *testing.T) {
	nan := math.NaN()
	values := []float64{1, nan, 3, nan, nan}

	assert.Equal(t, 3.0, LastValue(values))
	assert.True(t, math.IsNaN(LastValue([]float64{nan})))
	assert.True(t, math.IsNaN(LastValue(nil)))

	trimmed := RemoveMissingFromBottom(values)
	assert.Len(t, trimmed, 3)
	assert.Equal(t, 3.0, trimmed[2])
	assert.Nil(t, RemoveMissingFromBottom(nil))

	assert.True(t, HasValues(values))
	assert.False(t, HasValues([]float64{nan, nan}))
	assert.True(t, HasMissing(values))
	assert.False(t, HasMissing([]float64{1}))

	assert.Equal(t, []float64{1, 0, 3, 0, 0}, ReplaceMissing(values, 0))
	assert.Equal(t, []float64{1, 9, 3, 9}, ReplaceMissingFrom([]float64{1, nan, 3, nan}, []float64{9, 9, 9, 9}))
}

func TestFixLength(t *testing.T) {
	padded := FixLength([]float64{1, 2}, 4)
	assert.Len(t, padded, 4)
	assert.Equal(t, 2.0, padded[1])
	assert.True(t, math.IsNaN(padded[3]))

	assert.Equal(t, []float64{1}, FixLength([]float64{1, 2}, 1))
	assert.Nil(t, FixLength(nil, 3))
}

func TestConstrain(t *testing.T) {
	got := Constrain([]float64{0.05, 0.2, 0.5}, []float64{0.1, 0.1, 0.1}, []float64{0.4, 0.4, 0.4})
	assert.Equal(t, []float64{0.1, 0.2, 0.4}, got)

	got = Constrain([]float64{0.05, 0.5}, nil, []float64{0.4, math.NaN()})
	assert.Equal(t, []float64{0.05, 0.5}, got)
}

func TestIndexOfFold(t *testing.T) {
	names := []string{"Wheat", "Sorghum"}
	assert.Equal(t, 1, IndexOfFold(names, "sorghum"))
	assert.Equal(t, -1, IndexOfFold(names, "barley"))
}

func TestFill(t *testing.T) {
	assert.Equal(t, []float64{7, 7, 7}, Fill(3, 7))
}
