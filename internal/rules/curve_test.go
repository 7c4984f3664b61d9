package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVelocityCurveFixed(t *testing.T) {
	c := VelocityCurve{Type: VelocityFixed, Value: 100}
	assert.Equal(t, uint8(100), c.Apply(1))
	assert.Equal(t, uint8(100), c.Apply(127))
}

func TestVelocityCurvePassThrough(t *testing.T) {
	c := VelocityCurve{Type: VelocityPassThrough}
	assert.Equal(t, uint8(0), c.Apply(0))
	assert.Equal(t, uint8(127), c.Apply(127))
}

func TestVelocityCurveLinear(t *testing.T) {
	c := VelocityCurve{Type: VelocityLinear, Min: 40, Max: 100}
	assert.Equal(t, uint8(40), c.Apply(0))
	assert.Equal(t, uint8(100), c.Apply(127))
}

// TestVelocityCurveExponentialWorkedExample matches the spec's worked
// example: Exponential curve, intensity 0.5, input velocity 32 -> 64.
func TestVelocityCurveExponentialWorkedExample(t *testing.T) {
	c := VelocityCurve{Type: VelocityCurveType, Kind: CurveExponential, Intensity: 0.5}
	assert.Equal(t, uint8(64), c.Apply(32))
}

func TestVelocityCurveLogarithmicDegradesToLinearAtZeroIntensity(t *testing.T) {
	c := VelocityCurve{Type: VelocityCurveType, Kind: CurveLogarithmic, Intensity: 0}
	assert.Equal(t, uint8(0), c.Apply(0))
	assert.Equal(t, uint8(127), c.Apply(127))
}

func TestVelocityCurveSCurveEndpoints(t *testing.T) {
	c := VelocityCurve{Type: VelocityCurveType, Kind: CurveSCurve, Intensity: 0.5}
	assert.Equal(t, uint8(0), c.Apply(0))
	assert.Equal(t, uint8(127), c.Apply(127))
}

func TestVelocityCurveClampsOutOfRange(t *testing.T) {
	c := VelocityCurve{Type: VelocityFixed, Value: 500}
	assert.Equal(t, uint8(127), c.Apply(1))

	c = VelocityCurve{Type: VelocityFixed, Value: -10}
	assert.Equal(t, uint8(0), c.Apply(1))
}
