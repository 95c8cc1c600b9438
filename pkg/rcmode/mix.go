package rcmode

import (
	"math"

	"github.com/quartercastle/vector"
	log "github.com/sirupsen/logrus"
)

const (
	StickDeadZone = 0.1

	// The Y axis of the stick sits slightly off zero at rest.
	stickYBias = 1e-4
	epsilon    = 1e-5
)

type quadrant struct {
	xNonNegative, yNonNegative bool
}

// wheelMix picks, for one quadrant, which of the fast/slow magnitudes goes to each wheel
// and with what sign.
type wheelMix struct {
	leftFast, rightFast bool
	sign                float64
}

// Stick Y is positive when pulled back, so the upper quadrants drive backwards.
var quadrantMixes = map[quadrant]wheelMix{
	{xNonNegative: false, yNonNegative: true}:  {leftFast: false, rightFast: true, sign: -1},
	{xNonNegative: true, yNonNegative: true}:   {leftFast: true, rightFast: false, sign: -1},
	{xNonNegative: false, yNonNegative: false}: {leftFast: false, rightFast: true, sign: 1},
	{xNonNegative: true, yNonNegative: false}:  {leftFast: true, rightFast: false, sign: 1},
}

// MixDrive maps one stick onto left/right differential-drive magnitudes in [-1, 1].
//
// With the stick straight along Y both wheels run at full speed.  As the stick moves towards
// X the outer wheel slows to 0.8 and the inner wheel slows, then reverses, down to -0.5, so a
// pure sideways push spins the rover on the spot.
func MixDrive(axisX, axisY float64) (left, right float64) {
	if math.Abs(axisX) < StickDeadZone && math.Abs(axisY) < StickDeadZone {
		return 0, 0
	}

	axisY += stickYBias

	stick := vector.Vector{axisY, axisX}
	cosTheta := (math.Abs(axisY) + epsilon) / (stick.Magnitude() + epsilon)
	fast := 0.2*cosTheta + 0.8
	slow := 1.5*cosTheta - 0.5

	mix := quadrantMixes[quadrant{xNonNegative: axisX >= 0, yNonNegative: axisY >= 0}]
	pick := func(isFast bool) float64 {
		if isFast {
			return mix.sign * fast
		}
		return mix.sign * slow
	}
	left, right = pick(mix.leftFast), pick(mix.rightFast)

	log.WithFields(log.Fields{"x": axisX, "y": axisY}).Debugf("Drive mix: left=%.3f right=%.3f", left, right)
	return
}

// MixCamera maps a stick onto normalized pan and tilt.  Tilt is inverted so that pushing
// the stick up tilts the camera up.
func MixCamera(axisX, axisY float64) (pan, tilt float64) {
	return axisX, -axisY
}
