package actuator

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
)

const (
	// Wheel magnitudes below this are sent as a stop.
	WheelDeadZone = 0.1
	MaxDutyCycle  = 99

	// Servo targets below this snap to centre.
	ServoDeadZone = 0.05
	// Jumps larger than this are blended with the previous angle instead of passed through.
	ServoJumpThreshold = 0.1
	EMAAlpha           = 0.5

	// Usable mechanical range either side of centre, in degrees.
	MaxAngle = 60
)

// Driver is the subset of the PWM driver that the actuator needs.
type Driver interface {
	SetDutyCycle(channel int, value int) error
	SetLevel(channel int, value bool) error
	SetAngle(channel int, degrees float64) error
}

type WheelChannels struct {
	Duty     int
	Forward  int
	Backward int
}

type WheelCommand struct {
	Duty     int
	Forward  bool
	Backward bool
}

func (c WheelCommand) String() string {
	switch {
	case c.Forward:
		return fmt.Sprintf("fwd(%d)", c.Duty)
	case c.Backward:
		return fmt.Sprintf("back(%d)", c.Duty)
	default:
		return "stop"
	}
}

// Actuator turns motor magnitudes and servo targets into driver calls.  It keeps one
// smoothed angle per servo channel; it is not safe for concurrent use.
type Actuator struct {
	driver   Driver
	smoothed map[int]float64
}

func New(driver Driver) *Actuator {
	return &Actuator{
		driver:   driver,
		smoothed: map[int]float64{},
	}
}

// QuantizeWheel converts a magnitude in [-1, 1] into direction flags and an integer duty cycle.
func QuantizeWheel(magnitude float64) WheelCommand {
	if magnitude < -1 || magnitude > 1 {
		panic(fmt.Sprintf("wheel magnitude out of range: %v", magnitude))
	}
	if math.Abs(magnitude) < WheelDeadZone {
		magnitude = 0
	}
	return WheelCommand{
		Duty:     int(math.Abs(magnitude) * MaxDutyCycle),
		Forward:  magnitude > 0,
		Backward: magnitude < 0,
	}
}

// DriveWheel sends one wheel command.  The direction being switched off is always written
// before the one being switched on, then the duty cycle.
func (a *Actuator) DriveWheel(ch WheelChannels, magnitude float64) (WheelCommand, error) {
	cmd := QuantizeWheel(magnitude)

	first, second := ch.Backward, ch.Forward
	firstVal, secondVal := cmd.Backward, cmd.Forward
	if cmd.Backward {
		first, second = ch.Forward, ch.Backward
		firstVal, secondVal = cmd.Forward, cmd.Backward
	}

	if err := a.driver.SetLevel(first, firstVal); err != nil {
		return cmd, err
	}
	if err := a.driver.SetLevel(second, secondVal); err != nil {
		return cmd, err
	}
	if err := a.driver.SetDutyCycle(ch.Duty, cmd.Duty); err != nil {
		return cmd, err
	}
	return cmd, nil
}

// ServoDegrees maps a normalized angle onto the 0-180 degree servo sweep, limited to
// +/-MaxAngle about 90.
func ServoDegrees(normalized float64) float64 {
	return (normalized*0.5*MaxAngle/90 + 0.5) * 180
}

// DriveServo smooths the target for the channel and sends the resulting angle.  It returns
// the angle in degrees.
func (a *Actuator) DriveServo(channel int, target float64) (float64, error) {
	if target < -1 || target > 1 {
		panic(fmt.Sprintf("servo %d target out of range: %v", channel, target))
	}

	if math.Abs(target) < ServoDeadZone {
		target = 0
	}

	prev, seen := a.smoothed[channel]
	if !seen {
		// Servos start centred.
		prev = 0
	}
	smoothed := target
	if math.Abs(prev-target) > ServoJumpThreshold {
		smoothed = prev*EMAAlpha + target*(1-EMAAlpha)
	}
	a.smoothed[channel] = smoothed

	degrees := ServoDegrees(smoothed)
	log.WithFields(log.Fields{
		"channel": channel,
		"target":  target,
		"angle":   smoothed,
	}).Debugf("Servo -> %.1f deg", degrees)
	return degrees, a.driver.SetAngle(channel, degrees)
}

// Smoothed returns the persisted angle for the channel and whether it has been commanded yet.
func (a *Actuator) Smoothed(channel int) (float64, bool) {
	v, ok := a.smoothed[channel]
	return v, ok
}
