package rcmode

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tigerbot-team/joyrover/pkg/actuator"
	"github.com/tigerbot-team/joyrover/pkg/config"
	"github.com/tigerbot-team/joyrover/pkg/joystick"
)

// fastSlow recomputes the two wheel magnitudes for a stick position.
func fastSlow(x, y float64) (fast, slow float64) {
	y += 1e-4
	cosTheta := (math.Abs(y) + 1e-5) / (math.Sqrt(y*y+x*x) + 1e-5)
	return 0.2*cosTheta + 0.8, 1.5*cosTheta - 0.5
}

func TestMixDriveDeadZone(t *testing.T) {
	for _, stick := range [][2]float64{
		{0, 0}, {0.09, 0}, {0, -0.09}, {-0.099, 0.099}, {0.05, -0.05},
	} {
		l, r := MixDrive(stick[0], stick[1])
		if l != 0 || r != 0 {
			t.Fatalf("Input of %v should return 0s, not %v, %v", stick, l, r)
		}
	}
}

func TestMixDriveStraight(t *testing.T) {
	// Y+ is stick pulled back: full speed both wheels, backwards.
	l, r := MixDrive(0, 1)
	expectMagnitude(t, "back left", l, -1)
	expectMagnitude(t, "back right", r, -1)

	l, r = MixDrive(0, -1)
	expectMagnitude(t, "forward left", l, 1)
	expectMagnitude(t, "forward right", r, 1)
}

func TestMixDriveFullRight(t *testing.T) {
	l, r := MixDrive(1, 0)
	fast, slow := fastSlow(1, 0)
	if !near(l, -fast) || !near(r, -slow) {
		t.Fatalf("Input of full-right returned %v, %v; expected %v, %v", l, r, -fast, -slow)
	}
	if math.Abs(l+0.80002) > 1e-4 || math.Abs(r-0.49984) > 1e-4 {
		t.Fatalf("Input of full-right returned %v, %v", l, r)
	}
}

func TestMixDriveQuadrants(t *testing.T) {
	for _, test := range []struct {
		name         string
		x, y         float64
		leftFast     bool
		expectedSign float64
	}{
		{"back-left", -0.5, 0.5, false, -1},
		{"back-right", 0.5, 0.5, true, -1},
		{"forward-left", -0.5, -0.5, false, 1},
		{"forward-right", 0.5, -0.5, true, 1},
	} {
		t.Run(test.name, func(t *testing.T) {
			l, r := MixDrive(test.x, test.y)
			fast, slow := fastSlow(test.x, test.y)
			expL, expR := test.expectedSign*slow, test.expectedSign*fast
			if test.leftFast {
				expL, expR = expR, expL
			}
			if !near(l, expL) || !near(r, expR) {
				t.Fatalf("MixDrive(%v, %v) = %v, %v; expected %v, %v", test.x, test.y, l, r, expL, expR)
			}
		})
	}
}

func TestMixDriveInRange(t *testing.T) {
	for i := -20; i <= 20; i++ {
		for j := -20; j <= 20; j++ {
			x, y := float64(i)/20, float64(j)/20
			l, r := MixDrive(x, y)
			if math.Abs(l) > 1 || math.Abs(r) > 1 {
				t.Fatalf("MixDrive(%v, %v) out of range: %v, %v", x, y, l, r)
			}
		}
	}
}

func TestMixCamera(t *testing.T) {
	pan, tilt := MixCamera(0.3, 0.4)
	if pan != 0.3 || tilt != -0.4 {
		t.Fatalf("MixCamera(0.3, 0.4) = %v, %v", pan, tilt)
	}
	pan, tilt = MixCamera(0.01, -0.02)
	if pan != 0.01 || tilt != 0.02 {
		t.Fatalf("MixCamera should not apply a dead zone, got %v, %v", pan, tilt)
	}
}

type fakeInput struct {
	axes    map[int]float64
	buttons map[int]bool
}

func (f *fakeInput) Axis(n int) float64 { return f.axes[n] }
func (f *fakeInput) Button(n int) bool  { return f.buttons[n] }

type fakeDriver struct {
	duty   map[int]int
	levels map[int]bool
	angles map[int]float64
	fail   bool
	calls  int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{duty: map[int]int{}, levels: map[int]bool{}, angles: map[int]float64{}}
}

func (d *fakeDriver) err() error {
	d.calls++
	if d.fail {
		return errors.New("i2c write failed")
	}
	return nil
}

func (d *fakeDriver) SetDutyCycle(channel int, value int) error {
	d.duty[channel] = value
	return d.err()
}

func (d *fakeDriver) SetLevel(channel int, value bool) error {
	d.levels[channel] = value
	return d.err()
}

func (d *fakeDriver) SetAngle(channel int, degrees float64) error {
	d.angles[channel] = degrees
	return d.err()
}

func TestTick(t *testing.T) {
	cfg := config.Default()
	input := &fakeInput{axes: map[int]float64{
		joystick.AxisLStickY: -1,
		joystick.AxisRStickX: 0.3,
		joystick.AxisRStickY: -0.4,
	}}
	d := newFakeDriver()
	m := New(input, actuator.New(d), cfg)

	if err := m.tick(); err != nil {
		t.Fatal(err)
	}

	for _, w := range []config.Wheel{cfg.Wheels.Left, cfg.Wheels.Right} {
		if d.duty[w.Duty] != 99 || !d.levels[w.Forward] || d.levels[w.Backward] {
			t.Fatalf("Expected %+v full forward, got duty=%v fwd=%v back=%v",
				w, d.duty[w.Duty], d.levels[w.Forward], d.levels[w.Backward])
		}
	}
	// First move from centre is blended halfway.
	expectMagnitude(t, "pan", d.angles[cfg.Servos.Pan], 99)
	expectMagnitude(t, "tilt", d.angles[cfg.Servos.Tilt], 102)
}

func TestTickUsesConfiguredAxes(t *testing.T) {
	cfg := config.Default()
	cfg.Joystick.Axes = config.Axes{DriveX: 3, DriveY: 4, CameraX: 0, CameraY: 1}
	input := &fakeInput{axes: map[int]float64{4: -1, 1: -0.04}}
	d := newFakeDriver()

	if err := New(input, actuator.New(d), cfg).tick(); err != nil {
		t.Fatal(err)
	}
	if d.duty[cfg.Wheels.Left.Duty] != 99 || d.duty[cfg.Wheels.Right.Duty] != 99 {
		t.Fatalf("Expected drive from the right stick, got %v", d.duty)
	}
	expectMagnitude(t, "pan", d.angles[cfg.Servos.Pan], 90)
	expectMagnitude(t, "tilt", d.angles[cfg.Servos.Tilt], 90)
}

func TestTickKeepsGoingAfterDriverError(t *testing.T) {
	d := newFakeDriver()
	d.fail = true
	m := New(&fakeInput{}, actuator.New(d), config.Default())

	if err := m.tick(); err == nil {
		t.Fatal("Expected the driver error to be reported")
	}
	// One failed level write per wheel plus one write per servo.
	if d.calls != 4 {
		t.Fatalf("Expected 4 driver calls, got %d", d.calls)
	}
}

func TestStartStopZeroesWheels(t *testing.T) {
	cfg := config.Default()
	cfg.Interval = time.Millisecond
	input := &fakeInput{axes: map[int]float64{joystick.AxisLStickY: -1}}
	d := newFakeDriver()
	m := New(input, actuator.New(d), cfg)

	m.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	m.Stop()

	for _, w := range []config.Wheel{cfg.Wheels.Left, cfg.Wheels.Right} {
		if d.duty[w.Duty] != 0 || d.levels[w.Forward] || d.levels[w.Backward] {
			t.Fatalf("Expected %+v stopped after Stop()", w)
		}
	}
	if _, ok := d.angles[cfg.Servos.Pan]; !ok {
		t.Fatal("Expected at least one tick before Stop()")
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func expectMagnitude(t *testing.T, what string, actual, expected float64) {
	t.Helper()
	if math.Abs(actual-expected) > 1e-9 {
		t.Errorf("%s: expected %v, got %v", what, expected, actual)
	}
}
