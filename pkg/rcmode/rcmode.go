package rcmode

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tigerbot-team/joyrover/pkg/actuator"
	"github.com/tigerbot-team/joyrover/pkg/config"
	"github.com/tigerbot-team/joyrover/pkg/screen"
)

// Input is polled once per tick.
type Input interface {
	Axis(n int) float64
	Button(n int) bool
}

type RCMode struct {
	input    Input
	actuator *actuator.Actuator
	interval time.Duration

	axes                  config.Axes
	auxButton             int
	leftWheel, rightWheel actuator.WheelChannels
	panServo, tiltServo   int

	cancel context.CancelFunc
	stopWG sync.WaitGroup
}

func New(input Input, act *actuator.Actuator, cfg *config.Config) *RCMode {
	return &RCMode{
		input:      input,
		actuator:   act,
		interval:   cfg.Interval,
		axes:       cfg.Joystick.Axes,
		auxButton:  cfg.Joystick.Button,
		leftWheel:  WheelChannels(cfg.Wheels.Left),
		rightWheel: WheelChannels(cfg.Wheels.Right),
		panServo:   cfg.Servos.Pan,
		tiltServo:  cfg.Servos.Tilt,
	}
}

// WheelChannels maps a configured wheel onto actuator channels.
func WheelChannels(w config.Wheel) actuator.WheelChannels {
	return actuator.WheelChannels{Duty: w.Duty, Forward: w.Forward, Backward: w.Backward}
}

func (m *RCMode) Name() string {
	return "RC mode"
}

func (m *RCMode) Start(ctx context.Context) {
	m.stopWG.Add(1)
	var loopCtx context.Context
	loopCtx, m.cancel = context.WithCancel(ctx)
	go m.loop(loopCtx)
}

func (m *RCMode) Stop() {
	m.cancel()
	m.stopWG.Wait()
}

func (m *RCMode) loop(ctx context.Context) {
	defer m.stopWG.Done()
	defer m.stopWheels()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.tick(); err != nil {
				log.WithError(err).Error("Failed to update actuators")
			}
		}
	}
}

// tick runs one poll-map-actuate pass.  Each actuator is updated even if an earlier one
// failed; the first error is returned.
func (m *RCMode) tick() error {
	var firstErr error
	noteErr := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	driveX := m.input.Axis(m.axes.DriveX)
	driveY := m.input.Axis(m.axes.DriveY)
	camX := m.input.Axis(m.axes.CameraX)
	camY := m.input.Axis(m.axes.CameraY)
	if m.input.Button(m.auxButton) {
		log.Debug("Aux button held")
	}

	magL, magR := MixDrive(driveX, driveY)
	cmdL, err := m.actuator.DriveWheel(m.leftWheel, magL)
	noteErr(err)
	cmdR, err := m.actuator.DriveWheel(m.rightWheel, magR)
	noteErr(err)

	pan, tilt := MixCamera(camX, camY)
	panDeg, err := m.actuator.DriveServo(m.panServo, pan)
	noteErr(err)
	tiltDeg, err := m.actuator.DriveServo(m.tiltServo, tilt)
	noteErr(err)

	log.Debugf("Wheels L=%v R=%v, camera pan=%.1f tilt=%.1f", cmdL, cmdR, panDeg, tiltDeg)
	screen.SetStatus(screen.Status{
		Left:    cmdL,
		Right:   cmdR,
		PanDeg:  panDeg,
		TiltDeg: tiltDeg,
	})
	return firstErr
}

func (m *RCMode) stopWheels() {
	log.Info("Stopping wheels")
	if _, err := m.actuator.DriveWheel(m.leftWheel, 0); err != nil {
		log.WithError(err).Error("Failed to stop left wheel")
	}
	if _, err := m.actuator.DriveWheel(m.rightWheel, 0); err != nil {
		log.WithError(err).Error("Failed to stop right wheel")
	}
}
