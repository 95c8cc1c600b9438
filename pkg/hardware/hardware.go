package hardware

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tigerbot-team/joyrover/pkg/config"
	"github.com/tigerbot-team/joyrover/pkg/pca9685"
	"github.com/tigerbot-team/joyrover/pkg/screen"
	"github.com/tigerbot-team/joyrover/pkg/sound"
)

// Hardware owns the PWM driver and the optional screen and speaker.
type Hardware struct {
	PWM pca9685.Interface

	screenDevice string
	screenDone   sync.WaitGroup
	sounds       *sound.Player
}

// OpenPWM opens and configures the PWM backend named in the config.
func OpenPWM(cfg config.PWM) (pca9685.Interface, error) {
	var pwm pca9685.Interface
	var err error
	switch cfg.Backend {
	case config.BackendI2CDev:
		pwm, err = pca9685.New(cfg.Device, int(cfg.Address), cfg.FrequencyHz)
	case config.BackendPeriph:
		pwm, err = pca9685.NewPeriph(periphBusName(cfg.Device), cfg.Address, cfg.FrequencyHz)
	case config.BackendDummy:
		pwm = pca9685.Dummy(cfg.FrequencyHz)
	default:
		return nil, errors.Errorf("unknown PWM backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := pwm.Configure(); err != nil {
		pwm.Close()
		return nil, errors.Wrap(err, "configure PCA9685")
	}
	log.WithField("backend", cfg.Backend).Info("PWM driver ready")
	return pwm, nil
}

// periphBusName converts an i2c-dev path into the bus number periph registers it under;
// anything else is passed through as a periph bus name.
func periphBusName(device string) string {
	const prefix = "/dev/i2c-"
	if strings.HasPrefix(device, prefix) {
		return strings.TrimPrefix(device, prefix)
	}
	return device
}

func New(cfg *config.Config) (*Hardware, error) {
	pwm, err := OpenPWM(cfg.PWM)
	if err != nil {
		return nil, err
	}
	h := &Hardware{
		PWM:          pwm,
		screenDevice: cfg.ScreenDevice,
	}
	if cfg.Sounds.Start != "" || cfg.Sounds.Stop != "" {
		h.sounds = sound.NewPlayer()
	}
	return h, nil
}

func (h *Hardware) Start(ctx context.Context) {
	if h.screenDevice == "" {
		return
	}
	h.screenDone.Add(1)
	go func() {
		defer h.screenDone.Done()
		screen.LoopUpdatingScreen(ctx, h.screenDevice)
	}()
}

func (h *Hardware) PlaySound(path string) {
	if h.sounds == nil {
		return
	}
	h.sounds.Play(path)
}

// Shutdown waits for the screen to blank (its context must already be cancelled) and
// releases the devices.
func (h *Hardware) Shutdown() {
	h.screenDone.Wait()
	if h.sounds != nil {
		h.sounds.Close()
	}
	if err := h.PWM.Close(); err != nil {
		log.WithError(err).Warn("Failed to close PWM driver")
	}
}
