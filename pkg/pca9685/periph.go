package pca9685

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	periphpca "periph.io/x/periph/experimental/devices/pca9685"
	"periph.io/x/periph/host"
)

// Periph drives the PCA9685 through periph's device driver, for hosts where the raw
// i2c-dev interface isn't available.
type Periph struct {
	bus    i2c.BusCloser
	dev    *periphpca.Dev
	freqHz float64
}

// NewPeriph opens the named I2C bus ("" for the first one found).
func NewPeriph(busName string, addr uint16, freqHz float64) (Interface, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initialise periph host drivers")
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, errors.Wrapf(err, "open I2C bus %q", busName)
	}
	dev, err := periphpca.NewI2C(bus, addr)
	if err != nil {
		bus.Close()
		return nil, errors.Wrap(err, "open PCA9685")
	}
	return &Periph{
		bus:    bus,
		dev:    dev,
		freqHz: freqHz,
	}, nil
}

func (p *Periph) Configure() error {
	freq := physic.Frequency(p.freqHz * float64(physic.Hertz))
	if err := p.dev.SetPwmFreq(freq); err != nil {
		return errors.Wrap(err, "set PWM frequency")
	}
	log.WithField("freq", freq).Info("PCA9685 configured (periph)")
	return nil
}

func (p *Periph) write(channel int, off uint16) error {
	if err := checkChannel(channel); err != nil {
		return err
	}
	err := p.dev.SetPwm(channel, 0, gpio.Duty(off))
	return errors.Wrapf(err, "set PWM for channel %d", channel)
}

func (p *Periph) SetDutyCycle(channel int, value int) error {
	return p.write(channel, DutyCycleCounts(value))
}

func (p *Periph) SetLevel(channel int, value bool) error {
	return p.write(channel, LevelCounts(value))
}

func (p *Periph) SetAngle(channel int, degrees float64) error {
	return p.write(channel, AngleCounts(degrees, p.freqHz))
}

func (p *Periph) Close() error {
	return p.bus.Close()
}
