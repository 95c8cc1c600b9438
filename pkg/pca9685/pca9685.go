package pca9685

import (
	"math"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x40

	RegMode1 = 0x00
	RegMode2 = 0x01

	// Each PWM output has two 16-bit (low byte first) registers.
	// First register is the on time, second is the off time.
	RegLEDBase = 0x06

	RegPreScale = 0xfe // Pre-scaler for PWM frequency.
	RegTestMode = 0xff

	Mode1Sleep   = 0x10
	Mode1AllCall = 0x01
	Mode1AutoInc = 0x20
	Mode1Restart = 0x80

	NumChannels = 16

	OscillatorHz = 25000000
	PWMSteps     = 4096
	PWMMax       = PWMSteps - 1

	ServoMinPulseDuration = 500 * time.Microsecond
	ServoMaxPulseDuration = 2500 * time.Microsecond
	ServoMaxDegrees       = 180

	MaxDutyCycle = 99
)

// Interface is the PWM driver used by the rest of the controller.  Channels are 0-15.
type Interface interface {
	Configure() error
	// SetDutyCycle sets the on fraction of the channel in percent, 0-99.
	SetDutyCycle(channel int, value int) error
	// SetLevel drives the channel fully on or fully off, for use as a digital output.
	SetLevel(channel int, value bool) error
	// SetAngle positions a servo on the channel, 0-180 degrees.
	SetAngle(channel int, degrees float64) error
	Close() error
}

// PreScale returns the prescaler register value for the requested output frequency.
func PreScale(freqHz float64) byte {
	v := math.Round(OscillatorHz/(PWMSteps*freqHz)) - 1
	return byte(math.Max(3, math.Min(255, v)))
}

func DutyCycleCounts(value int) uint16 {
	if value < 0 {
		value = 0
	} else if value > MaxDutyCycle {
		value = MaxDutyCycle
	}
	return uint16(value * PWMSteps / 100)
}

func LevelCounts(value bool) uint16 {
	if value {
		return PWMMax
	}
	return 0
}

// AngleCounts converts a servo angle into off-counts for the given carrier frequency.
func AngleCounts(degrees, freqHz float64) uint16 {
	degrees = math.Max(0, math.Min(ServoMaxDegrees, degrees))
	pulse := ServoMinPulseDuration + time.Duration(degrees/ServoMaxDegrees*float64(ServoMaxPulseDuration-ServoMinPulseDuration))
	period := time.Duration(float64(time.Second) / freqHz)
	return uint16(float64(PWMSteps) * float64(pulse) / float64(period))
}

func checkChannel(channel int) error {
	if channel < 0 || channel >= NumChannels {
		return errors.Errorf("channel %d out of range", channel)
	}
	return nil
}

type PCA9685 struct {
	dev    *i2c.Device
	freqHz float64
}

func New(deviceFile string, addr int, freqHz float64) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "open PCA9685 on %s", deviceFile)
	}
	return &PCA9685{
		dev:    dev,
		freqHz: freqHz,
	}, nil
}

func (p *PCA9685) Configure() (err error) {
	// Put device to sleep.
	err = p.dev.WriteReg(RegMode1, []byte{Mode1Sleep | Mode1AllCall})
	if err != nil {
		return errors.Wrap(err, "sleep")
	}
	// The prescaler can only be written while asleep.
	err = p.dev.WriteReg(RegPreScale, []byte{PreScale(p.freqHz)})
	if err != nil {
		return errors.Wrap(err, "write prescaler")
	}
	// Trigger a reset
	err = p.dev.WriteReg(RegMode1, []byte{Mode1AllCall})
	if err != nil {
		return errors.Wrap(err, "wake")
	}
	// Required delay after reset.
	time.Sleep(1 * time.Millisecond)
	// Enable.
	err = p.dev.WriteReg(RegMode1, []byte{Mode1Restart | Mode1AutoInc | Mode1AllCall})
	if err != nil {
		return errors.Wrap(err, "enable")
	}
	log.WithField("freqHz", p.freqHz).Info("PCA9685 configured")
	return nil
}

func (p *PCA9685) write(channel int, off uint16) error {
	if err := checkChannel(channel); err != nil {
		return err
	}
	addr := RegLEDBase + channel*4
	err := p.dev.WriteReg(byte(addr), []byte{0, 0, byte(off & 0xff), byte(off >> 8)})
	return errors.Wrapf(err, "write LED registers for channel %d", channel)
}

func (p *PCA9685) SetDutyCycle(channel int, value int) error {
	return p.write(channel, DutyCycleCounts(value))
}

func (p *PCA9685) SetLevel(channel int, value bool) error {
	return p.write(channel, LevelCounts(value))
}

func (p *PCA9685) SetAngle(channel int, degrees float64) error {
	return p.write(channel, AngleCounts(degrees, p.freqHz))
}

func (p *PCA9685) Close() error {
	return p.dev.Close()
}

func Dummy(freqHz float64) Interface {
	return &dummyPWM{freqHz: freqHz}
}

type dummyPWM struct {
	freqHz float64
}

func (d *dummyPWM) Configure() error {
	log.WithField("freqHz", d.freqHz).Info("Dummy PWM: configure")
	return nil
}

func (d *dummyPWM) SetDutyCycle(channel int, value int) error {
	log.Debugf("Dummy PWM: channel=%d duty=%d counts=%d", channel, value, DutyCycleCounts(value))
	return checkChannel(channel)
}

func (d *dummyPWM) SetLevel(channel int, value bool) error {
	log.Debugf("Dummy PWM: channel=%d level=%v", channel, value)
	return checkChannel(channel)
}

func (d *dummyPWM) SetAngle(channel int, degrees float64) error {
	log.Debugf("Dummy PWM: channel=%d angle=%.1f counts=%d", channel, degrees, AngleCounts(degrees, d.freqHz))
	return checkChannel(channel)
}

func (d *dummyPWM) Close() error {
	return nil
}
