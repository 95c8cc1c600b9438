package config

import (
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

const (
	BackendI2CDev = "i2c-dev"
	BackendPeriph = "periph"
	BackendDummy  = "dummy"

	// Channels on the PCA9685.
	NumChannels = 16
)

type Config struct {
	// Time between control ticks.
	Interval time.Duration `yaml:"interval"`
	LogLevel string        `yaml:"log_level"`

	Joystick Joystick `yaml:"joystick"`
	PWM      PWM      `yaml:"pwm"`
	Wheels   Wheels   `yaml:"wheels"`
	Servos   Servos   `yaml:"servos"`

	// Framebuffer for the status screen; empty disables it.
	ScreenDevice string `yaml:"screen_device"`
	Sounds       Sounds `yaml:"sounds"`
}

type Joystick struct {
	Device string `yaml:"device"`
	Axes   Axes   `yaml:"axes"`
	// Polled every tick but not mapped to anything.
	Button int `yaml:"button"`
}

type Axes struct {
	DriveX  int `yaml:"drive_x"`
	DriveY  int `yaml:"drive_y"`
	CameraX int `yaml:"camera_x"`
	CameraY int `yaml:"camera_y"`
}

type PWM struct {
	Backend     string  `yaml:"backend"`
	Device      string  `yaml:"device"`
	Address     uint16  `yaml:"address"`
	FrequencyHz float64 `yaml:"frequency_hz"`
}

type Wheel struct {
	Duty     int `yaml:"duty"`
	Forward  int `yaml:"forward"`
	Backward int `yaml:"backward"`
}

type Wheels struct {
	Left  Wheel `yaml:"left"`
	Right Wheel `yaml:"right"`
}

type Servos struct {
	Pan  int `yaml:"pan"`
	Tilt int `yaml:"tilt"`
}

type Sounds struct {
	Start string `yaml:"start"`
	Stop  string `yaml:"stop"`
}

func Default() *Config {
	return &Config{
		Interval: 200 * time.Millisecond,
		LogLevel: "info",
		Joystick: Joystick{
			Device: "/dev/input/js0",
			Axes:   Axes{DriveX: 0, DriveY: 1, CameraX: 3, CameraY: 4},
			Button: 0,
		},
		PWM: PWM{
			Backend:     BackendI2CDev,
			Device:      "/dev/i2c-1",
			Address:     0x40,
			FrequencyHz: 50,
		},
		Wheels: Wheels{
			Left:  Wheel{Duty: 0, Forward: 2, Backward: 1},
			Right: Wheel{Duty: 4, Forward: 6, Backward: 5},
		},
		Servos: Servos{Pan: 15, Tilt: 14},
	}
}

// Load reads the YAML file at path over the defaults.  An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config file %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return errors.Errorf("interval must be > 0, got %v", c.Interval)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	switch c.PWM.Backend {
	case BackendI2CDev, BackendPeriph, BackendDummy:
	default:
		return errors.Errorf("unknown pwm.backend %q", c.PWM.Backend)
	}
	if c.PWM.FrequencyHz <= 0 {
		return errors.Errorf("pwm.frequency_hz must be > 0, got %v", c.PWM.FrequencyHz)
	}

	owners := map[int]string{}
	for _, ch := range []struct {
		name    string
		channel int
	}{
		{"wheels.left.duty", c.Wheels.Left.Duty},
		{"wheels.left.forward", c.Wheels.Left.Forward},
		{"wheels.left.backward", c.Wheels.Left.Backward},
		{"wheels.right.duty", c.Wheels.Right.Duty},
		{"wheels.right.forward", c.Wheels.Right.Forward},
		{"wheels.right.backward", c.Wheels.Right.Backward},
		{"servos.pan", c.Servos.Pan},
		{"servos.tilt", c.Servos.Tilt},
	} {
		if ch.channel < 0 || ch.channel >= NumChannels {
			return errors.Errorf("%s: channel %d out of range 0-%d", ch.name, ch.channel, NumChannels-1)
		}
		if other, ok := owners[ch.channel]; ok {
			return errors.Errorf("%s: channel %d already used by %s", ch.name, ch.channel, other)
		}
		owners[ch.channel] = ch.name
	}

	for _, axis := range []int{c.Joystick.Axes.DriveX, c.Joystick.Axes.DriveY, c.Joystick.Axes.CameraX, c.Joystick.Axes.CameraY} {
		if axis < 0 || axis > 255 {
			return errors.Errorf("joystick axis %d out of range", axis)
		}
	}
	if c.Joystick.Button < 0 || c.Joystick.Button > 255 {
		return errors.Errorf("joystick button %d out of range", c.Joystick.Button)
	}
	return nil
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
