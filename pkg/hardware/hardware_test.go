package hardware

import (
	"context"
	"testing"

	"github.com/tigerbot-team/joyrover/pkg/config"
)

func TestPeriphBusName(t *testing.T) {
	for device, expected := range map[string]string{
		"/dev/i2c-1": "1",
		"/dev/i2c-0": "0",
		"I2C1":       "I2C1",
		"":           "",
	} {
		if actual := periphBusName(device); actual != expected {
			t.Errorf("periphBusName(%q) = %q, expected %q", device, actual, expected)
		}
	}
}

func TestOpenPWMDummy(t *testing.T) {
	cfg := config.Default().PWM
	cfg.Backend = config.BackendDummy
	pwm, err := OpenPWM(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := pwm.SetAngle(15, 90); err != nil {
		t.Fatal(err)
	}
}

func TestOpenPWMUnknownBackend(t *testing.T) {
	cfg := config.Default().PWM
	cfg.Backend = "carrier-pigeon"
	if _, err := OpenPWM(cfg); err == nil {
		t.Fatal("Expected an error for an unknown backend")
	}
}

func TestLifecycleWithoutExtras(t *testing.T) {
	cfg := config.Default()
	cfg.PWM.Backend = config.BackendDummy

	hw, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	hw.Start(ctx)
	hw.PlaySound("/sounds/start.wav")
	cancel()
	hw.Shutdown()
}
