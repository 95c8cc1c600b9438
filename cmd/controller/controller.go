package main

import (
	"context"
	"io/ioutil"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	log "github.com/sirupsen/logrus"

	"github.com/tigerbot-team/joyrover/pkg/actuator"
	"github.com/tigerbot-team/joyrover/pkg/config"
	"github.com/tigerbot-team/joyrover/pkg/hardware"
	"github.com/tigerbot-team/joyrover/pkg/joystick"
	"github.com/tigerbot-team/joyrover/pkg/rcmode"
)

var CLI struct {
	Config     string `help:"Path to the YAML config file; defaults are used if empty." type:"path"`
	Joystick   string `help:"Joystick device, overrides the config." env:"JOYSTICK_DEVICE"`
	LogLevel   string `help:"Log level, overrides the config (trace, debug, info, warn, error)."`
	Dummy      bool   `help:"Log PWM commands instead of driving the PCA9685."`
	DumpConfig string `help:"Write the effective config to this file and continue." type:"path"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("controller"),
		kong.Description("Drive the rover and aim its camera from a joystick."))

	log.SetFormatter(&log.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}
	if CLI.Joystick != "" {
		cfg.Joystick.Device = CLI.Joystick
	}
	if CLI.LogLevel != "" {
		cfg.LogLevel = CLI.LogLevel
	}
	if CLI.Dummy {
		cfg.PWM.Backend = config.BackendDummy
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid config")
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	if CLI.DumpConfig != "" {
		data, err := cfg.Marshal()
		if err == nil {
			err = ioutil.WriteFile(CLI.DumpConfig, data, 0666)
		}
		if err != nil {
			log.WithError(err).Warn("Failed to write in-use config")
		}
	}

	log.Info("---- Joyrover ----")
	log.Info("GOMAXPROCS ", runtime.GOMAXPROCS(0))

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	hw, err := hardware.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialise hardware")
	}
	hw.Start(ctx)

	state, ok := initJoystick(ctx, cancel, cfg.Joystick.Device)
	if !ok {
		hw.Shutdown()
		return
	}

	hw.PlaySound(cfg.Sounds.Start)

	mode := rcmode.New(state, actuator.New(hw.PWM), cfg)
	log.Infof("----- %s -----", mode.Name())
	mode.Start(ctx)

	<-ctx.Done()
	log.Info("Context done, stopping active mode and shutting down")
	mode.Stop()
	hw.PlaySound(cfg.Sounds.Stop)
	time.Sleep(100 * time.Millisecond)
	hw.Shutdown()
}

// initJoystick waits for the joystick device to appear and starts a goroutine feeding its
// events into the returned state.  Losing the joystick cancels ctx.
func initJoystick(ctx context.Context, cancel context.CancelFunc, device string) (*joystick.State, bool) {
	firstLog := true
	for {
		j, err := joystick.NewJoystick(device)
		if err != nil {
			if firstLog {
				log.WithError(err).Warn("Waiting for joystick")
				firstLog = false
			}
			select {
			case <-ctx.Done():
				return nil, false
			case <-time.After(1 * time.Second):
			}
			continue
		}

		log.WithField("device", device).Info("Opened joystick")
		state := joystick.NewState()
		go func() {
			defer cancel()
			defer j.Close()
			err := joystick.Run(ctx, j, state)
			log.WithError(err).Error("Joystick failed")
		}()
		return state, true
	}
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Info("Signal: ", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
