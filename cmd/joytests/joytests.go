package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	log "github.com/sirupsen/logrus"

	"github.com/tigerbot-team/joyrover/pkg/joystick"
)

var CLI struct {
	Device   string        `help:"Joystick device." default:"/dev/input/js0" env:"JOYSTICK_DEVICE"`
	Interval time.Duration `help:"Time between prints." default:"200ms"`
	Axes     []int         `help:"Axes to print." default:"0,1,3,4"`
	Buttons  []int         `help:"Buttons to print." default:"0"`
}

// Prints the normalized axes and buttons the controller would see, to check which
// numbers a pad uses.
func main() {
	kong.Parse(&CLI)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	j, err := joystick.NewJoystick(CLI.Device)
	if err != nil {
		log.WithError(err).Fatal("Failed to open joystick")
	}
	state := joystick.NewState()
	go func() {
		defer cancel()
		defer j.Close()
		err := joystick.Run(ctx, j, state)
		log.WithError(err).Error("Joystick failed")
	}()

	ticker := time.NewTicker(CLI.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		line := ""
		for _, a := range CLI.Axes {
			line += fmt.Sprintf("axis(%d)=%+.3f ", a, state.Axis(a))
		}
		for _, b := range CLI.Buttons {
			line += fmt.Sprintf("button(%d)=%v ", b, state.Button(b))
		}
		fmt.Fprintln(os.Stdout, line)
	}
}
