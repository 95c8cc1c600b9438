package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	log "github.com/sirupsen/logrus"

	"github.com/tigerbot-team/joyrover/pkg/actuator"
	"github.com/tigerbot-team/joyrover/pkg/config"
	"github.com/tigerbot-team/joyrover/pkg/hardware"
	"github.com/tigerbot-team/joyrover/pkg/rcmode"
)

var CLI struct {
	Config   string        `help:"Path to the YAML config file." type:"path"`
	Duration time.Duration `help:"How long to drive for each measurement." default:"2s"`
	Throttle float64       `help:"Stick deflection to use, 0-1." default:"0.5"`
	Steps    int           `help:"Number of stick directions to measure." default:"8"`
}

// Measurements for driving with the stick held in one direction.
type measurement struct {
	x, y        float64
	left, right actuator.WheelCommand

	// Measured displacement straight ahead.
	aheadMM float64
	// Measured heading change, anticlockwise positive.
	turnDeg float64
}

var scanner = bufio.NewScanner(os.Stdin)

func readFloat(prompt string) float64 {
	for {
		fmt.Println(prompt)
		if !scanner.Scan() {
			panic(scanner.Err())
		}
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err == nil {
			return v
		}
		fmt.Printf("error: %v, please try again\n", err)
	}
}

func main() {
	kong.Parse(&CLI)
	fmt.Println("---- Movement Calibration ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}
	pwm, err := hardware.OpenPWM(cfg.PWM)
	if err != nil {
		log.WithError(err).Fatal("Failed to open PWM")
	}
	act := actuator.New(pwm)
	leftWheel := rcmode.WheelChannels(cfg.Wheels.Left)
	rightWheel := rcmode.WheelChannels(cfg.Wheels.Right)
	stop := func() {
		act.DriveWheel(leftWheel, 0)
		act.DriveWheel(rightWheel, 0)
	}
	defer func() {
		fmt.Println("Zeroing motors for shut down")
		stop()
		pwm.Close()
	}()

	var table []measurement
	for i := 0; i < CLI.Steps; i++ {
		angle := 2 * math.Pi * float64(i) / float64(CLI.Steps)
		m := measurement{
			x: CLI.Throttle * math.Sin(angle),
			y: -CLI.Throttle * math.Cos(angle),
		}
		l, r := rcmode.MixDrive(m.x, m.y)
		fmt.Printf("Measurement %v/%v: stick (%.2f, %.2f), mix %.3f, %.3f\n",
			i+1, CLI.Steps, m.x, m.y, l, r)
		readFloat("Position the rover and enter 0 to start:")

		if m.left, err = act.DriveWheel(leftWheel, l); err == nil {
			m.right, err = act.DriveWheel(rightWheel, r)
		}
		if err != nil {
			log.WithError(err).Error("Failed to drive wheels")
			return
		}
		time.Sleep(CLI.Duration)
		stop()

		m.aheadMM = readFloat("Enter straight ahead displacement (mm):")
		m.turnDeg = readFloat("Enter heading change (degrees, anticlockwise +tive):")
		table = append(table, m)
		printRow(i, m)
	}

	fmt.Println("")
	fmt.Println("Whole table:")
	for i := range table {
		printRow(i, table[i])
	}
}

func printRow(index int, m measurement) {
	fmt.Printf("table[%v] = stick(%.2f, %.2f) left=%v right=%v ahead=%.0fmm turn=%.1fdeg\n",
		index, m.x, m.y, m.left, m.right, m.aheadMM, m.turnDeg)
}
