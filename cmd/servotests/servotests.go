package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/joyrover/pkg/config"
	"github.com/tigerbot-team/joyrover/pkg/hardware"
)

var CLI struct {
	Config  string `help:"Path to the YAML config file." type:"path"`
	Backend string `help:"PWM backend, overrides the config (i2cdev, periph, dummy)."`
}

func main() {
	kong.Parse(&CLI)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Println("Failed to load config", err)
		return
	}
	if CLI.Backend != "" {
		cfg.PWM.Backend = CLI.Backend
	}

	pwm, err := hardware.OpenPWM(cfg.PWM)
	if err != nil {
		fmt.Println("Failed to open PCA9685", err)
		return
	}
	defer pwm.Close()

	fmt.Println(
		`Commands:
    d <n> <duty>     # Set duty cycle
    l <n> <0|1>      # Set logic level
    a <n> <degrees>  # Set servo angle

<n>        Channel number 0-15
<duty>     Duty cycle 0-100
<degrees>  Servo angle 0-180; 90=centre`)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "d", "l", "a":
			if len(parts) < 3 {
				fmt.Println("Not enough parameters")
				continue
			}
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("Expected int, not ", parts[1])
				continue
			}
			if n < 0 || n >= config.NumChannels {
				fmt.Println("Expected 0 <= n < 16")
				continue
			}
			v, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				fmt.Println("Expected number, not ", parts[2])
				continue
			}
			switch parts[0] {
			case "d":
				fmt.Printf("Setting duty cycle %d to %d\n", n, int(v))
				err = pwm.SetDutyCycle(n, int(v))
			case "l":
				fmt.Printf("Setting level %d to %v\n", n, v != 0)
				err = pwm.SetLevel(n, v != 0)
			case "a":
				fmt.Printf("Setting angle %d to %.1f\n", n, v)
				err = pwm.SetAngle(n, v)
			}
			if err != nil {
				fmt.Println("Failed to write to PCA9685: ", err)
				return
			}
		default:
			fmt.Println("Unknown command ", parts[0])
		}
	}
}
