package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/joyrover/pkg/actuator"
	"github.com/tigerbot-team/joyrover/pkg/screen"
)

var CLI struct {
	Device string `help:"Framebuffer device." default:"/dev/fb1"`
}

// Reads "<left> <right> <pan> <tilt>" lines, motor values in [-1, 1] and angles in degrees,
// and shows them on the status screen.
func main() {
	kong.Parse(&CLI)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go screen.LoopUpdatingScreen(ctx, CLI.Device)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}

		parts := strings.Fields(line)
		if len(parts) != 4 {
			fmt.Println("Expected 4 values")
			continue
		}
		var v [4]float64
		for i, p := range parts {
			v[i], err = strconv.ParseFloat(p, 64)
			if err != nil {
				break
			}
		}
		if err != nil {
			fmt.Println("Bad value: ", err)
			continue
		}
		if v[0] < -1 || v[0] > 1 || v[1] < -1 || v[1] > 1 {
			fmt.Println("Motor values must be in [-1, 1]")
			continue
		}
		screen.SetStatus(screen.Status{
			Left:    actuator.QuantizeWheel(v[0]),
			Right:   actuator.QuantizeWheel(v[1]),
			PanDeg:  v[2],
			TiltDeg: v[3],
		})
	}
}
