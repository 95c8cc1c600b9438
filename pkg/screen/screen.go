package screen

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/fogleman/gg"
	log "github.com/sirupsen/logrus"

	"github.com/tigerbot-team/joyrover/pkg/actuator"
)

const (
	S = 128

	RefreshInterval = 500 * time.Millisecond
)

// Status is what the control loop last sent to the actuators.
type Status struct {
	Left, Right     actuator.WheelCommand
	PanDeg, TiltDeg float64
}

var (
	lock   sync.Mutex
	status = Status{PanDeg: 90, TiltDeg: 90}
)

func SetStatus(s Status) {
	lock.Lock()
	status = s
	lock.Unlock()
}

func CurrentStatus() Status {
	lock.Lock()
	defer lock.Unlock()
	return status
}

// LoopUpdatingScreen redraws the framebuffer device until ctx is done, then blanks it.
func LoopUpdatingScreen(ctx context.Context, device string) {
	f, err := os.OpenFile(device, os.O_RDWR, 0666)
	if err != nil {
		log.WithError(err).Warn("Failed to open screen, ignoring")
		return
	}
	defer f.Close()

	ticker := time.NewTicker(RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			var buf [S * S * 2]byte
			_, _ = f.Seek(0, 0)
			_, _ = f.Write(buf[:])
			return
		case <-ticker.C:
		}

		buf := toRGB565(Render(CurrentStatus()).Image())
		if _, err := f.Seek(0, 0); err != nil {
			log.WithError(err).Error("Screen failure")
			return
		}
		for i := 0; i < S; i++ {
			if _, err := f.Write(buf[i*S*2 : (i+1)*S*2]); err != nil {
				log.WithError(err).Error("Screen failure")
				return
			}
			time.Sleep(10 * time.Microsecond)
		}
	}
}

// Render draws one wheel bar per side and a marker for where the camera is pointing.
func Render(s Status) *gg.Context {
	dc := gg.NewContext(S, S)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawString("L", 6, 12)
	dc.DrawString("R", S-14, 12)
	drawWheelBar(dc, 4, s.Left)
	drawWheelBar(dc, S-16, s.Right)

	// Camera: a box for the reachable range and a dot for the current aim.
	const boxX, boxY, boxSize = 32, 20, 64
	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawRectangle(boxX, boxY, boxSize, boxSize)
	dc.Stroke()
	x := boxX + angleFraction(s.PanDeg)*boxSize
	y := boxY + (1-angleFraction(s.TiltDeg))*boxSize
	dc.DrawCircle(x, y, 3)
	dc.Fill()
	dc.DrawString(fmt.Sprintf("%.0f/%.0f", s.PanDeg, s.TiltDeg), boxX+8, boxY+boxSize+18)
	return dc
}

func drawWheelBar(dc *gg.Context, x float64, cmd actuator.WheelCommand) {
	const mid, halfHeight = 64, 44
	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawRectangle(x, mid-halfHeight, 12, 2*halfHeight)
	dc.Stroke()

	h := float64(cmd.Duty) / actuator.MaxDutyCycle * halfHeight
	switch {
	case cmd.Forward:
		dc.SetRGBA(0, 1, 0.2, 1)
		dc.DrawRectangle(x+2, mid-h, 8, h)
	case cmd.Backward:
		dc.SetRGBA(1, 0.2, 0, 1)
		dc.DrawRectangle(x+2, mid, 8, h)
	default:
		return
	}
	dc.Fill()
}

// angleFraction maps the servo's usable range onto [0, 1].
func angleFraction(deg float64) float64 {
	lo := actuator.ServoDegrees(-1)
	hi := actuator.ServoDegrees(1)
	f := (deg - lo) / (hi - lo)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// toRGB565 packs the image for the panel, which is mounted rotated 90 degrees.
func toRGB565(img image.Image) []byte {
	buf := make([]byte, S*S*2)
	for y := 0; y < S; y++ {
		for x := 0; x < S; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(S-1-y)*2+x*S*2+1] = (rb << 3) | (gb >> 3)
			buf[(S-1-y)*2+x*S*2] = bb | (gb << 5)
		}
	}
	return buf
}
