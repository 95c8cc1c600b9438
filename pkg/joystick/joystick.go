package joystick

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Axis and button numbers for a dual-stick pad on the Linux joystick API.  Stick axes read
// negative when pushed up or left.
//
//    L stick l/r = 0, u/d = 1
//    R stick l/r = 3, u/d = 4
//    L2 = 2, R2 = 5 (unpressed = -32767)
//    D-pad   l/r = 6, u/d = 7

type EventType uint8

const (
	EventTypeButton = 1
	EventTypeAxis   = 2

	// Set on the synthetic events the driver sends to report initial state.
	eventTypeInit = 0x80
)

const (
	ButtonA = 0

	AxisLStickX = 0
	AxisLStickY = 1
	AxisRStickX = 3
	AxisRStickY = 4
	AxisDPadX   = 6
	AxisDPadY   = 7

	AxisMax = math.MaxInt16
)

func (e EventType) String() string {
	switch e {
	case EventTypeAxis:
		return "axis"
	case EventTypeButton:
		return "button"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

type Joystick struct {
	device io.ReadCloser

	deviceEpoch    uint32
	wallclockEpoch time.Time
}

type rawEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

type Event struct {
	Time   time.Time
	Value  int16
	Type   EventType
	Number uint8
}

func (e *Event) String() string {
	return fmt.Sprintf("%v(%v)=%v", e.Type, e.Number, e.Value)
}

func NewJoystick(device string) (*Joystick, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, errors.Wrap(err, "open joystick")
	}
	return newJoystick(f), nil
}

func newJoystick(r io.ReadCloser) *Joystick {
	return &Joystick{
		device: r,
	}
}

func (j *Joystick) ReadEvent() (*Event, error) {
	var rawEvent rawEvent
	err := binary.Read(j.device, binary.LittleEndian, &rawEvent)
	if err != nil {
		return nil, err
	}

	if j.deviceEpoch == 0 {
		j.deviceEpoch = rawEvent.Time
		j.wallclockEpoch = time.Now()
	}

	return &Event{
		Time:   j.wallclockEpoch.Add(time.Duration(rawEvent.Time-j.deviceEpoch) * time.Millisecond),
		Value:  rawEvent.Value,
		Type:   EventType(rawEvent.Type &^ eventTypeInit),
		Number: rawEvent.Number,
	}, nil
}

func (j *Joystick) Close() error {
	return j.device.Close()
}

// Normalize maps a raw axis reading onto [-1, 1].
func Normalize(value int16) float64 {
	v := float64(value) / AxisMax
	return math.Max(-1, math.Min(1, v))
}

// State holds the latest value of every axis and button.  It is written by the event
// reader and polled by the control loop.
type State struct {
	lock    sync.Mutex
	axes    map[uint8]int16
	buttons map[uint8]bool
}

func NewState() *State {
	return &State{
		axes:    map[uint8]int16{},
		buttons: map[uint8]bool{},
	}
}

func (s *State) Apply(e *Event) {
	s.lock.Lock()
	defer s.lock.Unlock()
	switch e.Type {
	case EventTypeAxis:
		s.axes[e.Number] = e.Value
	case EventTypeButton:
		s.buttons[e.Number] = e.Value != 0
	}
}

// Axis returns the normalized value of axis n; axes that have not reported read as 0.
func (s *State) Axis(n int) float64 {
	if n < 0 || n > math.MaxUint8 {
		return 0
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return Normalize(s.axes[uint8(n)])
}

func (s *State) Button(n int) bool {
	if n < 0 || n > math.MaxUint8 {
		return false
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.buttons[uint8(n)]
}

// Run feeds events from j into state until reading fails or ctx is done.  Since a read
// blocks until the next event, cancellation is only noticed when one arrives.
func Run(ctx context.Context, j *Joystick, state *State) error {
	for ctx.Err() == nil {
		event, err := j.ReadEvent()
		if err != nil {
			return errors.Wrap(err, "read joystick event")
		}
		log.WithField("event", event).Trace("Joystick event")
		state.Apply(event)
	}
	return ctx.Err()
}
