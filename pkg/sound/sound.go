package sound

import (
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const SampleRate = beep.SampleRate(44100)

// Player plays WAV files one at a time; starting a new sound cuts off the previous one.
type Player struct {
	requests chan string
	done     chan struct{}
}

// NewPlayer opens the speaker and starts the playback goroutine.  If the speaker can't be
// opened the player still accepts requests and drops them.
func NewPlayer() *Player {
	p := &Player{
		requests: make(chan string),
		done:     make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *Player) loop() {
	defer close(p.done)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Sound player crashed")
			p.drain()
		}
	}()

	err := speaker.Init(SampleRate, SampleRate.N(time.Second/5))
	if err != nil {
		log.WithError(err).Warn("Failed to open speaker")
		p.drain()
		return
	}

	var ctrl *beep.Ctrl
	var current beep.StreamSeekCloser
	stop := func() {
		if ctrl != nil {
			speaker.Lock()
			ctrl.Paused = true
			ctrl.Streamer = nil
			speaker.Unlock()
			ctrl = nil
		}
		if current != nil {
			current.Close()
			current = nil
		}
	}
	defer stop()

	for path := range p.requests {
		stop()
		s, err := open(path)
		if err != nil {
			log.WithError(err).Warn("Failed to play sound")
			continue
		}
		current = s
		ctrl = &beep.Ctrl{Streamer: s}
		speaker.Play(ctrl)
	}
}

func (p *Player) drain() {
	for path := range p.requests {
		log.WithField("path", path).Debug("Unable to play sound")
	}
}

func open(path string) (beep.StreamSeekCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open sound")
	}
	s, _, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return s, nil
}

// Play queues the sound, giving up if the player is busy for more than 10ms.  An empty
// path is ignored.
func (p *Player) Play(path string) {
	if path == "" {
		return
	}
	select {
	case p.requests <- path:
	case <-time.After(10 * time.Millisecond):
		log.WithField("path", path).Warn("Timed out trying to play sound")
	}
}

// Close stops playback and waits for the player to exit.  Play must not be called after.
func (p *Player) Close() {
	close(p.requests)
	<-p.done
}
