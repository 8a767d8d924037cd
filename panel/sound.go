package panel

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/yeremiapane/portfolio-app/models"
)

type Cue int

const (
	CueNone Cue = iota
	CueNotify
	CueAlert
)

// SoundService plays notification cues. Init must be called before Play and
// Dispose releases whatever Init acquired.
type SoundService interface {
	Init() error
	Play(cue Cue)
	Dispose()
}

// CueFor picks the cue for a notification. Low importance is silent.
func CueFor(n models.Notification) Cue {
	switch {
	case n.Importance == models.ImportanceLow:
		return CueNone
	case n.Importance == models.ImportanceHigh, n.Type == models.TypeError:
		return CueAlert
	default:
		return CueNotify
	}
}

// BellPlayer rings the terminal bell: once for a notify cue, twice for an alert.
type BellPlayer struct {
	mu    sync.Mutex
	out   io.Writer
	ready bool
}

func NewBellPlayer(out io.Writer) *BellPlayer {
	return &BellPlayer{out: out}
}

func (b *BellPlayer) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.out == nil {
		return errors.New("bell player has no output")
	}
	b.ready = true
	return nil
}

func (b *BellPlayer) Play(cue Cue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready {
		return
	}
	switch cue {
	case CueNotify:
		_, _ = io.WriteString(b.out, "\a")
	case CueAlert:
		_, _ = io.WriteString(b.out, strings.Repeat("\a", 2))
	}
}

func (b *BellPlayer) Dispose() {
	b.mu.Lock()
	b.ready = false
	b.mu.Unlock()
}

// Silent is a SoundService that plays nothing.
type Silent struct{}

func (Silent) Init() error { return nil }
func (Silent) Play(Cue)    {}
func (Silent) Dispose()    {}
