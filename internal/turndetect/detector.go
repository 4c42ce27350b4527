// Package turndetect decides when a caller utterance is complete. It watches
// the live (final, interim) transcript pair and fires exactly one turn-ready
// event per distinct final transcript, after a silence window with no
// further transcript movement. Detection is fully suspended while the
// orchestrator is processing a previous turn or playing back speech, so the
// system never treats its own voice as caller input.
package turndetect

import (
	"strings"
	"sync"
	"time"
)

// DefaultSilenceWindow is the countdown armed after the final text settles.
// The streaming recognizer already buffers ~1.2s of inactivity before
// promoting interim text to final, so the effective end-to-end wait is the
// sum of the two.
const DefaultSilenceWindow = 2500 * time.Millisecond

// minUtteranceLen rejects sub-3-character finals as recognition noise.
const minUtteranceLen = 3

// Detector is safe for concurrent use. The onTurn callback runs on the
// timer goroutine with no locks held.
type Detector struct {
	mu     sync.Mutex
	window time.Duration
	onTurn func(text string)

	busy     bool
	speaking bool
	closed   bool

	final   string
	interim string
	// lastProcessed is the final text of the previous fired turn; the same
	// text never fires twice.
	lastProcessed string
	// armed is the final text the pending countdown was armed for.
	armed string
	timer *time.Timer
	seq   uint64
}

// New builds a detector. A zero window means DefaultSilenceWindow.
func New(window time.Duration, onTurn func(text string)) *Detector {
	if window <= 0 {
		window = DefaultSilenceWindow
	}
	return &Detector{window: window, onTurn: onTurn}
}

// Observe feeds the latest transcript pair. Any change re-arms the silence
// countdown (debounce); the prior countdown is always cancelled first.
func (d *Detector) Observe(final, interim string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.final = strings.TrimSpace(final)
	d.interim = strings.TrimSpace(interim)
	d.rearmLocked()
}

// SetBusy marks a previous turn as in flight. While set, no countdown is
// armed and nothing fires.
func (d *Detector) SetBusy(busy bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.busy = busy
	d.rearmLocked()
}

// SetSpeaking gates detection during speech playback. Hard mutual exclusion:
// no event fires while set, even if the transcript moves.
func (d *Detector) SetSpeaking(speaking bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.speaking = speaking
	d.rearmLocked()
}

// Reset discards the current transcript pair and any pending countdown. The
// processed-text memory survives so an identical final cannot re-fire.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.final = ""
	d.interim = ""
	d.cancelLocked()
}

// Close cancels any pending countdown permanently.
func (d *Detector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.cancelLocked()
}

func (d *Detector) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.armed = ""
	d.seq++
}

// rearmLocked cancels any outstanding countdown and starts a fresh one when
// the current final text is a viable turn candidate.
func (d *Detector) rearmLocked() {
	d.cancelLocked()
	if d.busy || d.speaking {
		return
	}
	f := d.final
	if len(f) < minUtteranceLen || f == d.lastProcessed {
		return
	}
	d.armed = f
	seq := d.seq
	d.timer = time.AfterFunc(d.window, func() { d.expire(seq) })
}

// expire re-checks the firing conditions atomically: the countdown must
// still be current, the final text unchanged since arming, the interim text
// empty, and the text not yet processed. Anything else discards silently —
// the caller kept talking and a newer countdown (or none) superseded this one.
func (d *Detector) expire(seq uint64) {
	d.mu.Lock()
	if d.closed || d.busy || d.speaking || seq != d.seq {
		d.mu.Unlock()
		return
	}
	f := d.armed
	if f == "" || d.final != f || d.interim != "" || f == d.lastProcessed {
		d.mu.Unlock()
		return
	}
	d.lastProcessed = f
	d.timer = nil
	d.armed = ""
	d.seq++
	onTurn := d.onTurn
	d.mu.Unlock()

	if onTurn != nil {
		onTurn(f)
	}
}
