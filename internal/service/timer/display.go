// Package timer renders elapsed recording time as MM:SS.
package timer

import (
	"fmt"
	"sync"
	"time"
)

// Zero is the display shown whenever no recording is running.
const Zero = "00:00"

// Format renders whole seconds as zero-padded minutes and seconds. Minutes
// are not capped, so 100 minutes renders as "100:00".
func Format(secs int) string {
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Ticker is the subset of time.Ticker the display needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewTickerFunc creates a ticker with the given period.
type NewTickerFunc func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// RealTicker backs the display with time.Ticker.
func RealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Display counts seconds while a recording runs. Every change of the
// rendered text is passed to onChange.
type Display struct {
	newTicker NewTickerFunc
	onChange  func(string)

	mu   sync.Mutex
	secs int
	text string
	stop chan struct{}
	done chan struct{}
}

// New creates a display driven by a one second time.Ticker.
func New(onChange func(string)) *Display {
	return NewWithTicker(onChange, RealTicker)
}

// NewWithTicker creates a display with a custom ticker source.
func NewWithTicker(onChange func(string), newTicker NewTickerFunc) *Display {
	if onChange == nil {
		onChange = func(string) {}
	}
	return &Display{newTicker: newTicker, onChange: onChange, text: Zero}
}

// Start resets the counter to zero and begins ticking once per second.
// A running tick loop is replaced.
func (d *Display) Start() {
	d.halt()

	d.mu.Lock()
	d.secs = 0
	d.text = Zero
	stop := make(chan struct{})
	done := make(chan struct{})
	d.stop, d.done = stop, done
	t := d.newTicker(time.Second)
	d.mu.Unlock()

	d.onChange(Zero)
	go d.run(t, stop, done)
}

// Reset cancels the tick loop and shows 00:00. No tick is delivered after
// Reset returns.
func (d *Display) Reset() {
	d.halt()

	d.mu.Lock()
	d.secs = 0
	d.text = Zero
	d.mu.Unlock()

	d.onChange(Zero)
}

// Text returns the current rendering.
func (d *Display) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// Elapsed returns the counted seconds.
func (d *Display) Elapsed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.secs
}

// Running reports whether the tick loop is active.
func (d *Display) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop != nil
}

func (d *Display) halt() {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (d *Display) run(t Ticker, stop, done chan struct{}) {
	defer close(done)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C():
			d.mu.Lock()
			d.secs++
			text := Format(d.secs)
			d.text = text
			d.mu.Unlock()
			d.onChange(text)
		}
	}
}
