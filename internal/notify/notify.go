// Package notify mirrors finished queries to the desktop: a notification
// when a query completes or fails and, optionally, the answer on the
// clipboard.
package notify

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"

	"voice-query-client/internal/models"
	"voice-query-client/internal/observability/logging"
	"voice-query-client/internal/service/presentation"
)

const (
	title        = "Voice query"
	maxBodyRunes = 200
)

// Config selects the enabled side effects.
type Config struct {
	Desktop   bool
	Clipboard bool
}

// Notifier reacts to status transitions of the UI state.
type Notifier struct {
	cfg    Config
	logger zerolog.Logger

	// Replaceable in tests.
	notify    func(title, body string) error
	writeClip func(text string) error
}

// New creates a notifier backed by beeep and the system clipboard.
func New(cfg Config) *Notifier {
	return &Notifier{
		cfg:       cfg,
		logger:    logging.WithComponent("notify"),
		notify:    func(t, b string) error { return beeep.Notify(t, b, "") },
		writeClip: clipboard.WriteAll,
	}
}

// Enabled reports whether any side effect is configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.Desktop || n.cfg.Clipboard
}

// Watch consumes snapshots until ctx is done or the channel closes.
func (n *Notifier) Watch(ctx context.Context, states <-chan models.UIState) {
	var prev models.UIState
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			n.Handle(prev, st)
			prev = st
		}
	}
}

// Handle acts on a single transition.
func (n *Notifier) Handle(prev, cur models.UIState) {
	if cur.Status == prev.Status {
		return
	}

	switch cur.Status {
	case presentation.StatusDone:
		if n.cfg.Clipboard && cur.Answer != "" {
			if err := n.writeClip(cur.Answer); err != nil {
				n.logger.Warn().Err(err).Msg("Failed to copy answer to clipboard")
			}
		}
		body := cur.Answer
		if body == "" {
			body = "No answer"
		}
		n.desktop(truncate(body, maxBodyRunes))
	case presentation.StatusFailed, presentation.StatusMicUnavailable:
		n.desktop(cur.Status)
	}
}

func (n *Notifier) desktop(body string) {
	if !n.cfg.Desktop {
		return
	}
	if err := n.notify(title, body); err != nil {
		n.logger.Debug().Err(err).Msg("Desktop notification failed")
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
