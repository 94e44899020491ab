// Package playback plays synthesized replies with an external player.
package playback

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"

	"voice-query-client/internal/observability/logging"
)

// DefaultPlayer streams a URL without opening a window and exits at the end.
var DefaultPlayer = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "error"}

// Command plays a URL by appending it to a player command line. Only one
// reply plays at a time; a new Play stops the previous one.
type Command struct {
	argv   []string
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	current *exec.Cmd
	wg      sync.WaitGroup
}

// NewCommand creates a player. An empty argv selects DefaultPlayer.
func NewCommand(argv []string) *Command {
	if len(argv) == 0 {
		argv = DefaultPlayer
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Command{
		argv:   argv,
		logger: logging.WithComponent("playback"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Play starts the player and returns without waiting for it to finish.
func (c *Command) Play(url string) error {
	if url == "" {
		return errors.New("empty playback url")
	}
	if err := c.ctx.Err(); err != nil {
		return err
	}

	args := append(append([]string{}, c.argv[1:]...), url)
	cmd := exec.CommandContext(c.ctx, c.argv[0], args...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.Process != nil {
		_ = c.current.Process.Kill()
	}
	if err := cmd.Start(); err != nil {
		c.current = nil
		return fmt.Errorf("start player %s: %w", c.argv[0], err)
	}
	c.current = cmd

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := cmd.Wait()
		c.mu.Lock()
		if c.current == cmd {
			c.current = nil
		}
		c.mu.Unlock()
		if err != nil {
			c.logger.Debug().Err(err).Str("url", url).Msg("Player exited")
		}
	}()
	return nil
}

// Wait blocks until the current playback ends on its own.
func (c *Command) Wait() {
	c.wg.Wait()
}

// Close stops any running playback.
func (c *Command) Close() {
	c.cancel()
	c.wg.Wait()
}

// Noop discards playback requests.
type Noop struct{}

func (Noop) Play(string) error { return nil }
