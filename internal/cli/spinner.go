package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// spinnerInterval is the time between two animation frames.
const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows that the views of a workspace are being laid out, with a
// count of the finished views once the first one completes. It draws on
// standard error so that it never mixes with result output.
type Spinner struct {
	out       io.Writer
	workspace string
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	stopped   chan struct{}

	mu       sync.Mutex
	finished int
	total    int
	width    int
}

// newLayoutSpinner creates a spinner for a layout run of the named
// workspace. It stops drawing when ctx is canceled.
func newLayoutSpinner(ctx context.Context, workspace string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:       os.Stderr,
		workspace: workspace,
		ctx:       spinnerCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// viewDone records that done of total views are finished. It matches
// pipeline.Options.Progress and is safe for concurrent use.
func (s *Spinner) viewDone(done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if done > s.finished {
		s.finished = done
	}
	s.total = total
}

// message returns the text shown next to the animation. The caller holds mu.
func (s *Spinner) message() string {
	name := s.workspace
	if name == "" {
		name = "workspace"
	}
	if s.total == 0 {
		return fmt.Sprintf("Laying out %s...", name)
	}
	return fmt.Sprintf("Laying out %s (%d/%d views)...", name, s.finished, s.total)
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				frame := spinnerFrames[i%len(spinnerFrames)]
				s.mu.Lock()
				msg := s.message()
				fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(msg))
				if w := len(msg) + 4; w > s.width {
					s.width = w
				}
				s.mu.Unlock()
				i++
			}
		}
	}()
}

// Stop stops the spinner and clears the line. It may be called more than
// once.
func (s *Spinner) Stop() {
	s.cancel()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}
