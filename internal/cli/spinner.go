package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a one-line status on w while a slow step runs, such as
// a Graphviz render or an archive upload. The message can change between
// steps; the spinner stops when its parent context ends.
type spinner struct {
	w      io.Writer
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	msg     string
	width   int // widest line drawn so far
	running bool

	stopped chan struct{}
	once    sync.Once
}

func newSpinner(ctx context.Context, w io.Writer, msg string) *spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &spinner{
		w:       w,
		parent:  ctx,
		ctx:     sctx,
		cancel:  cancel,
		msg:     msg,
		stopped: make(chan struct{}),
	}
}

// Start draws frames until Stop is called or the context ends.
func (s *spinner) Start() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// SetMessage replaces the text shown next to the frame.
func (s *spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(s.width, utf8.RuneCountInString(s.msg)+2)
	fmt.Fprintf(s.w, "\r%s %s", styleSpinner.Render(frame), StyleDim.Render(s.msg))
}

// Stop ends the animation and clears the line. It is safe to call more
// than once.
func (s *spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if running {
			<-s.stopped
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.width > 0 {
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
		}
	})
}

func (s *spinner) StopWithSuccess(format string, args ...any) {
	s.Stop()
	printSuccess(format, args...)
}

func (s *spinner) StopWithError(format string, args ...any) {
	s.Stop()
	printError(format, args...)
}

// Cancelled reports whether the parent context ended, as opposed to a
// regular Stop.
func (s *spinner) Cancelled() bool {
	return s.parent.Err() != nil
}
