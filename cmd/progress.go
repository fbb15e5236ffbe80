package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// spinner redraws a single status line while a simulated operation runs.
type spinner struct {
	out      io.Writer
	label    string
	interval time.Duration
	start    time.Time
	mu       sync.Mutex
	frame    int
	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

func newSpinner(out io.Writer, label string) *spinner {
	return &spinner{
		out:      out,
		label:    label,
		interval: 120 * time.Millisecond,
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
}

func (s *spinner) Start() {
	s.start = time.Now()
	go s.loop()
}

// Stop clears the line. It is safe to call more than once.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		<-s.exited
		s.mu.Lock()
		fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.line())+2))
		s.mu.Unlock()
	})
}

func (s *spinner) loop() {
	defer close(s.exited)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.print()
	for {
		select {
		case <-ticker.C:
			s.print()
		case <-s.done:
			return
		}
	}
}

func (s *spinner) print() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s", s.line())
	s.frame++
}

func (s *spinner) line() string {
	elapsed := time.Since(s.start).Seconds()
	return fmt.Sprintf("%s %s (%.1fs)", spinnerFrames[s.frame%len(spinnerFrames)], s.label, elapsed)
}
