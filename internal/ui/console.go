// Package ui provides styled terminal output for the Cerebras client: a
// progress indicator for in-flight generations and colorized status lines.
package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	successBadge = color.New(color.BgGreen, color.FgBlack, color.Bold)
	errorBadge   = color.New(color.BgRed, color.FgWhite, color.Bold)
	infoBadge    = color.New(color.FgCyan, color.Bold)

	successText = color.New(color.FgGreen, color.Bold)
	errorText   = color.New(color.FgRed)
	infoText    = color.New(color.FgCyan)
	mutedText   = color.New(color.FgHiBlack)
	accentText  = color.New(color.FgMagenta, color.Bold)
)

// spinnerFrames are the animation frames, drawn at spinnerInterval.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// Spinner renders a terminal progress indicator for an in-flight
// generation: an animated spinner with a live character count. It satisfies
// the client's Progress interface.
type Spinner struct {
	out io.Writer

	mu      sync.Mutex
	label   string
	chars   int
	running bool
	started time.Time
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner creates a Spinner writing to out (typically os.Stderr so the
// generated text on stdout stays clean).
func NewSpinner(out io.Writer) *Spinner {
	return &Spinner{out: out}
}

// Start begins the animation. Safe to call again after Finish.
func (s *Spinner) Start(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.label = label
	s.chars = 0
	s.running = true
	s.started = time.Now()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
}

// Advance records n received characters.
func (s *Spinner) Advance(n int) {
	s.mu.Lock()
	s.chars += n
	s.mu.Unlock()
}

// Finish stops the animation and prints a final status line.
func (s *Spinner) Finish(err error) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	chars := s.chars
	elapsed := time.Since(s.started).Round(10 * time.Millisecond)
	s.mu.Unlock()

	close(stop)
	<-done

	fmt.Fprint(s.out, "\r\033[K")
	if err != nil {
		errorBadge.Fprint(s.out, " FAIL ")
		fmt.Fprint(s.out, " ")
		errorText.Fprintln(s.out, err.Error())
		return
	}
	successBadge.Fprint(s.out, " OK ")
	fmt.Fprint(s.out, " ")
	successText.Fprintf(s.out, "%d chars", chars)
	mutedText.Fprintf(s.out, " in %s\n", elapsed)
}

// run draws frames until stopped.
func (s *Spinner) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			label, chars := s.label, s.chars
			s.mu.Unlock()

			fmt.Fprint(s.out, "\r\033[K")
			infoText.Fprintf(s.out, "%s %s", spinnerFrames[frame%len(spinnerFrames)], label)
			if chars > 0 {
				mutedText.Fprintf(s.out, " … %d chars", chars)
			}
			frame++
		}
	}
}

// PrintInfo logs a general client status line.
// Format: [CEREBRAS] message
func PrintInfo(msg string) {
	infoBadge.Print("[CEREBRAS]")
	fmt.Print(" ")
	infoText.Println(msg)
}

// PrintKeyRefreshed logs a successful demo key refresh with the masked key.
// Format: 🔑 [KEY] refreshed → csk-xxxx...xxxx
func PrintKeyRefreshed(maskedKey string) {
	fmt.Print("🔑 ")
	infoBadge.Print("[KEY]")
	fmt.Print(" refreshed ")
	mutedText.Print("→ ")
	accentText.Println(maskedKey)
}

// PrintError logs an unrecoverable failure.
func PrintError(msg string) {
	errorBadge.Print(" ERROR ")
	fmt.Print(" ")
	errorText.Println(msg)
}
