// Package status prints the human readable progress lines of a build.
// Lines from concurrent workers never interleave.
package status

import (
	"fmt"
	"io"
	"math"
	"sync"
)

const (
	INFO = iota
	ERROR
	PROGRESS
)

type Reporter struct {
	mu    sync.Mutex
	out   io.Writer
	lines int
}

func New(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) Status(_type int, progress float32, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines++
	switch _type {
	case ERROR:
		fmt.Fprintf(r.out, "Error: %s\n", msg)
	case PROGRESS:
		fmt.Fprintf(r.out, "[%3.0f%%] %s\n", clamp(progress)*100, msg)
	default:
		fmt.Fprintln(r.out, msg)
	}
}

func (r *Reporter) Info(format string, a ...interface{}) {
	r.Status(INFO, 0, fmt.Sprintf(format, a...))
}

func (r *Reporter) Error(format string, a ...interface{}) {
	r.Status(ERROR, 0, fmt.Sprintf(format, a...))
}

func (r *Reporter) Progress(progress float32, format string, a ...interface{}) {
	r.Status(PROGRESS, progress, fmt.Sprintf(format, a...))
}

// Lines returns how many lines were printed so far.
func (r *Reporter) Lines() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lines
}

func clamp(p float32) float32 {
	if math.IsNaN(float64(p)) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
