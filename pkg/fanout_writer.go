package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// FanOutWriter writes every chunk to all of its writers. A failing writer
// does not stop the others, its error is combined into the returned one.
type FanOutWriter struct {
	writers []io.Writer
}

func NewFanOutWriter(writers ...io.Writer) *FanOutWriter {
	return &FanOutWriter{writers: writers}
}

// Write returns len(p) when at least one writer took the whole chunk.
func (fw *FanOutWriter) Write(p []byte) (int, error) {
	var err error
	delivered := false
	for _, w := range fw.writers {
		n, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		if n == len(p) {
			delivered = true
		}
	}
	if !delivered {
		return 0, err
	}
	return len(p), err
}
