package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans every write out to all of its writers. Unlike
// io.MultiWriter it does not stop at the first failing writer, so a broken
// log file never silences stdout.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		Writers: append([]io.Writer(nil), writers...),
	}
}

// Write returns the largest byte count written by any single writer,
// and all writer errors combined.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var (
		n   int
		err error
	)
	for _, w := range cw.Writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		if written > n {
			n = written
		}
	}
	return n, err
}
