// Package source provides the row-code inputs the listener can consume:
// a line scanner over any io.Reader and a serial port attached to the
// demodulator. Both deliver "{bitlen}hex" row codes on a channel.
package source

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Source produces captured bit rows until closed or cancelled.
type Source interface {
	Rows() <-chan string
	Monitor(ctx context.Context) error
	Close() error
}

// ReaderSource scans an io.Reader line by line, typically stdin or a
// capture file.
type ReaderSource struct {
	reader io.Reader
	rows   chan string
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{reader: r, rows: make(chan string)}
}

// Rows returns the channel row codes are delivered on. It is closed when
// Monitor returns.
func (s *ReaderSource) Rows() <-chan string {
	return s.rows
}

// Monitor reads lines until EOF or cancellation. Lines that are not row
// codes are skipped, so annotated capture logs can be replayed as-is.
func (s *ReaderSource) Monitor(ctx context.Context) error {
	defer close(s.rows)
	scan := bufio.NewScanner(s.reader)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if !isRowCode(line) {
			continue
		}
		select {
		case s.rows <- line:
		case <-ctx.Done():
			return nil
		}
	}
	return scan.Err()
}

func (s *ReaderSource) Close() error {
	return nil
}

func isRowCode(line string) bool {
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "{") {
		logrus.WithField("line", line).Debug("skipping non-code input")
		return false
	}
	return true
}
