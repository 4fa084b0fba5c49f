package collector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const DefaultPollInterval = 100 * time.Millisecond

// Tailer reads lines from a log file. In follow mode it starts at the end of
// the file and polls for appended lines until the context ends; otherwise it
// reads the file once from the start.
type Tailer struct {
	Path         string
	Follow       bool
	PollInterval time.Duration
}

func NewTailer(path string, follow bool) *Tailer {
	return &Tailer{Path: path, Follow: follow, PollInterval: DefaultPollInterval}
}

// Run calls emit for every complete line, without the trailing newline.
func (t *Tailer) Run(ctx context.Context, emit func(line string)) error {
	f, err := os.Open(t.Path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var offset int64
	if t.Follow {
		if offset, err = f.Seek(0, io.SeekEnd); err != nil {
			return fmt.Errorf("seek log file: %w", err)
		}
	}

	interval := t.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	reader := bufio.NewReader(f)
	var partial []byte
	for {
		if ctx.Err() != nil {
			return nil
		}
		chunk, err := reader.ReadBytes('\n')
		offset += int64(len(chunk))
		partial = append(partial, chunk...)

		if err == nil {
			emit(trimNewline(partial))
			partial = partial[:0]
			continue
		}
		if !errors.Is(err, io.EOF) {
			return fmt.Errorf("read log file: %w", err)
		}

		if !t.Follow {
			if len(partial) > 0 {
				emit(trimNewline(partial))
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}

		// copytruncate style rotation: start over from the top.
		if info, statErr := f.Stat(); statErr == nil && info.Size() < offset {
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("seek log file: %w", err)
			}
			offset = 0
			partial = partial[:0]
			reader.Reset(f)
		}
	}
}

func trimNewline(b []byte) string {
	n := len(b)
	if n > 0 && b[n-1] == '\n' {
		n--
	}
	if n > 0 && b[n-1] == '\r' {
		n--
	}
	return string(b[:n])
}
