// Package appendfile opens line-framed store files for appending.
package appendfile

import (
	"fmt"
	"io"
	"os"
)

// Open opens path for appending, creating it if missing, and returns the file
// with its current size. If a previous write was cut short and the file does
// not end in a newline, a newline is written first so the next line starts on
// its own.
func Open(path string) (*os.File, int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, 0, err
	}

	size, err := terminate(f)
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, size, nil
}

func terminate(f *os.File) (int64, error) {
	stat, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", f.Name(), err)
	}
	size := stat.Size()
	if size == 0 {
		return 0, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil && err != io.EOF {
		return 0, fmt.Errorf("reading %s: %w", f.Name(), err)
	}
	if last[0] == '\n' {
		return size, nil
	}

	if _, err := f.Write([]byte{'\n'}); err != nil {
		return 0, fmt.Errorf("terminating partial line in %s: %w", f.Name(), err)
	}
	return size + 1, nil
}
