package joblog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Writer appends lines to a plain-text job log, one open/write/close per
// append so concurrent jobs and external tail -f both behave.
type Writer struct {
	path string
}

func New(dir, filename string) *Writer {
	return &Writer{path: filepath.Join(dir, filename)}
}

func (w *Writer) Path() string { return w.path }

// Append writes each line followed by a newline.
func (w *Writer) Append(lines ...string) error {
	if len(lines) == 0 {
		return nil
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", w.path, err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	if _, err := f.WriteString(sb.String()); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}

func (w *Writer) Appendf(format string, args ...any) error {
	return w.Append(fmt.Sprintf(format, args...))
}

// Banner returns a separator line of n '=' characters.
func Banner(n int) string {
	return strings.Repeat("=", n)
}
