// Package sink writes formatted preview lines to their destination.
package sink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Sink receives the ordered output lines of one unfurl.
type Sink interface {
	Write(ctx context.Context, lines []string) error
}

// Writer prints lines to an io.Writer, one per line.
type Writer struct {
	w   io.Writer
	log logrus.FieldLogger
}

// NewWriter creates a sink that writes each line to w.
func NewWriter(w io.Writer, logger logrus.FieldLogger) *Writer {
	return &Writer{w: w, log: logger.WithField("component", "sink")}
}

func (s *Writer) Write(_ context.Context, lines []string) error {
	if len(lines) == 0 {
		s.log.Info("No lines to insert")
		return nil
	}
	bw := bufio.NewWriter(s.w)
	for _, l := range lines {
		bw.WriteString(l)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// AppendEnd inserts after the last line of the file.
const AppendEnd = -1

// File inserts lines into a text file after a given line, the way an editor
// appends below the cursor. Line 0 inserts at the top.
type File struct {
	path  string
	after int
	log   logrus.FieldLogger
}

// NewFile creates a sink that inserts lines into the file at path after
// line after. AppendEnd appends to the end of the file.
func NewFile(path string, after int, logger logrus.FieldLogger) *File {
	return &File{
		path:  path,
		after: after,
		log:   logger.WithFields(logrus.Fields{"component": "sink", "path": path}),
	}
}

// Write inserts lines into the file, creating it if needed. An after line
// past the end of the file appends.
func (s *File) Write(_ context.Context, lines []string) error {
	if len(lines) == 0 {
		s.log.Info("No lines to insert")
		return nil
	}

	content, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	var existing []string
	if len(content) > 0 {
		existing = strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	}

	at := s.after
	if at < 0 || at > len(existing) {
		at = len(existing)
	}

	out := make([]string, 0, len(existing)+len(lines))
	out = append(out, existing[:at]...)
	out = append(out, lines...)
	out = append(out, existing[at:]...)

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(s.path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.WriteFile(s.path, []byte(strings.Join(out, "\n")+"\n"), mode); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}

	s.log.WithFields(logrus.Fields{"after": at, "lines": len(lines)}).Info("Inserted lines")
	return nil
}
