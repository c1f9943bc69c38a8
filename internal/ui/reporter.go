package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

const lineTerminatorConstant = "\n"

// Reporter emits progress lines to an underlying sink.
type Reporter interface {
	Printf(format string, args ...any)
}

type writerReporter struct {
	mutex  sync.Mutex
	writer io.Writer
}

// NewWriterReporter constructs a Reporter that writes one line per call to the provided io.Writer.
// A nil writer selects standard output. Calls are safe for concurrent use.
func NewWriterReporter(writer io.Writer) Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &writerReporter{writer: writer}
}

func (reporter *writerReporter) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if len(line) == 0 || line[len(line)-1:] != lineTerminatorConstant {
		line += lineTerminatorConstant
	}
	reporter.mutex.Lock()
	defer reporter.mutex.Unlock()
	_, _ = io.WriteString(reporter.writer, line)
}

// DiscardReporter drops every line.
type DiscardReporter struct{}

// Printf implements Reporter.
func (DiscardReporter) Printf(string, ...any) {}
