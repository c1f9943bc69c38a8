package ui_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/debsync/internal/ui"
)

func TestWriterReporterTerminatesLines(testInstance *testing.T) {
	var buffer bytes.Buffer
	reporter := ui.NewWriterReporter(&buffer)

	reporter.Printf("Found %d packages", 2)
	reporter.Printf("Processing %s\n", "abc1234")

	require.Equal(testInstance, "Found 2 packages\nProcessing abc1234\n", buffer.String())
}

func TestWriterReporterConcurrentWrites(testInstance *testing.T) {
	var buffer bytes.Buffer
	reporter := ui.NewWriterReporter(&buffer)

	var waitGroup sync.WaitGroup
	for index := 0; index < 16; index++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			reporter.Printf("line")
		}()
	}
	waitGroup.Wait()

	require.Equal(testInstance, strings.Repeat("line\n", 16), buffer.String())
}
