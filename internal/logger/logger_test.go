package logger

import (
	"bytes"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, verboseOn bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseOn)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name     string
		log      func()
		verbose  string
		disabled string
	}{
		{
			name:    "debug",
			log:     func() { Debug("embedding %d chunks", 3) },
			verbose: "[DEBUG] embedding 3 chunks\n",
		},
		{
			name:    "info",
			log:     func() { Info("stored %s", "batch 0") },
			verbose: "[INFO] stored batch 0\n",
		},
		{
			name:    "warn",
			log:     func() { Warn("dimension mismatch") },
			verbose: "[WARN] dimension mismatch\n",
		},
		{
			name:    "section",
			log:     func() { Section("Add Directory") },
			verbose: "\n=== Add Directory ===\n",
		},
		{
			name:     "error is always written",
			log:      func() { Error("page %d failed", 2) },
			verbose:  "[ERROR] page 2 failed\n",
			disabled: "[ERROR] page 2 failed\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+" verbose", func(t *testing.T) {
			buf := capture(t, true)
			tt.log()
			assert.Equal(t, tt.verbose, buf.String())
		})
		t.Run(tt.name+" quiet", func(t *testing.T) {
			buf := capture(t, false)
			tt.log()
			assert.Equal(t, tt.disabled, buf.String())
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, true)
	SetOutput(io.Discard)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			Debug("message %d", n)
		}(i)
		go func(n int) {
			defer wg.Done()
			SetVerbose(n%2 == 0)
		}(i)
	}
	wg.Wait()
}
