package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerFormatsSortedFields(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf)
	h.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	logger := &log.Logger{Handler: h, Level: log.DebugLevel}
	logger.WithFields(log.Fields{"key": 3, "cache": "size"}).Info("set")

	assert.Equal(t, "2025-01-02 03:04:05 I set cache=size key=3\n", buf.String())
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { log.SetLevel(log.ErrorLevel) })

	require.NoError(t, SetLevel("DEBUG"))
	require.NoError(t, SetLevel("warn"))
	assert.Error(t, SetLevel("chatty"))
}
