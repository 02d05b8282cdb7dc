// Package log configures the apex/log handler used by the ordcache CLI.
package log

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// DefaultLevel is used when neither a flag nor ORDCACHE_LOG sets a level.
const DefaultLevel = "error"

// InitLogger installs a Handler writing to stderr at the level named by the
// ORDCACHE_LOG env variable.
func InitLogger() {
	level := os.Getenv("ORDCACHE_LOG")
	if level == "" {
		level = DefaultLevel
	}
	log.SetHandler(NewHandler(os.Stderr))
	if err := SetLevel(level); err != nil {
		log.SetLevel(log.ErrorLevel)
	}
}

// SetLevel parses name and makes it the global log level.
func SetLevel(name string) error {
	lvl, err := log.ParseLevel(strings.ToLower(name))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	log.SetLevel(lvl)
	return nil
}

// Handler formats entries as a single line with sorted fields.
type Handler struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewHandler returns a Handler writing to w.
func NewHandler(w io.Writer) *Handler {
	return &Handler{w: w, now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *Handler) HandleLog(e *log.Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", h.now().Format("2006-01-02 15:04:05"), strings.ToUpper(e.Level.String()), e.Message)
	for _, name := range slices.Sorted(maps.Keys(e.Fields)) {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields[name])
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}
