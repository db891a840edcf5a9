// Package transcript records assessment conversations as per-session NDJSON
// files. Writes happen on a background goroutine; a full queue drops events
// rather than blocking the request path.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
)

// Directions.
const (
	Inbound  = "inbound"
	Outbound = "outbound"
)

// Event is one transcript line.
type Event struct {
	Timestamp  time.Time      `json:"ts"`
	ClientID   string         `json:"client_id,omitempty"`
	SessionID  string         `json:"session_id"`
	Channel    string         `json:"channel"`
	Direction  string         `json:"direction"`
	EventType  string         `json:"event_type"`
	Stage      string         `json:"stage,omitempty"`
	ContentRaw string         `json:"content_raw,omitempty"`
	Content    string         `json:"content,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// Logger accepts transcript events.
type Logger interface {
	Log(Event)
	Close() error
}

// Config controls file transcripts.
type Config struct {
	Enabled bool
	Dir     string
	// GlobalPath, when set, also receives every event.
	GlobalPath string
	QueueSize  int
}

// Nop discards events.
type Nop struct{}

// Log discards ev.
func (Nop) Log(Event) {}

// Close is a no-op.
func (Nop) Close() error { return nil }

var safeName = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileLogger writes events to {dir}/{client}/{session}.ndjson.
type FileLogger struct {
	dir        string
	globalPath string
	queue      chan Event
	logger     *slog.Logger
	dropped    atomic.Int64

	closeOnce sync.Once
	done      chan struct{}
}

// New returns a FileLogger, or Nop when transcripts are disabled.
func New(cfg Config, logger *slog.Logger) (Logger, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("transcript directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 1000
	}

	l := &FileLogger{
		dir:        cfg.Dir,
		globalPath: cfg.GlobalPath,
		queue:      make(chan Event, size),
		logger:     logger,
		done:       make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Log enqueues ev without blocking.
func (l *FileLogger) Log(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if ev.Content == "" && ev.ContentRaw != "" {
		ev.Content = cleanForReadability(ev.ContentRaw)
	}

	defer func() {
		// Log after Close must not panic the caller.
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()
	select {
	case l.queue <- ev:
	default:
		if n := l.dropped.Add(1); n == 1 || n%100 == 0 {
			l.logger.Warn("transcript queue full, dropping events", "dropped", n)
		}
	}
}

// Dropped returns how many events were discarded.
func (l *FileLogger) Dropped() int64 {
	return l.dropped.Load()
}

// Close drains the queue and stops the writer.
func (l *FileLogger) Close() error {
	l.closeOnce.Do(func() {
		close(l.queue)
	})
	<-l.done
	return nil
}

func (l *FileLogger) run() {
	defer close(l.done)
	for ev := range l.queue {
		line, err := json.Marshal(ev)
		if err != nil {
			l.logger.Warn("failed to encode transcript event", "session_id", ev.SessionID, "error", err)
			continue
		}
		line = append(line, '\n')

		if err := appendLine(l.sessionPath(ev), line); err != nil {
			l.logger.Warn("failed to write transcript", "session_id", ev.SessionID, "error", err)
		}
		if l.globalPath != "" {
			if err := appendLine(l.globalPath, line); err != nil {
				l.logger.Warn("failed to write global transcript", "error", err)
			}
		}
	}
}

func (l *FileLogger) sessionPath(ev Event) string {
	client := ev.ClientID
	if client == "" {
		client = "anonymous"
	}
	session := ev.SessionID
	if session == "" {
		session = "unknown"
	}
	return filepath.Join(l.dir, safeName.ReplaceAllString(client, "_"), safeName.ReplaceAllString(session, "_")+".ndjson")
}

func appendLine(path string, line []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07]*\x07`)

// cleanForReadability strips terminal escapes and control characters and
// collapses whitespace.
func cleanForReadability(s string) string {
	s = ansiPattern.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
