// Package logging provides topic-gated loggers on top of log/slog. Topics
// are enabled through the DEBUG_TOPICS env var (comma separated, or "all"),
// so a noisy subsystem costs a single bool check when switched off.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

var enabledTopics = make(map[string]bool)

func init() {
	topics := os.Getenv("DEBUG_TOPICS")
	if topics == "" {
		return
	}
	if topics == "all" {
		enabledTopics["*"] = true
	} else {
		for _, t := range strings.Split(topics, ",") {
			if t = strings.TrimSpace(t); t != "" {
				enabledTopics[t] = true
			}
		}
	}
	if len(enabledTopics) > 0 {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
}

// Logger tags records with its topic and drops debug output unless the topic
// was enabled at startup.
type Logger struct {
	topic   string
	enabled bool
}

// New creates a topic logger. Typical usage:
//
//	var log = logging.New("sim")
func New(topic string) *Logger {
	return &Logger{
		topic:   topic,
		enabled: enabledTopics["*"] || enabledTopics[topic],
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	if !l.enabled {
		return
	}
	slog.Debug(msg, append([]any{"topic", l.topic}, args...)...)
}

func (l *Logger) Info(msg string, args ...any) {
	slog.Info(msg, append([]any{"topic", l.topic}, args...)...)
}

func (l *Logger) Warn(msg string, args ...any) {
	slog.Warn(msg, append([]any{"topic", l.topic}, args...)...)
}

func (l *Logger) Error(msg string, args ...any) {
	slog.Error(msg, append([]any{"topic", l.topic}, args...)...)
}
