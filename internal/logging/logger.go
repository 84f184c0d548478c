// Package logging configures the process-wide logrus logger.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the global logger. It discards output until Init is called.
var Logger = newDiscardLogger()

var once sync.Once

// Options controls log output.
type Options struct {
	// Dir is the directory for the rotating log file. Empty disables file output.
	Dir string
	// Debug lowers the level to debug and mirrors entries to Stderr.
	Debug  bool
	Stderr io.Writer

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// LogFileName is the rotating log file name inside Options.Dir.
const LogFileName = "taskdeck.log"

// Formatter renders entries as a single comma-separated line.
type Formatter struct {
	Source string
}

// Format implements logrus.Formatter.
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	fmt.Fprintf(b, "Time: %s, ", entry.Time.Format("2006-01-02T15:04:05.000Z07:00"))
	fmt.Fprintf(b, "Event Source: %s, ", f.Source)
	fmt.Fprintf(b, "Event Type: %s, ", strings.ToUpper(entry.Level.String()))
	fmt.Fprintf(b, "Message: %s", entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, ", %s=%v", k, entry.Data[k])
		}
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Init configures Logger once per process.
func Init(opts Options) error {
	var initErr error
	once.Do(func() {
		initErr = configure(Logger, opts)
	})
	return initErr
}

func configure(l *logrus.Logger, opts Options) error {
	var writers []io.Writer

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0700); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, LogFileName),
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		})
	}

	level := logrus.InfoLevel
	if opts.Debug {
		level = logrus.DebugLevel
		if opts.Stderr != nil {
			writers = append(writers, opts.Stderr)
		}
	}

	switch len(writers) {
	case 0:
		l.SetOutput(io.Discard)
	case 1:
		l.SetOutput(writers[0])
	default:
		l.SetOutput(io.MultiWriter(writers...))
	}
	l.SetFormatter(&Formatter{Source: "taskdeck"})
	l.SetLevel(level)

	l.Debugf("Event ID: LOGGER_INITIALIZED, Description: logger initialized, dir=%q", opts.Dir)
	return nil
}

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(&Formatter{Source: "taskdeck"})
	return l
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
