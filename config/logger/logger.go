package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timeFormat = "2006-01-02 15:04:05.000"

type CommonLogger struct {
	Info    zerolog.Logger
	Error   zerolog.Logger
	Trace   zerolog.Logger
	Warning zerolog.Logger
	Stream  zerolog.Logger
}

// AppLogger splits logs by channel: Http for the reference server, Sync for
// the client poll loops. Every level of a channel also goes to its own
// rotating file under the log directory.
type AppLogger struct {
	Http CommonLogger
	Sync CommonLogger
}

func NewLogger(dir string) *AppLogger {
	_ = os.MkdirAll(dir, 0755)
	zerolog.TimeFieldFormat = timeFormat

	console := formatWriter(os.Stderr, false)
	return &AppLogger{
		Http: newChannel(console, dir, "http"),
		Sync: newChannel(console, dir, "sync"),
	}
}

// NewNopLogger discards everything.
func NewNopLogger() *AppLogger {
	nop := zerolog.Nop()
	channel := CommonLogger{Info: nop, Error: nop, Trace: nop, Warning: nop, Stream: nop}
	return &AppLogger{Http: channel, Sync: channel}
}

func newChannel(console io.Writer, dir, channel string) CommonLogger {
	level := func(name string) zerolog.Logger {
		rotating := &lumberjack.Logger{
			Filename:   filepath.Join(dir, channel+"."+name+".log"),
			MaxSize:    5,
			MaxAge:     20,
			MaxBackups: 5,
			Compress:   true,
		}
		out := io.MultiWriter(console, formatWriter(rotating, true))
		return zerolog.New(out).With().Timestamp().Str("channel", channel).Logger()
	}
	return CommonLogger{
		Stream:  level("stream"),
		Info:    level("info"),
		Trace:   level("trace"),
		Warning: level("warning"),
		Error:   level("error"),
	}
}

// formatWriter renders "[time] [LEVEL] message key=value" lines.
func formatWriter(out io.Writer, plain bool) zerolog.ConsoleWriter {
	w := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    plain,
		TimeFormat: timeFormat,
		FormatTimestamp: func(i interface{}) string {
			return fmt.Sprintf("[%s]", i)
		},
		FormatLevel: func(i interface{}) string {
			return fmt.Sprintf("[%s]", strings.ToUpper(fmt.Sprint(i)))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprint(i)
		},
	}
	if plain {
		w.FormatFieldName = func(i interface{}) string { return fmt.Sprintf("%s=", i) }
		w.FormatFieldValue = func(i interface{}) string { return fmt.Sprintf("%v", i) }
	}
	return w
}
