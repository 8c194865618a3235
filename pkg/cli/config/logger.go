package config

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Logger holds CLI flags for the process logger
type Logger struct {
	level  string
	format string
	output string
}

func (x *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level [debug|info|warn|error]",
			Category:    "Logging",
			Value:       "info",
			Sources:     cli.EnvVars("BNRA_LOG_LEVEL"),
			Destination: &x.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format [console|json]",
			Category:    "Logging",
			Value:       "console",
			Sources:     cli.EnvVars("BNRA_LOG_FORMAT"),
			Destination: &x.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Usage:       "Log output [stdout|stderr|<file path>]",
			Category:    "Logging",
			Value:       "stderr",
			Sources:     cli.EnvVars("BNRA_LOG_OUTPUT"),
			Destination: &x.output,
		},
	}
}

func (x Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", x.level),
		slog.String("format", x.format),
		slog.String("output", x.output),
	)
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Configure replaces the default logger. The returned function closes the
// log file when one is used.
func (x *Logger) Configure() (func(), error) {
	closer := func() {}

	level, ok := logLevels[x.level]
	if !ok {
		return closer, goerr.Wrap(ErrInvalidConfig, "invalid log level", goerr.V("level", x.level))
	}

	var w io.Writer
	switch x.output {
	case "stdout", "-":
		w = os.Stdout
	case "stderr", "":
		w = os.Stderr
	default:
		// #nosec G304 - path is expected to be provided by CLI argument
		f, err := os.OpenFile(x.output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return closer, goerr.Wrap(err, "failed to open log file", goerr.V("path", x.output))
		}
		w = f
		closer = func() {
			if err := f.Close(); err != nil {
				slog.Error("failed to close log file", "error", err.Error())
			}
		}
	}

	handler, err := newLogHandler(x.format, w, level)
	if err != nil {
		closer()
		return func() {}, err
	}

	logging.SetDefault(slog.New(handler))
	return closer, nil
}

func newLogHandler(format string, w io.Writer, level slog.Level) (slog.Handler, error) {
	filter := masq.New(
		masq.WithTag("secret"),
		masq.WithFieldName("Token"),
		masq.WithFieldName("BotToken"),
		masq.WithFieldName("DSN"),
	)

	switch format {
	case "console":
		return clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(filter),
			clog.WithSource(level == slog.LevelDebug),
			clog.WithColorMap(&clog.ColorMap{
				Level: map[slog.Level]*color.Color{
					slog.LevelDebug: color.New(color.FgGreen, color.Bold),
					slog.LevelInfo:  color.New(color.FgCyan, color.Bold),
					slog.LevelWarn:  color.New(color.FgYellow, color.Bold),
					slog.LevelError: color.New(color.FgRed, color.Bold),
				},
				LevelDefault: color.New(color.FgBlue, color.Bold),
				Time:         color.New(color.FgWhite),
				Message:      color.New(color.FgHiWhite),
				AttrKey:      color.New(color.FgHiCyan),
				AttrValue:    color.New(color.FgHiWhite),
			}),
		), nil

	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   true,
			Level:       level,
			ReplaceAttr: filter,
		}), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid log format", goerr.V("format", format))
	}
}
