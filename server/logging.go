package server

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// NewLogger returns a logfmt logger on stderr that drops everything below
// lvl.
func NewLogger(lvl string) (log.Logger, error) {
	opt, err := parseLevel(lvl)
	if err != nil {
		return nil, err
	}
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		color.NoColor = true
	}
	return newLogger(colorable.NewColorableStderr(), opt), nil
}

func newLogger(w io.Writer, opt level.Option) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, opt)
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func parseLevel(lvl string) (level.Option, error) {
	switch lvl {
	case "debug":
		return level.AllowDebug(), nil
	case "info":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	}
	return nil, errors.Errorf("unrecognized log level %q", lvl)
}

// logRequest logs a served request with color-coded outcome
func logRequest(logger log.Logger, req *Request, outcome Outcome) {
	line := req.Method + " " + req.Path + " " + outcome.String()
	switch outcome {
	case OutcomeServed:
		line = color.GreenString("%s", line)
	case OutcomeNotFound:
		line = color.RedString("%s", line)
	default:
		line = color.YellowString("%s", line)
	}
	level.Info(logger).Log("msg", line)
}
