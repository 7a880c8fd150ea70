package cpu

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Manu343726/armv4t/pkg/utils"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/viper"
)

var ErrInvalidLogLevel = errors.New("invalid log level")

// parseLevel accepts the slog level names and "trace" as an alias of debug.
// An empty name means warn.
func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	switch {
	case name == "":
		return slog.LevelWarn, nil
	case strings.EqualFold(name, "trace"):
		return slog.LevelDebug, nil
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return level, utils.MakeError(ErrInvalidLogLevel, "'%s'", name)
	}
	return level, nil
}

// newLogger builds the logger configured by the log.level and log.file
// keys: text records on stderr, plus JSON records in the log file if any.
// The returned closer releases the log file.
func newLogger(stderr io.Writer) (*slog.Logger, func() error, error) {
	level, err := parseLevel(viper.GetString("log.level"))
	if err != nil {
		return nil, nil, err
	}

	options := &slog.HandlerOptions{Level: level}
	handlers := []slog.Handler{slog.NewTextHandler(stderr, options)}
	closer := func() error { return nil }

	if path := viper.GetString("log.file"); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = file.Close
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}
