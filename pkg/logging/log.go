package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FormatEnv selects the log encoding: "console" (default) or "json".
const FormatEnv = "HELA_LOG_FORMAT"

// SetupLogger installs the process logger. Logs always go to stderr; stdout carries command
// output only.
func SetupLogger() {
	log.Logger = NewLogger(os.Stderr, os.Getenv(FormatEnv))
}

// NewLogger returns a JSON logger when format is "json" and the console logger otherwise.
func NewLogger(out io.Writer, format string) zerolog.Logger {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return zerolog.New(out).With().Timestamp().Logger()
	}
	return NewConsoleLogger(out)
}

func NewConsoleLogger(out io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("[ %s ]", i)
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

func GetLogger() zerolog.Logger {
	return log.Logger
}
