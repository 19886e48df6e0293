// Package sysutil holds process bootstrap helpers shared by the commands.
package sysutil

import (
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
func SetLogLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// ConfigureLogger replaces the global logger with one writing JSON lines to
// w, or human-readable console output when pretty is set. The global logger
// also becomes the fallback of zerolog.Ctx for contexts without a request
// logger.
func ConfigureLogger(w io.Writer, pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Str("service", "promptgear").Logger()
	zerolog.DefaultContextLogger = &log.Logger
}

// GinMode maps a GIN_MODE value onto one gin accepts, defaulting to release.
func GinMode(v string) string {
	switch m := strings.ToLower(strings.TrimSpace(v)); m {
	case gin.DebugMode, gin.TestMode:
		return m
	default:
		return gin.ReleaseMode
	}
}
