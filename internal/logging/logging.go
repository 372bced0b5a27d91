// Package logging sets up structured logging in a uniform way, and
// provides leveled helpers so callers don't have to repeat the
// "level" keyval everywhere.
package logging

import (
	"os"

	"github.com/go-kit/log"
)

// Provided by ldflags during build
var (
	release string
	commit  string
	branch  string
)

// Init returns a logger configured with common settings like
// timestamping and source code locations.
//
// Init should be called as early as possible in main(), before any
// application-specific logging occurs.
func Init() log.Logger {
	l := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger := log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	logger.Log("release", release, "commit", commit, "git-branch", branch, "msg", "Starting")

	return logger
}

// Info logs keyvals at info level.
func Info(logger log.Logger, keyvals ...interface{}) {
	log.With(logger, "level", "info").Log(keyvals...)
}

// Debug logs keyvals at debug level.
func Debug(logger log.Logger, keyvals ...interface{}) {
	log.With(logger, "level", "debug").Log(keyvals...)
}

// Error logs keyvals at error level.
func Error(logger log.Logger, keyvals ...interface{}) {
	log.With(logger, "level", "error").Log(keyvals...)
}
