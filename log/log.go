// Package log wraps the process-wide zap logger behind a small API so the
// rest of the code logs without carrying a logger handle around.
package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// SetUpLogger installs a production zap logger as the global one. Called
// once from main before anything logs.
func SetUpLogger() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %v\n", err)
		return
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "could not flush buffered log entries: %v\n", err)
		}
	}()

	zap.ReplaceGlobals(logger)
}

func LogAppInfo(msg string) {
	zap.S().Infow(msg)
}

func LogAppWarn(msg string, err error) {
	zap.S().Warnw(msg,
		"cause", err,
	)
}

// LogAppErr records a failure together with its cause. Callers pass the
// wrapped error straight through.
func LogAppErr(msg string, err error) {
	zap.S().Errorw(msg,
		"cause", err,
	)
}
