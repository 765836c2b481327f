package router

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observeLogs redirects package logger into memory for the duration of the test
func observeLogs(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zapcore.DebugLevel)
	previous := log
	log = zap.New(core)
	t.Cleanup(func() {
		log = previous
	})
	return logs
}

func withLevel(logs *observer.ObservedLogs, level int) *observer.ObservedLogs {
	return logs.Filter(func(e observer.LoggedEntry) bool {
		return e.ContextMap()["level"] == int64(level)
	})
}
