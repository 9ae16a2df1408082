package logger

import (
	"go.uber.org/zap"
)

// Logger is the process-wide logger for the receiver. Development
// config: console encoding, debug level and up.
var Logger = newLogger()

func newLogger() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return l.Named("pet-receiver")
}
