package logger

import (
	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
)

// Logger is re-exported from eigensdk-go so packages only import this one.
type Logger = sdklogging.Logger

// New builds the zap backed logger for the given environment, which is either
// "development" or "production".
func New(environment string) (Logger, error) {
	env := sdklogging.LogLevel(environment)
	if env != sdklogging.Development {
		env = sdklogging.Production
	}
	return sdklogging.NewZapLogger(env)
}

// Nop discards everything.
type Nop struct{}

func (l *Nop) Debug(msg string, tags ...any)       {}
func (l *Nop) Info(msg string, tags ...any)        {}
func (l *Nop) Warn(msg string, tags ...any)        {}
func (l *Nop) Error(msg string, tags ...any)       {}
func (l *Nop) Fatal(msg string, tags ...any)       {}
func (l *Nop) Debugf(template string, args ...any) {}
func (l *Nop) Infof(template string, args ...any)  {}
func (l *Nop) Warnf(template string, args ...any)  {}
func (l *Nop) Errorf(template string, args ...any) {}
func (l *Nop) Fatalf(template string, args ...any) {}
func (l *Nop) With(tags ...any) Logger             { return l }

// OrNop returns l, or a Nop logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return &Nop{}
	}
	return l
}
