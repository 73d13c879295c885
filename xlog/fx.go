package xlog

import (
	"strings"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var _ fxevent.Logger = (*FxXLogger)(nil)

// FxXLogger reports how an fx app wires and runs its units through a
// XLogger child named "Fx". Every record carries the app name and the unit
// (constructor, invoked function or hook owner) it is about.
type FxXLogger struct {
	logger XLogger
	app    string
}

// fxUnit trims an fx function name such as
// "github.com/benz9527/xhome/cmd/xhome.startRefresher.func1()" down to
// "startRefresher".
func fxUnit(fn string) string {
	fn = strings.TrimSuffix(fn, "()")
	if i := strings.LastIndexByte(fn, '/'); i >= 0 {
		fn = fn[i+1:]
	}
	if _, after, ok := strings.Cut(fn, "."); ok {
		fn = after
	}
	if before, _, ok := strings.Cut(fn, ".func"); ok {
		fn = before
	}
	return fn
}

func (l *FxXLogger) fields(unit string, fields ...zap.Field) []zap.Field {
	fs := make([]zap.Field, 0, len(fields)+2)
	fs = append(fs, zap.String("app", l.app))
	if unit != "" {
		fs = append(fs, zap.String("unit", fxUnit(unit)))
	}
	return append(fs, fields...)
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx logger init failed", l.fields(e.ConstructorName)...)
			return
		}
		l.logger.Debug("fx logger ready", l.fields(e.ConstructorName)...)
	case *fxevent.Supplied:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx supply failed", l.fields(e.TypeName)...)
			return
		}
		l.logger.Debug("fx supplied", l.fields(e.TypeName)...)
	case *fxevent.Provided:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx provide failed", l.fields(e.ConstructorName)...)
			return
		}
		l.logger.Debug("fx provided", l.fields(e.ConstructorName, zap.Strings("types", e.OutputTypeNames))...)
	case *fxevent.Invoking:
		l.logger.Debug("fx invoking", l.fields(e.FunctionName)...)
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx invoke failed", l.fields(e.FunctionName, zap.String("trace", e.Trace))...)
		}
	case *fxevent.OnStartExecuting:
		l.logger.Debug("fx start hook running", l.fields(e.CallerName)...)
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx start hook failed", l.fields(e.CallerName, zap.Duration("runtime", e.Runtime))...)
			return
		}
		l.logger.Debug("fx start hook done", l.fields(e.CallerName, zap.Duration("runtime", e.Runtime))...)
	case *fxevent.OnStopExecuting:
		l.logger.Debug("fx stop hook running", l.fields(e.CallerName)...)
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx stop hook failed", l.fields(e.CallerName, zap.Duration("runtime", e.Runtime))...)
			return
		}
		l.logger.Debug("fx stop hook done", l.fields(e.CallerName, zap.Duration("runtime", e.Runtime))...)
	case *fxevent.RollingBack:
		l.logger.Error(e.StartErr, "fx start failed, rolling back", l.fields("")...)
	case *fxevent.RolledBack:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx rollback failed", l.fields("")...)
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx start failed", l.fields("")...)
			return
		}
		l.logger.Info("fx started", l.fields("")...)
	case *fxevent.Stopping:
		l.logger.Info("fx stopping", l.fields("", zap.String("signal", e.Signal.String()))...)
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx stop failed", l.fields("")...)
			return
		}
		l.logger.Info("fx stopped", l.fields("")...)
	default:
	}
}

func NewFxXLogger(logger XLogger, app string) *FxXLogger {
	return &FxXLogger{logger: newComponentXLogger(logger, "Fx"), app: app}
}
