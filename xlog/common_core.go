package xlog

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xhome/lib/infra"
)

var (
	_ xLogCore = (*commonCore)(nil)
	_ xLogCore = (*xLogMultiCore)(nil)
)

type commonCore struct {
	lvlEnabler zapcore.LevelEnabler
	lvlEnc     zapcore.LevelEncoder
	tsEnc      zapcore.TimeEncoder
	ws         zapcore.WriteSyncer
	enc        func(cfg zapcore.EncoderConfig) zapcore.Encoder
	core       zapcore.Core
}

func (cc *commonCore) timeEncoder() zapcore.TimeEncoder                            { return cc.tsEnc }
func (cc *commonCore) levelEncoder() zapcore.LevelEncoder                          { return cc.lvlEnc }
func (cc *commonCore) writeSyncer() zapcore.WriteSyncer                            { return cc.ws }
func (cc *commonCore) outEncoder() func(cfg zapcore.EncoderConfig) zapcore.Encoder { return cc.enc }
func (cc *commonCore) levelEnabler() zapcore.LevelEnabler                          { return cc.lvlEnabler }
func (cc *commonCore) Enabled(lvl zapcore.Level) bool {
	return cc.lvlEnabler.Enabled(lvl)
}

func (cc *commonCore) With(fields []zap.Field) zapcore.Core {
	clone := *cc
	clone.core = cc.core.With(fields)
	return &clone
}

func (cc *commonCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return cc.core.Check(ent, ce)
}

func (cc *commonCore) Write(ent zapcore.Entry, fields []zap.Field) error {
	return cc.core.Write(ent, fields)
}

func (cc *commonCore) Sync() error {
	return cc.core.Sync()
}

// xLogMultiCore fans one entry out to several writers and keeps every
// underlying core rewrappable.
type xLogMultiCore struct {
	cores []xLogCore
}

func (mc *xLogMultiCore) timeEncoder() zapcore.TimeEncoder   { return mc.cores[0].timeEncoder() }
func (mc *xLogMultiCore) levelEncoder() zapcore.LevelEncoder { return mc.cores[0].levelEncoder() }
func (mc *xLogMultiCore) writeSyncer() zapcore.WriteSyncer   { return mc.cores[0].writeSyncer() }
func (mc *xLogMultiCore) outEncoder() func(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return mc.cores[0].outEncoder()
}
func (mc *xLogMultiCore) levelEnabler() zapcore.LevelEnabler { return mc.cores[0].levelEnabler() }

func (mc *xLogMultiCore) Enabled(lvl zapcore.Level) bool {
	for _, c := range mc.cores {
		if c.Enabled(lvl) {
			return true
		}
	}
	return false
}

func (mc *xLogMultiCore) With(fields []zap.Field) zapcore.Core {
	cores := make([]xLogCore, 0, len(mc.cores))
	for _, c := range mc.cores {
		cores = append(cores, c.With(fields).(xLogCore))
	}
	return &xLogMultiCore{cores: cores}
}

func (mc *xLogMultiCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	for _, c := range mc.cores {
		ce = c.Check(ent, ce)
	}
	return ce
}

func (mc *xLogMultiCore) Write(ent zapcore.Entry, fields []zap.Field) error {
	var err error
	for _, c := range mc.cores {
		err = multierr.Append(err, c.Write(ent, fields))
	}
	return err
}

func (mc *xLogMultiCore) Sync() error {
	var err error
	for _, c := range mc.cores {
		err = multierr.Append(err, c.Sync())
	}
	return err
}

// XLogTeeCore merges cores, dropping nil ones. A single core is returned as is.
func XLogTeeCore(cores ...xLogCore) xLogCore {
	valid := make([]xLogCore, 0, len(cores))
	for _, c := range cores {
		if c != nil {
			valid = append(valid, c)
		}
	}
	switch len(valid) {
	case 0:
		return nil
	case 1:
		return valid[0]
	default:
	}
	return &xLogMultiCore{cores: valid}
}

// WrapCore rebuilds the core with another encoder config while keeping its
// writer and level enabler, so a child logger follows the parent's level.
func WrapCore(core xLogCore, cfg *zapcore.EncoderConfig) (xLogCore, error) {
	if cfg == nil {
		return nil, infra.NewErrorStack("[XLogger] logger core config is empty")
	}
	if core == nil {
		return nil, infra.NewErrorStack("[XLogger] logger core is nil")
	}
	if mc, ok := core.(*xLogMultiCore); ok {
		cores := make([]xLogCore, 0, len(mc.cores))
		for _, c := range mc.cores {
			wrapped, err := WrapCore(c, cfg)
			if err != nil {
				return nil, err
			}
			cores = append(cores, wrapped)
		}
		return &xLogMultiCore{cores: cores}, nil
	}

	_cfg := *cfg
	_cfg.EncodeLevel = core.levelEncoder()
	_cfg.EncodeTime = core.timeEncoder()
	cc := &commonCore{
		ws:         core.writeSyncer(),
		enc:        core.outEncoder(),
		lvlEnabler: core.levelEnabler(),
		lvlEnc:     core.levelEncoder(),
		tsEnc:      core.timeEncoder(),
	}
	cc.core = zapcore.NewCore(cc.enc(_cfg), cc.ws, cc.lvlEnabler)
	return cc, nil
}

var componentCoreEncoderCfg = &zapcore.EncoderConfig{
	MessageKey:    "msg",
	LevelKey:      "lvl",
	TimeKey:       "ts",
	CallerKey:     coreKeyIgnored,
	EncodeCaller:  zapcore.ShortCallerEncoder,
	FunctionKey:   coreKeyIgnored,
	NameKey:       "component",
	EncodeName:    zapcore.FullNameEncoder,
	StacktraceKey: coreKeyIgnored,
}
