package xlog

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConsoleCore(t *testing.T) {
	lvlEnabler := zap.NewAtomicLevelAt(LogLevelDebug.zapLevel())
	cc := newConsoleCore(
		lvlEnabler,
		JSON,
		_writerMax,
		zapcore.CapitalLevelEncoder,
		zapcore.ISO8601TimeEncoder,
	)
	require.Nil(t, cc)

	cc = newConsoleCore(
		lvlEnabler,
		JSON,
		StdOut,
		zapcore.CapitalLevelEncoder,
		zapcore.ISO8601TimeEncoder,
	)
	require.NotNil(t, cc.outEncoder())
	require.NotNil(t, cc.writeSyncer())
	require.NotNil(t, cc.levelEncoder())
	require.NotNil(t, cc.timeEncoder())
	require.NotNil(t, cc.levelEnabler())

	require.True(t, cc.Enabled(zapcore.DebugLevel))
	lvlEnabler.SetLevel(zapcore.ErrorLevel)
	require.False(t, cc.Enabled(zapcore.DebugLevel))
	require.False(t, cc.Enabled(zapcore.WarnLevel))
	require.True(t, cc.Enabled(zapcore.ErrorLevel))
	lvlEnabler.SetLevel(zapcore.DebugLevel)

	core := cc.With([]zap.Field{zap.String("key", "value")})
	_, ok := core.(xLogCore)
	require.True(t, ok)
}

func TestWrapCore(t *testing.T) {
	w := &testMemOutWriter{}
	setOutWriter(testMemAsOut, zapcore.AddSync(w))
	lvlEnabler := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	cc := newConsoleCore(lvlEnabler, JSON, testMemAsOut, zapcore.CapitalLevelEncoder, zapcore.ISO8601TimeEncoder)

	_, err := WrapCore(cc, nil)
	require.Error(t, err)
	_, err = WrapCore(nil, componentCoreEncoderCfg)
	require.Error(t, err)

	wrapped, err := WrapCore(cc, componentCoreEncoderCfg)
	require.NoError(t, err)
	require.NoError(t, wrapped.Write(zapcore.Entry{Level: zapcore.InfoLevel, LoggerName: "Home", Message: "wrapped"}, nil))
	require.Contains(t, w.String(), `"component":"Home"`)
	require.NotContains(t, w.String(), "callAt")

	lvlEnabler.SetLevel(zapcore.ErrorLevel)
	require.False(t, wrapped.Enabled(zapcore.InfoLevel))
}

func TestXLogTeeCore(t *testing.T) {
	require.Nil(t, XLogTeeCore())
	require.Nil(t, XLogTeeCore(nil, nil))

	w := &testMemOutWriter{}
	setOutWriter(testMemAsOut, zapcore.AddSync(w))
	lvlEnabler := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	c1 := newConsoleCore(lvlEnabler, JSON, testMemAsOut, zapcore.CapitalLevelEncoder, zapcore.ISO8601TimeEncoder)
	require.Equal(t, c1, XLogTeeCore(nil, c1))

	c2 := newConsoleCore(lvlEnabler, PlainText, testMemAsOut, zapcore.CapitalLevelEncoder, zapcore.ISO8601TimeEncoder)
	tee := XLogTeeCore(c1, c2)
	_, ok := tee.(*xLogMultiCore)
	require.True(t, ok)
	require.True(t, tee.Enabled(zapcore.InfoLevel))
	require.False(t, tee.Enabled(zapcore.DebugLevel))

	ent := zapcore.Entry{Level: zapcore.InfoLevel, Message: "tee"}
	ce := tee.With([]zap.Field{zap.Int("n", 1)}).Check(ent, nil)
	require.NotNil(t, ce)
	ce.Write()
	require.NoError(t, tee.Sync())

	wrapped, err := WrapCore(tee, componentCoreEncoderCfg)
	require.NoError(t, err)
	_, ok = wrapped.(*xLogMultiCore)
	require.True(t, ok)
}
