package xlog

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xhome/lib/infra"
)

type testMemOutWriter struct {
	lock sync.Mutex
	data []byte
}

func (w *testMemOutWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *testMemOutWriter) String() string {
	w.lock.Lock()
	defer w.lock.Unlock()
	return string(w.data)
}

func (w *testMemOutWriter) Reset() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.data = make([]byte, 0, 4096)
}

func newTestMemLogger(t *testing.T, opts ...XLoggerOption) (XLogger, *testMemOutWriter) {
	t.Helper()
	w := &testMemOutWriter{data: make([]byte, 0, 4096)}
	setOutWriter(testMemAsOut, zapcore.AddSync(w))
	opts = append([]XLoggerOption{
		WithXLoggerLevel(LogLevelDebug),
		WithXLoggerEncoder(JSON),
		WithXLoggerWriter(testMemAsOut),
	}, opts...)
	return NewXLogger(opts...), w
}

func TestLogLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LogLevelDebug.String())
	require.Equal(t, "INFO", LogLevelInfo.String())
	require.Equal(t, "WARN", LogLevelWarn.String())
	require.Equal(t, "ERROR", LogLevelError.String())
	require.Equal(t, zapcore.DebugLevel, LogLevelDebug.zapLevel())
	require.Equal(t, zapcore.InfoLevel, LogLevelInfo.zapLevel())
	require.Equal(t, zapcore.WarnLevel, LogLevelWarn.zapLevel())
	require.Equal(t, zapcore.ErrorLevel, LogLevelError.zapLevel())
	require.True(t, LogLevel("info").IsValid())
	require.False(t, LogLevel("TRACE").IsValid())
	require.Equal(t, zapcore.WarnLevel, getLogLevelOrDefault("warn"))
	require.Equal(t, zapcore.DebugLevel, getLogLevelOrDefault(" "))
}

func TestEncoderAndWriterOf(t *testing.T) {
	testcases := []struct {
		name    string
		wantEnc LogEncoderType
		wantErr bool
	}{
		{"", JSON, false},
		{"JSON", JSON, false},
		{"plaintext", PlainText, false},
		{"yaml", _encMax, true},
	}
	for _, tc := range testcases {
		enc, err := EncoderOf(tc.name)
		require.Equal(t, tc.wantEnc, enc)
		if tc.wantErr {
			require.Error(t, err)
			require.True(t, infra.IsErrorStack(err))
			continue
		}
		require.NoError(t, err)
	}

	w, err := WriterOf("buffered_stdout")
	require.NoError(t, err)
	require.Equal(t, BufferedStdOut, w)
	_, err = WriterOf("file")
	require.Error(t, err)
}

type testBanner struct{}

func (b testBanner) JSON() string {
	return "{\"app\":\"xhome\"}"
}

func (b testBanner) PlainText() string {
	return "xhome"
}

func TestLoggerPrintBanner(t *testing.T) {
	printBanner = sync.Once{}
	logger, w := newTestMemLogger(t)
	logger.Banner(testBanner{})
	require.Equal(t, "{\"banner\":\"{\\\"app\\\":\\\"xhome\\\"}\"}\n", w.String())
	w.Reset()

	// Printed once per process.
	logger.Banner(testBanner{})
	require.Empty(t, w.String())

	printBanner = sync.Once{}
	logger, w = newTestMemLogger(t, WithXLoggerEncoder(PlainText))
	logger.Banner(testBanner{})
	require.Equal(t, "xhome\n", w.String())
}

func TestXLogger_ErrorStack(t *testing.T) {
	logger, w := newTestMemLogger(t)
	err := infra.WrapErrorStack(errors.New("boom"), "refresh")
	logger.ErrorStack(err, "house refresh failed", zap.String("house", "House0"))
	_ = logger.Sync()

	out := w.String()
	require.Contains(t, out, `"msg":"house refresh failed"`)
	require.Contains(t, out, `"error":"refresh: boom"`)
	require.Contains(t, out, `"errorStack"`)
	require.Contains(t, out, `"house":"House0"`)
	w.Reset()

	logger.ErrorStack(errors.New("plain"), "plain failure")
	require.Contains(t, w.String(), `"error":"plain"`)
	require.NotContains(t, w.String(), `"errorStack"`)
}

func TestXLogger_ContextFields(t *testing.T) {
	logger, w := newTestMemLogger(t,
		WithXLoggerContextFieldExtract("traceId", "TraceID"),
		WithXLoggerContextFieldExtract("house"),
		WithXLoggerContextFieldExtract("secret", ContextKeyMapToOmitempty),
		WithXLoggerContextFieldExtract(""),
	)
	ctx := context.WithValue(context.TODO(), "traceId", "1234567890")
	ctx = context.WithValue(ctx, "secret", "xyz")
	logger.InfoContext(ctx, "context message")

	out := w.String()
	require.Contains(t, out, `"TraceID":"1234567890"`)
	require.Contains(t, out, `"house":"nil"`)
	require.NotContains(t, out, "xyz")
}

func TestXLogger_DynamicLevel(t *testing.T) {
	logger, w := newTestMemLogger(t)
	logger.IncreaseLogLevel(zapcore.WarnLevel)
	require.Equal(t, zapcore.WarnLevel.String(), logger.Level())
	logger.Debug("unprintable debug")
	logger.Info("unprintable info")
	logger.Logf(zapcore.WarnLevel, "printable warn %d", 1)
	require.NotContains(t, w.String(), "unprintable")
	require.Contains(t, w.String(), "printable warn 1")

	logger.IncreaseLogLevel(zapcore.DebugLevel)
	logger.DebugContext(context.TODO(), "dynamic printable debug")
	require.Contains(t, w.String(), "dynamic printable debug")
}

func TestXLogger_AllAPIs(t *testing.T) {
	testcases := []struct {
		name    string
		encoder LogEncoderType
	}{
		{"json", JSON},
		{"plaintext", PlainText},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			logger, w := newTestMemLogger(tt, WithXLoggerEncoder(tc.encoder))
			ctx := context.WithValue(context.TODO(), "traceId", "1234567890")
			err1 := infra.WrapErrorStack(errors.New("error 1"), "")

			logger.Debug("debug message 1")
			logger.DebugContext(ctx, "debug message 2")
			logger.Info("info message 1")
			logger.InfoContext(ctx, "info message 2")
			logger.Warn("warn message 1")
			logger.WarnContext(ctx, "warn message 2")
			logger.Error(err1, "error message 1")
			logger.ErrorContext(ctx, err1, "error message 2")
			logger.ErrorStack(err1, "error message 3")
			logger.ErrorStackContext(ctx, err1, "error message 4")
			logger.ErrorStackf(err1, "error message %d", 5)
			require.NoError(tt, logger.Sync())
			require.Equal(tt, 11, strings.Count(w.String(), "\n"))
		})
	}
}

func TestXLogger_MultiWriters(t *testing.T) {
	logger, w := newTestMemLogger(t, WithXLoggerWriter(testMemAsOut))
	logger.Info("twice")
	require.Equal(t, 2, strings.Count(w.String(), "twice"))
}

func TestXLogger_Nop(t *testing.T) {
	logger := NewNopXLogger()
	logger.Banner(testBanner{})
	logger.Info("nothing")
	logger.ErrorStack(infra.NewErrorStack("nothing"), "nothing")
	require.NoError(t, logger.Sync())

	child := newComponentXLogger(logger, "Nop")
	child.Warn("nothing")
}

func TestXLogger_UnknownOptions(t *testing.T) {
	require.Panics(t, func() {
		NewXLogger(WithXLoggerEncoder(_encMax))
	})
	require.Panics(t, func() {
		NewXLogger(WithXLoggerWriter(_writerMax))
	})
}

func TestXLogger_DataRace(t *testing.T) {
	logger, _ := newTestMemLogger(t)
	lvls := []zapcore.Level{
		zapcore.DebugLevel,
		zapcore.InfoLevel,
		zapcore.WarnLevel,
		zapcore.ErrorLevel,
	}
	n := int32(len(lvls))
	var wg sync.WaitGroup
	total := 10
	wg.Add(total)
	for i := 0; i < total; i++ {
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rng := rand.Int31n(n)
				if i*total+j == 666 {
					logger.IncreaseLogLevel(lvls[rng])
				}
				logger.Logf(lvls[rng], "message i: %d; j: %d", i, j)
			}
		}(i)
	}
	wg.Wait()
	_ = logger.Sync()
}

func BenchmarkXLogger_Zap(b *testing.B) {
	setOutWriter(testMemAsOut, zapcore.AddSync(&testMemOutWriter{}))
	logger := NewXLogger(WithXLoggerWriter(testMemAsOut), WithXLoggerLevel(LogLevelInfo))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("message")
	}
	b.ReportAllocs()
}
