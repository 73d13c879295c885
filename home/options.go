package home

import (
	"github.com/benz9527/xhome/xlog"
)

type LookupScope string

const (
	LookupRoom   LookupScope = "room"
	LookupDevice LookupScope = "device"
)

// Recorder observes lookups. Implementations must be safe for concurrent use,
// read-only traversals of one house may run in parallel.
type Recorder interface {
	RecordLookup(scope LookupScope, hit bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordLookup(LookupScope, bool) {}

type homeOptions struct {
	logger   xlog.XLogger
	recorder Recorder
}

type Option func(opts *homeOptions)

func WithLogger(logger xlog.XLogger) Option {
	return func(opts *homeOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(opts *homeOptions) {
		if recorder != nil {
			opts.recorder = recorder
		}
	}
}

func applyOptions(opts []Option) homeOptions {
	o := homeOptions{
		logger:   xlog.NewNopXLogger(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
