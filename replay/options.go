package replay

import (
	"log/slog"

	"github.com/gogpu/replaycheck"
)

// Option configures a Controller during Open.
//
// Example:
//
//	ctrl, err := replay.Open(ctx, c, replay.WithLogger(logger))
type Option func(*options)

type options struct {
	logger          *slog.Logger
	validateShaders bool
}

func defaultOptions() options {
	return options{
		logger:          nil, // replaycheck.Logger() at Open time
		validateShaders: true,
	}
}

// WithLogger sets the logger the controller reports replay progress and
// shader warnings to. The package logger is used when l is nil.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithShaderValidation controls whether shader modules are run through the
// validator when the capture is opened. Validation problems are logged as
// warnings and never fail Open.
func WithShaderValidation(enabled bool) Option {
	return func(o *options) {
		o.validateShaders = enabled
	}
}

func (o *options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return replaycheck.Logger()
}
