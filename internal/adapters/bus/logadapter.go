package bus

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/okian/prscore/pkg/logger"
)

// logAdapter routes watermill's internal logging through pkg/logger.
// Trace lines are folded into Debug.
type logAdapter struct {
	log    logger.Logger
	fields watermill.LogFields
}

func newLogAdapter(l logger.Logger) watermill.LoggerAdapter {
	return &logAdapter{log: l}
}

func (a *logAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(context.Background(), msg, append(a.convert(fields), logger.Error(err))...)
}

func (a *logAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(context.Background(), msg, a.convert(fields)...)
}

func (a *logAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(context.Background(), msg, a.convert(fields)...)
}

func (a *logAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(context.Background(), msg, a.convert(fields)...)
}

func (a *logAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &logAdapter{log: a.log, fields: a.fields.Add(fields)}
}

func (a *logAdapter) convert(fields watermill.LogFields) []logger.Field {
	all := a.fields.Add(fields)
	out := make([]logger.Field, 0, len(all)+1)
	for k, v := range all {
		out = append(out, logger.Any(k, v))
	}
	return out
}
