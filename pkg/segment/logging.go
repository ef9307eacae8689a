package segment

import (
	"time"

	"github.com/sirupsen/logrus"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Profile  string
	Duration time.Duration
	Matched  bool
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// LogrusEvaluatorLogger writes evaluation events as structured entries.
// Failures log at warn, successes at debug.
func LogrusEvaluatorLogger(logger logrus.FieldLogger) EvaluatorLogger {
	if logger == nil {
		return noopEvaluatorLogger{}
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		entry := logger.WithFields(logrus.Fields{
			"engine":      event.Engine,
			"expr":        event.Expr,
			"profile_id":  event.Profile,
			"duration_ms": event.Duration.Milliseconds(),
		})
		if event.Err != nil {
			entry.WithError(event.Err).Warn("segment evaluation failed")
			return
		}
		entry.WithField("matched", event.Matched).Debug("segment evaluated")
	})
}
