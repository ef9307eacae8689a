package activity

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogHook writes every event to logger at info level.
func LogHook(logger logrus.FieldLogger) ActivityHook {
	return HookFunc(func(_ context.Context, event Event) error {
		if logger == nil {
			return nil
		}
		fields := logrus.Fields{
			"verb":        event.Verb,
			"object_type": event.ObjectType,
			"object_id":   event.ObjectID,
			"channel":     event.Channel,
		}
		if event.Bucket != "" {
			fields["bucket"] = event.Bucket
		}
		if event.CollectApp != "" {
			fields["collect_app"] = event.CollectApp
		}
		for key, value := range event.Metadata {
			fields["meta_"+key] = value
		}
		logger.WithFields(fields).Info("activity")
		return nil
	})
}
