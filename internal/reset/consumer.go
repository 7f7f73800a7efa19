package reset

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	subject = "lms.completion.reset"
	durable = "lessontrack_reset"
)

// Event is the payload published by the host LMS on course recompletion.
type Event struct {
	EventID  string `json:"event_id"`
	CourseID int64  `json:"course_id"`
	UserID   int64  `json:"user_id"`
	ResetAt  int64  `json:"reset_at"`
}

// StartConsumer subscribes to the recompletion subject and applies resets.
// The reset stamp is naturally idempotent (a stamped record is no longer
// live), so redelivered events are harmless.
func StartConsumer(ctx context.Context, nc *nats.Conn, obs *Observer, log *zap.Logger) {
	js, err := nc.JetStream()
	if err != nil {
		log.Error("reset consumer: jetstream", zap.Error(err))
		return
	}

	sub, err := js.PullSubscribe(subject, durable)
	if err != nil {
		log.Error("reset consumer: subscribe", zap.Error(err))
		return
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msgs, err := sub.Fetch(50, nats.MaxWait(2*time.Second))
			if err != nil {
				if err == nats.ErrTimeout {
					continue
				}
				log.Warn("reset consumer: fetch", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			for _, m := range msgs {
				var ev Event
				if err := json.Unmarshal(m.Data, &ev); err != nil {
					// Redelivery cannot fix a malformed payload; drop it.
					log.Warn("reset consumer: invalid payload", zap.Error(err))
					_ = m.Ack()
					continue
				}

				if err := obs.OnCompletionReset(ctx, ev.CourseID, ev.UserID, ev.ResetAt); err != nil {
					log.Error("reset consumer: apply",
						zap.String("event_id", ev.EventID),
						zap.Int64("course_id", ev.CourseID),
						zap.Error(err))
					if err := m.Nak(); err != nil {
						log.Warn("reset consumer: nak", zap.Error(err))
					}
					continue
				}

				if err := m.Ack(); err != nil {
					log.Warn("reset consumer: ack", zap.Error(err))
				}
			}
		}
	}()
}
