// Package notifier consumes confirmation messages and sends mail. Delivery
// is at-most-once: a message that fails to send is logged and dropped, never
// requeued.
package notifier

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"eventhub/internal/dto"
	"eventhub/internal/mailer"
	"eventhub/internal/rabbit"
)

type Reader struct {
	RMQ    *rabbit.Client
	mail   *mailer.Mailer
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, mail *mailer.Mailer) *Reader {
	return &Reader{
		RMQ:  rmq,
		mail: mail,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("notification worker started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.ConfirmationMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().Err(err).Msgf("failed to unmarshal message: %s", string(body))
				return nil
			}

			zlog.Logger.Info().
				Str("email", msg.Email).
				Str("event", msg.EventName).
				Msg("received confirmation message")

			if err := r.mail.SendRegistrationConfirmation(msg); err != nil {
				// Accepted loss: the registration itself already committed.
				zlog.Logger.Warn().Err(err).Msg("confirmation email dropped")
			}
			return nil
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("notification worker stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
