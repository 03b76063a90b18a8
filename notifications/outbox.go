package notifications

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2/log"
)

// Outbox sends mail in the background and keeps track of what is still in
// flight so shutdown can wait for it.
type Outbox struct {
	mailer Mailer
	wg     sync.WaitGroup
}

func NewOutbox(mailer Mailer) *Outbox {
	return &Outbox{mailer: mailer}
}

func (o *Outbox) Queue(msg Message) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := o.mailer.Send(ctx, msg); err != nil {
			log.Errorw("🔥 failed to send email", "to", msg.ToEmail, "subject", msg.Subject, "error", err)
		}
	}()
}

func (o *Outbox) Wait() { o.wg.Wait() }
