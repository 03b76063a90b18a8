package jobs

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const sweepTimeout = 2 * time.Minute

// ExpiredAttemptFinalizer grades attempts whose time ran out.
type ExpiredAttemptFinalizer interface {
	FinalizeExpired(ctx context.Context) (int, error)
}

// FinalizeExpiredAttempts closes every in-progress attempt past its deadline
// so students who walk away still get a result.
func FinalizeExpiredAttempts(f ExpiredAttemptFinalizer) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		n, err := f.FinalizeExpired(ctx)
		if err != nil {
			log.Errorw("🔥 expired attempt sweep failed", "closed", n, "error", err)
			return
		}
		if n > 0 {
			log.Infof("✅ Finalized %d expired exam attempts", n)
		}
	}
}
