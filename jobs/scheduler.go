package jobs

import (
	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job struct {
	Name string
	Spec string
	Run  func()
}

// NewScheduler registers jobs on a cron that recovers from panics in a job.
// The caller starts and stops it.
func NewScheduler(jobs ...Job) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{})))
	for _, j := range jobs {
		if _, err := c.AddFunc(j.Spec, j.Run); err != nil {
			return nil, errors.Wrapf(err, "scheduling %s", j.Name)
		}
		log.Infof("✅ Cron job %s scheduled (%s)", j.Name, j.Spec)
	}
	return c, nil
}

// cronLogger routes cron's own messages to the fiber logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Errorw(msg, append(keysAndValues, "error", err)...)
}
