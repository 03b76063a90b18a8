// Package monitoring reports server errors to Rollbar.
package monitoring

import (
	"github.com/gofiber/fiber/v2/log"
	"github.com/rollbar/rollbar-go"
	rollbarerrors "github.com/rollbar/rollbar-go/errors"
)

// Person identifies the user a report is about.
type Person struct {
	ID    string
	Email string
}

// Reporter receives errors worth a human look.
type Reporter interface {
	Error(err error, extras map[string]interface{}, person *Person)
	Close()
}

// RollbarReporter sends reports through the global rollbar client.
type RollbarReporter struct{}

func NewRollbarReporter(token, env, codeVersion string) *RollbarReporter {
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetCodeVersion(codeVersion)
	rollbar.SetStackTracer(rollbarerrors.StackTracer)
	rollbar.SetEnabled(token != "")
	return &RollbarReporter{}
}

func (RollbarReporter) Error(err error, extras map[string]interface{}, person *Person) {
	if person != nil {
		rollbar.SetPerson(person.ID, "", person.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Error(err, extras)
}

// Close flushes queued reports.
func (RollbarReporter) Close() { rollbar.Close() }

// LogReporter only logs. It is used when no Rollbar token is configured.
type LogReporter struct{}

func (LogReporter) Error(err error, extras map[string]interface{}, _ *Person) {
	log.Errorw("🔥 unhandled error", "error", err, "extras", extras)
}

func (LogReporter) Close() {}

// New picks Rollbar when a token is set.
func New(token, env, codeVersion string) Reporter {
	if token == "" {
		return LogReporter{}
	}
	return NewRollbarReporter(token, env, codeVersion)
}
