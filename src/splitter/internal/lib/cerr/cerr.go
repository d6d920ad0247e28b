package cerr

import (
	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

// F is a set of structured fields to attach to an error.
type F map[string]interface{}

// Context accumulates fields before an error is created or wrapped.
type Context struct {
	fields F
}

func Field(key string, value interface{}) Context {
	return Context{}.Field(key, value)
}

func Fields(fields F) Context {
	ctx := Context{fields: F{}}
	for key, value := range fields {
		ctx.fields[key] = value
	}

	return ctx
}

func (c Context) Field(key string, value interface{}) Context {
	merged := F{}
	for existingKey, existingValue := range c.fields {
		merged[existingKey] = existingValue
	}

	merged[key] = value
	return Context{fields: merged}
}

func (c Context) Wrap(err error) Wrapper {
	return Wrapper{wrapped: err, fields: c.fields}
}

func (c Context) Error(msg string) error {
	return contextError{err: errors.New(msg), fields: c.fields}
}

// Wrapper pairs an underlying error with field context until the final
// message is attached.
type Wrapper struct {
	wrapped error
	fields  F
}

func Wrap(err error) Wrapper {
	return Wrapper{wrapped: err}
}

// Mark relates the eventual error to a reference error so that callers can
// match it with errors.Is despite the message wrapping.
func (w Wrapper) Mark(reference error) Wrapper {
	return Wrapper{
		wrapped: errors.Mark(w.wrapped, reference),
		fields:  w.fields,
	}
}

func (w Wrapper) Error(msg string) error {
	if w.wrapped == nil {
		return nil
	}

	return contextError{err: errors.Wrap(w.wrapped, msg), fields: w.fields}
}

func Error(msg string) error {
	return errors.New(msg)
}

// contextError carries fields up the chain so that Log can report them.
type contextError struct {
	err    error
	fields F
}

func (c contextError) Error() string { return c.err.Error() }
func (c contextError) Unwrap() error { return c.err }

// AllFields collects every field attached along the error chain. On key
// collisions the field attached closest to the call site wins.
func AllFields(err error) F {
	fields := F{}
	for err != nil {
		if contextErr, ok := err.(contextError); ok {
			for key, value := range contextErr.fields {
				if _, ok := fields[key]; !ok {
					fields[key] = value
				}
			}
		}

		err = errors.UnwrapOnce(err)
	}

	return fields
}

// Log reports the error and all fields accumulated along its chain.
func Log(err error) {
	logger := log.WithError(err)
	for key, value := range AllFields(err) {
		logger = logger.WithField(key, value)
	}

	logger.Error("Error encountered")
}
