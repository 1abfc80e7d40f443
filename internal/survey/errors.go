package survey

import "github.com/zheruizz/another.ai-app/internal/errors"

var (
	// ErrValidation marks errors caused by invalid run input. They are surfaced before any generation work.
	ErrValidation = errors.NewSentinel("validation failed")
	// ErrPersistence marks errors caused by reading or writing run data.
	ErrPersistence = errors.NewSentinel("persistence failed")
)

func validationError(msg string) error {
	return errors.Mark(errors.New(msg), ErrValidation)
}

func persistenceError(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrPersistence)
}
