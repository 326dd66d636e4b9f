package application

import (
	"context"
	"errors"
	"fmt"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// ErrValidation marks input the caller has to fix before retrying.
var ErrValidation = errors.New("validation")

func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
