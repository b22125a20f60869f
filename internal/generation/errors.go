package generation

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/visionpulse/internal/store"
)

// ErrValidation marks a rejected create or remix request. No job is created.
var ErrValidation = errors.New("validation failed")

var (
	ErrUnknownStyle   = fmt.Errorf("%w: unknown style", ErrValidation)
	ErrUnknownVoice   = fmt.Errorf("%w: unknown voice", ErrValidation)
	ErrInvalidRequest = fmt.Errorf("%w: invalid request", ErrValidation)
)

var (
	ErrNotFound      = store.ErrNotFound
	ErrJobInProgress = store.ErrJobInProgress
	// ErrNotRemixable is returned when the source of a remix has no finished remote video.
	ErrNotRemixable = errors.New("video cannot be remixed")
)
