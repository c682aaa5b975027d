package feasibility

import (
	"errors"
	"fmt"

	"github.com/stratplan/stratplan/internal/repository"
)

var (
	// ErrNotFound reports that a strategy, product, resource or calculation
	// reference did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput reports a malformed request or stored value: negative
	// quantities, unknown policy options.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPersistence reports that recording a calculation failed and was
	// rolled back.
	ErrPersistence = errors.New("persistence failure")
)

// translate wraps a collaborator error, adding ErrNotFound when the
// repository reported a missing row. The original error stays in the chain.
func translate(what string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w: %w", what, ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
