package outbox

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("outbox: invalid configuration")

func invalidConfig(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
