// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"errors"
	"fmt"

	"github.com/pdiddy/paper-curator/pkg/types"
)

// StrategyError reports that a strategy could not complete. For a required
// strategy it aborts the ensemble call; for an optional one it is logged
// and the strategy is left out of the aggregate.
type StrategyError struct {
	Scorer string
	Err    error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("scorer %s failed: %v", e.Scorer, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// asStrategyError wraps err unless it already names a strategy.
func asStrategyError(name string, err error) *StrategyError {
	var se *StrategyError
	if errors.As(err, &se) {
		return se
	}
	return &StrategyError{Scorer: name, Err: err}
}

// IsConfigError reports whether err was caused by an invalid configuration.
func IsConfigError(err error) bool {
	var ce *types.ConfigError
	return errors.As(err, &ce)
}

func configErr(field, format string, args ...any) error {
	return &types.ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
