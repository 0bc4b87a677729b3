package league

import "errors"

var (
	// ErrConfig marks a bad or missing configuration entry (unknown swami,
	// pool, criterion, or a missing required parameter).
	ErrConfig = errors.New("config error")

	// ErrLogic marks a caller contract violation, e.g. adding filters to a
	// frozen analysis or reading results before a pool run completes.
	ErrLogic = errors.New("logic error")

	// ErrData marks bad external data.
	ErrData = errors.New("data error")

	// ErrNotImplemented marks a variant that is reserved but not built yet.
	ErrNotImplemented = errors.New("not implemented")
)
