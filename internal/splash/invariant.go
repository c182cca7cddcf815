package splash

import (
	"fmt"

	"github.com/pkg/errors"
)

// checkInvariant treats precondition violations as programmer errors: it
// panics with a stack-trace-carrying error rather than returning one, per
// the scheduler's error handling design. The engine is expected to recover
// at the worker-goroutine boundary and log it fatally.
func checkInvariant(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(errors.WithStack(fmt.Errorf(format, args...)))
	}
}
