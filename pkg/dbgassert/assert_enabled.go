//go:build debugassert

package dbgassert

import "silotxn/pkg/dberr"

func assert(cond bool, format string, args ...any) {
	if !cond {
		panic(dberr.New(dberr.CategoryContractViolation, "dbgassert.contract_violation",
			Failuref(format, args...)))
	}
}
