package core

import "fmt"

// ContractViolation is the panic value raised by Assert. It marks a caller
// bug, not a runtime condition, so it is never returned as an error.
type ContractViolation struct {
	Message string
}

func (c ContractViolation) Error() string {
	return "contract violation: " + c.Message
}

// Assert aborts the calling goroutine when cond is false. The message is
// logged with caller information before panicking.
func Assert(cond bool, msg string, args ...interface{}) {
	if cond {
		return
	}
	m := fmt.Sprintf(msg, args...)
	getLogger().Error("contract violation", "reason", m)
	panic(ContractViolation{Message: m})
}
