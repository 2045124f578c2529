package txparser

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvableAccountTable aborts the decode of a whole transaction.
	ErrUnresolvableAccountTable = errors.New("unresolvable account table")

	// ErrDecodeMismatch means a decoder's layout does not fit the instruction.
	ErrDecodeMismatch = errors.New("instruction does not match decoder layout")

	// ErrSchemaUnavailable means no interface description could be used for a program.
	ErrSchemaUnavailable = errors.New("schema unavailable")

	ErrNoRPCClient = errors.New("no rpc client configured")
)

func mismatchf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrDecodeMismatch}, args...)...)
}
