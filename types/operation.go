package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Operation is an address reconfiguration request kind. The numeric codes are part of the
// configuration contract and must not change.
type Operation uint8

const (
	OpAddAddress        Operation = 1
	OpDeleteAddress     Operation = 2
	OpSetPrimaryAddress Operation = 3
)

func (op Operation) Valid() bool {
	return op >= OpAddAddress && op <= OpSetPrimaryAddress
}

func (op Operation) String() string {
	switch op {
	case OpAddAddress:
		return "add"
	case OpDeleteAddress:
		return "delete"
	case OpSetPrimaryAddress:
		return "set-primary"
	default:
		return "unknown(" + strconv.Itoa(int(op)) + ")"
	}
}

// ParseOperations parses a comma separated list of operation codes such as "1,2,3".
// An empty list parses to no operations.
func ParseOperations(list string) ([]Operation, error) {
	var ops []Operation
	for _, token := range strings.Split(list, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		code, err := strconv.ParseUint(token, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: operation %q is not a number", ErrConfig, token)
		}
		op := Operation(code)
		if !op.Valid() {
			return nil, fmt.Errorf("%w: unknown operation code %d", ErrConfig, code)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// FormatOperations is the inverse of ParseOperations.
func FormatOperations(ops []Operation) string {
	codes := make([]string, 0, len(ops))
	for _, op := range ops {
		codes = append(codes, strconv.Itoa(int(op)))
	}
	return strings.Join(codes, ",")
}
