//go:build !linux

package routing

import (
	"errors"
)

type SystemTable struct{}

func NewSystemTable() (*SystemTable, error) {
	return nil, errors.ErrUnsupported
}

func (t *SystemTable) GetInterfaceByName(string) (*Interface, bool) {
	return nil, false
}

func (t *SystemTable) AddRoute(*Entry) error {
	return errors.ErrUnsupported
}

func (t *SystemTable) Close() {}
