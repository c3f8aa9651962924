//go:build !linux

package display

import "errors"

// EnumerateI2C is only implemented on Linux.
func EnumerateI2C(sysfsDRM, devDir string) Enumerator {
	return func() ([]Monitor, error) {
		return nil, errors.New("ddc/ci over i2c-dev requires linux")
	}
}
