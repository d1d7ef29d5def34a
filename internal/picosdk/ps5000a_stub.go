//go:build !picosdk || !cgo

package picosdk

import "errors"

// ErrNoSDK is returned when the binary was built without libps5000a.
var ErrNoSDK = errors.New("picosdk: built without ps5000a support (rebuild with -tags picosdk)")

// NewPS5000A is unavailable in this build.
func NewPS5000A() (Driver, error) {
	return nil, ErrNoSDK
}
