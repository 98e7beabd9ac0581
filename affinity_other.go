//go:build !linux

package workerpool

import "errors"

// PinToCPU is only supported on linux.
func PinToCPU(int) error {
	return errors.New("workerpool: cpu pinning is not supported on this platform")
}
