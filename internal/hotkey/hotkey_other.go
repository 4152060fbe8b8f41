//go:build !darwin && !linux

package hotkey

import "fmt"

type unsupportedManager struct{}

// New returns a manager that refuses every registration
func New() (Manager, error) {
	return unsupportedManager{}, nil
}

func (unsupportedManager) Register(accel string, callback func(pressed bool)) error {
	if _, err := Parse(accel); err != nil {
		return err
	}
	return fmt.Errorf("global hotkeys are not supported on this platform")
}

func (unsupportedManager) Unregister(accel string) error { return nil }

func (unsupportedManager) Close() error { return nil }
