//go:build !windows

package platform

import "errors"

// Non-Windows builds compile against stubs so the rest of the tree stays
// portable; the capabilities report ErrUnsupported at runtime.

var errUnsupported = errors.New("platform capability not supported on this OS")

type stubHotkeys struct{}

func NewHotkeys() (Hotkeys, error) {
	return stubHotkeys{}, nil
}

func (stubHotkeys) Register(string, func()) error { return errUnsupported }
func (stubHotkeys) Unregister(string) error       { return nil }
func (stubHotkeys) IsRegistered(string) bool      { return false }
func (stubHotkeys) Close() error                  { return nil }

type stubClipboard struct{}

func NewClipboard() Clipboard {
	return stubClipboard{}
}

func (stubClipboard) Get() (string, error) { return "", errUnsupported }
func (stubClipboard) Set(string) error     { return errUnsupported }

type stubCopier struct{}

func NewCopier() Copier {
	return stubCopier{}
}

func (stubCopier) SendCopy() error { return errUnsupported }

func inputMonitoringGranted() bool { return false }
