//go:build windows

package platform

import (
	"fmt"
	"time"
	"unsafe"
)

var (
	sendInput      = user32.NewProc("SendInput")
	mapVirtualKeyW = user32.NewProc("MapVirtualKeyW")
)

const (
	inputKeyboard  = 1
	keyeventfKeyup = 0x0002
	mapvkVkToVsc   = 0
	vkControl      = 0x11
	vkC            = 0x43
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	ki        keyboardInput
	padding   [8]byte // Padding to match C struct size
}

// WindowsCopier implements the Copier interface for Windows
type WindowsCopier struct{}

// NewCopier creates a new Windows copier instance
func NewCopier() Copier {
	return &WindowsCopier{}
}

// SendCopy simulates a Ctrl+C keypress with scan codes for better
// compatibility with elevated applications.
func (p *WindowsCopier) SendCopy() error {
	ctrlScan, _, _ := mapVirtualKeyW.Call(vkControl, mapvkVkToVsc)
	cScan, _, _ := mapVirtualKeyW.Call(vkC, mapvkVkToVsc)

	inputs := []input{
		// Ctrl down
		{
			inputType: inputKeyboard,
			ki: keyboardInput{
				wVk:   vkControl,
				wScan: uint16(ctrlScan),
			},
		},
		// C down
		{
			inputType: inputKeyboard,
			ki: keyboardInput{
				wVk:   vkC,
				wScan: uint16(cScan),
			},
		},
		// C up
		{
			inputType: inputKeyboard,
			ki: keyboardInput{
				wVk:     vkC,
				wScan:   uint16(cScan),
				dwFlags: keyeventfKeyup,
			},
		},
		// Ctrl up
		{
			inputType: inputKeyboard,
			ki: keyboardInput{
				wVk:     vkControl,
				wScan:   uint16(ctrlScan),
				dwFlags: keyeventfKeyup,
			},
		},
	}

	// Send all inputs at once for better atomicity
	ret, _, err := sendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if ret == 0 {
		return fmt.Errorf("SendInput failed: %w", err)
	}

	// Small delay to ensure input is processed
	time.Sleep(20 * time.Millisecond)

	return nil
}
