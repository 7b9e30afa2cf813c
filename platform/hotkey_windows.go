//go:build windows

package platform

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	setWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	callNextHookEx      = user32.NewProc("CallNextHookEx")
	unhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	peekMessage         = user32.NewProc("PeekMessageW")
	getAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
)

const (
	whKeyboardLL = 13
	wmKeydown    = 0x0100
	wmKeyup      = 0x0101
	wmSyskeydown = 0x0104
	wmSyskeyup   = 0x0105
	pmRemove     = 0x0001
)

const (
	vkShift = 0x10
	vkCtrl  = 0x11
	vkAlt   = 0x12
	vkLwin  = 0x5B
	vkRwin  = 0x5C
)

type kbdllhookstruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// chord is a parsed accelerator armed in the hook.
type chord struct {
	ctrl, shift, alt, win bool
	vk                    int
	handler               func()
	pressed               bool // latched until key-up to swallow autorepeat
}

// WindowsHotkeys dispatches a low-level keyboard hook across a set of
// registered accelerators.
type WindowsHotkeys struct {
	mu     sync.Mutex
	chords map[string]*chord // accel -> parsed chord
	hook   uintptr
	done   chan struct{}
}

// NewHotkeys creates the Windows hotkey capability. The hook is installed
// lazily on the first Register call.
func NewHotkeys() (Hotkeys, error) {
	return &WindowsHotkeys{chords: make(map[string]*chord)}, nil
}

// Register arms an accelerator. The handler runs on its own goroutine so a
// slow consumer cannot stall the hook's message loop.
func (h *WindowsHotkeys) Register(accel string, handler func()) error {
	c, err := parseAccel(accel)
	if err != nil {
		return err
	}
	c.handler = handler

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, dup := h.chords[accel]; dup {
		return fmt.Errorf("accelerator %s already registered", accel)
	}
	if h.hook == 0 {
		if err := h.installLocked(); err != nil {
			return err
		}
	}
	h.chords[accel] = c
	return nil
}

// Unregister disarms an accelerator. Unknown accelerators are a no-op.
func (h *WindowsHotkeys) Unregister(accel string) error {
	h.mu.Lock()
	delete(h.chords, accel)
	h.mu.Unlock()
	return nil
}

// IsRegistered reports whether the accelerator is currently armed.
func (h *WindowsHotkeys) IsRegistered(accel string) bool {
	h.mu.Lock()
	_, ok := h.chords[accel]
	h.mu.Unlock()
	return ok
}

// Close removes the keyboard hook and drops every armed accelerator.
func (h *WindowsHotkeys) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.chords = make(map[string]*chord)
	if h.hook != 0 {
		close(h.done)
		unhookWindowsHookEx.Call(h.hook)
		h.hook = 0
	}
	return nil
}

// installLocked starts the hook goroutine and waits for the hook handle.
// Caller holds the lock.
func (h *WindowsHotkeys) installLocked() error {
	h.done = make(chan struct{})
	errCh := make(chan error, 1)
	go h.runHook(errCh)
	return <-errCh
}

func (h *WindowsHotkeys) runHook(errCh chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hookProc := func(nCode int32, wParam uintptr, lParam uintptr) uintptr {
		if nCode >= 0 {
			kbInfo := (*kbdllhookstruct)(unsafe.Pointer(lParam))
			h.handleKeyEvent(wParam, kbInfo)
		}
		r, _, _ := callNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
		return r
	}

	hook, _, err := setWindowsHookEx.Call(
		whKeyboardLL,
		windows.NewCallback(hookProc),
		0,
		0,
	)
	if hook == 0 {
		errCh <- fmt.Errorf("SetWindowsHookEx failed: %w", err)
		return
	}

	h.hook = hook
	done := h.done
	errCh <- nil

	// Message loop; the hook only fires while this thread pumps messages.
	var m msg
	for {
		select {
		case <-done:
			return
		default:
			r, _, _ := peekMessage.Call(
				uintptr(unsafe.Pointer(&m)),
				0,
				0,
				0,
				pmRemove,
			)
			if r != 0 {
				continue
			}
			runtime.Gosched()
		}
	}
}

func (h *WindowsHotkeys) handleKeyEvent(wParam uintptr, kbInfo *kbdllhookstruct) {
	isKeyDown := wParam == wmKeydown || wParam == wmSyskeydown

	h.mu.Lock()
	var fire []func()
	for _, c := range h.chords {
		if kbInfo.vkCode != uint32(c.vk) {
			continue
		}
		if isKeyDown {
			if !c.pressed && modifiersMatch(c) {
				c.pressed = true
				fire = append(fire, c.handler)
			}
		} else {
			c.pressed = false
		}
	}
	h.mu.Unlock()

	for _, fn := range fire {
		go fn()
	}
}

func modifiersMatch(c *chord) bool {
	ctrl := isKeyPressed(vkCtrl)
	shift := isKeyPressed(vkShift)
	alt := isKeyPressed(vkAlt)
	win := isKeyPressed(vkLwin) || isKeyPressed(vkRwin)

	return ctrl == c.ctrl && shift == c.shift && alt == c.alt && win == c.win
}

func isKeyPressed(vk int) bool {
	r, _, _ := getAsyncKeyState.Call(uintptr(vk))
	return r&0x8000 != 0
}

// parseAccel parses a lowercase accelerator like "ctrl+shift+c" into a chord.
func parseAccel(accel string) (*chord, error) {
	var c chord
	parts := strings.Split(strings.ToLower(accel), "+")

	for i, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "ctrl", "control":
			c.ctrl = true
		case "shift":
			c.shift = true
		case "alt":
			c.alt = true
		case "win", "cmd", "super":
			c.win = true
		default:
			if i != len(parts)-1 {
				return nil, fmt.Errorf("unknown modifier: %s", part)
			}
			vk, err := vkCode(part)
			if err != nil {
				return nil, err
			}
			c.vk = vk
		}
	}

	if c.vk == 0 {
		return nil, fmt.Errorf("accelerator %s has no non-modifier key", accel)
	}
	return &c, nil
}

// vkCode returns the Windows virtual key code for a key name
func vkCode(key string) (int, error) {
	codes := map[string]int{
		"a": 0x41, "b": 0x42, "c": 0x43, "d": 0x44, "e": 0x45,
		"f": 0x46, "g": 0x47, "h": 0x48, "i": 0x49, "j": 0x4A,
		"k": 0x4B, "l": 0x4C, "m": 0x4D, "n": 0x4E, "o": 0x4F,
		"p": 0x50, "q": 0x51, "r": 0x52, "s": 0x53, "t": 0x54,
		"u": 0x55, "v": 0x56, "w": 0x57, "x": 0x58, "y": 0x59, "z": 0x5A,
		"0": 0x30, "1": 0x31, "2": 0x32, "3": 0x33, "4": 0x34,
		"5": 0x35, "6": 0x36, "7": 0x37, "8": 0x38, "9": 0x39,
		"f1": 0x70, "f2": 0x71, "f3": 0x72, "f4": 0x73,
		"f5": 0x74, "f6": 0x75, "f7": 0x76, "f8": 0x77,
		"f9": 0x78, "f10": 0x79, "f11": 0x7A, "f12": 0x7B,
		"space": 0x20, "enter": 0x0D, "esc": 0x1B,
		"tab": 0x09, "backspace": 0x08,
	}

	if code, ok := codes[key]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("unknown key: %s", key)
}

// inputMonitoringGranted: low-level hooks need no special grant on Windows.
func inputMonitoringGranted() bool {
	return true
}
