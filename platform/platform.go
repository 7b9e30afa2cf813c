package platform

// Hotkeys is the OS global-hotkey capability. Accelerators use lowercase
// plus-separated syntax ("ctrl+shift+c").
type Hotkeys interface {
	Register(accel string, handler func()) error
	Unregister(accel string) error
	IsRegistered(accel string) bool
	Close() error
}

// Clipboard provides clipboard access
type Clipboard interface {
	Get() (string, error)
	Set(text string) error
}

// Copier simulates the OS copy keystroke
type Copier interface {
	SendCopy() error
}

// InputMonitoringGranted reports whether the platform allows installing a
// global keyboard hook. Restrictive platforms gate this behind a permission
// prompt; callers should check it before attempting registration.
func InputMonitoringGranted() bool {
	return inputMonitoringGranted()
}
