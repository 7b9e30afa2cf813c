// Package systray provides the tray icon and its menu: open the dashboard,
// pause the global hotkeys, quit.
package systray

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/getlantern/systray"
)

// Manager manages the system tray icon and menu.
type Manager struct {
	webPort  int
	iconData []byte
	quit     chan struct{}

	// onPause is invoked when the user toggles the pause item. true means
	// hotkeys should stop firing.
	onPause func(paused bool)
}

func NewManager(webPort int, iconData []byte, onPause func(paused bool)) *Manager {
	return &Manager{
		webPort:  webPort,
		iconData: iconData,
		onPause:  onPause,
		quit:     make(chan struct{}),
	}
}

// Run starts the system tray (blocking call).
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// Stop stops the system tray.
func (m *Manager) Stop() {
	systray.Quit()
}

// WaitForQuit returns a channel that is closed when the user clicks Quit.
func (m *Manager) WaitForQuit() <-chan struct{} {
	return m.quit
}

func (m *Manager) onReady() {
	if len(m.iconData) > 0 {
		systray.SetIcon(m.iconData)
	}

	systray.SetTitle("Redraft")
	systray.SetTooltip("Redraft - Hotkey Text Transformations")

	mOpenWebUI := systray.AddMenuItem("Open Dashboard", "Open the Redraft settings dashboard")
	mPause := systray.AddMenuItemCheckbox("Pause Hotkeys", "Stop responding to global hotkeys", false)
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit Redraft")

	go func() {
		for {
			select {
			case <-mOpenWebUI.ClickedCh:
				m.openDashboard()
			case <-mPause.ClickedCh:
				if mPause.Checked() {
					mPause.Uncheck()
					m.onPause(false)
				} else {
					mPause.Check()
					m.onPause(true)
				}
			case <-mQuit.ClickedCh:
				slog.Info("User requested quit from system tray")
				close(m.quit)
				systray.Quit()
				return
			}
		}
	}()
}

func (m *Manager) onExit() {
	slog.Info("System tray exited")
}

// openDashboard opens the web dashboard in the default browser.
func (m *Manager) openDashboard() {
	url := fmt.Sprintf("http://localhost:%d", m.webPort)
	slog.Info("Opening dashboard", "url", url)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		slog.Error("Unsupported platform for opening browser", "platform", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		slog.Error("Failed to open dashboard", "error", err)
	}
}
