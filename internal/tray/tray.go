package tray

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/petems/tap-recorder/internal/app"
	"github.com/petems/tap-recorder/internal/audio"
	"github.com/petems/tap-recorder/internal/config"
	"github.com/petems/tap-recorder/internal/logging"
)

type UI struct {
	app     *app.App
	cfg     *config.Config
	version string
	commit  string
	log     zerolog.Logger

	// Menu items
	mStartStop *systray.MenuItem
	mPath      *systray.MenuItem
	mMode      *systray.MenuItem
	mDevices   *systray.MenuItem
	mOpenDir   *systray.MenuItem
	mCopyPath  *systray.MenuItem
}

// Status update methods for the app to call
func (u *UI) SetIdle() {
	u.updateStatus("idle")
	u.setStartStop(false)
}

func (u *UI) SetRecording(path string) {
	u.updateStatus("recording")
	u.setStartStop(true)
	u.setPath(pathLabel("recording", path))
}

func (u *UI) SetSaved(path string) {
	u.updateStatus("idle")
	u.setStartStop(false)
	u.setPath(pathLabel("saved", path))
	if u.mCopyPath != nil {
		u.mCopyPath.Enable()
	}
}

func (u *UI) SetError() {
	u.updateStatus("error")
	u.setStartStop(false)
}

func New(application *app.App, cfg *config.Config, log zerolog.Logger, version, commit string) *UI {
	return &UI{
		app:     application,
		cfg:     cfg,
		version: version,
		commit:  commit,
		log:     log,
	}
}

func (u *UI) Run(ctx context.Context) error {
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	systray.SetTooltip("System audio + microphone recorder")

	// Build menu
	u.mStartStop = systray.AddMenuItem("Start Recording", "Record system output and microphone")
	u.updateStatus("idle")
	u.mPath = systray.AddMenuItem(pathLabel("idle", ""), "")
	u.mPath.Disable()
	systray.AddSeparator()

	u.mMode = systray.AddMenuItem(modeTitle(u.cfg.Mode), "Toggle between modes")
	u.mDevices = systray.AddMenuItem("Devices", "Audio devices on this system")
	u.buildDeviceMenu()
	systray.AddSeparator()

	u.mOpenDir = systray.AddMenuItem("Open Recordings Folder", u.app.RecordingsDir())
	u.mCopyPath = systray.AddMenuItem("Copy Last Recording Path", "Copy the path to the clipboard")
	if u.app.LastRecording() == "" {
		u.mCopyPath.Disable()
	}

	systray.AddSeparator()
	mLogs := systray.AddMenuItem("Open Logs", "View application logs")
	mAbout := systray.AddMenuItem("About", "About Tap Recorder")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	// Event loop
	go u.handleEvents(mLogs, mAbout, mQuit)
}

func (u *UI) handleEvents(mLogs, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mStartStop.ClickedCh:
			u.app.ToggleRecording()
		case <-u.mMode.ClickedCh:
			u.toggleMode()
		case <-u.mOpenDir.ClickedCh:
			u.openPath(u.app.RecordingsDir())
		case <-u.mCopyPath.ClickedCh:
			u.copyLastPath()
		case <-mLogs.ClickedCh:
			u.openPath(logging.Path())
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			if err := u.app.Shutdown(context.Background()); err != nil {
				u.log.Error().Err(err).Msg("Shutdown error")
			}
			systray.Quit()
			return
		}
	}
}

// buildDeviceMenu lists the devices for reference. Capture always uses the
// system default input and output, so the entries are not selectable.
func (u *UI) buildDeviceMenu() {
	devices, err := u.app.ListDevices()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list audio devices")
		u.mDevices.Disable()
		return
	}

	for _, dev := range devices {
		item := u.mDevices.AddSubMenuItem(audio.Describe(dev), "")
		if dev.DefaultInput || dev.DefaultOutput {
			item.Check()
		}
		item.Disable()
	}
}

func (u *UI) toggleMode() {
	oldMode := u.cfg.Mode
	next := config.ModePushToTalk
	if u.cfg.Mode == config.ModePushToTalk {
		next = config.ModeToggle
	}
	u.app.SetMode(next)
	u.mMode.SetTitle(modeTitle(next))
	u.log.Info().Str("from", oldMode).Str("to", next).Msg("Changed mode")
}

func (u *UI) copyLastPath() {
	path := u.app.LastRecording()
	if path == "" {
		return
	}
	if err := clipboard.WriteAll(path); err != nil {
		u.log.Error().Err(err).Msg("Failed to copy path")
		return
	}
	u.log.Info().Str("path", path).Msg("Copied recording path")
}

func (u *UI) openPath(path string) {
	cmd := exec.Command(openCommand(runtime.GOOS), path)
	if err := cmd.Start(); err != nil {
		u.log.Error().Err(err).Str("path", path).Msg("Failed to open")
		return
	}
	go cmd.Wait()
}

func (u *UI) showAbout() {
	fmt.Printf("Tap Recorder %s (%s)\nSystem audio + microphone recorder\n", u.version, u.commit)
}

func (u *UI) onExit() {
	// Cleanup
}

func (u *UI) setStartStop(recording bool) {
	if u.mStartStop == nil {
		return
	}
	if recording {
		u.mStartStop.SetTitle("Stop Recording")
	} else {
		u.mStartStop.SetTitle("Start Recording")
	}
}

func (u *UI) setPath(label string) {
	if u.mPath != nil {
		u.mPath.SetTitle(label)
	}
}

// updateStatus sets the tray title with a record emoji and status indicator
func (u *UI) updateStatus(status string) {
	if u.mStartStop == nil {
		return // menu not built yet, onReady sets the initial title
	}
	emoji := emojiForStatus(status)
	systray.SetTitle(fmt.Sprintf("⏺ %s", emoji))
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "recording":
		return "🔴" // Red - recording
	case "idle":
		return "🟢" // Green - ready/idle
	case "error":
		return "⚪️" // White - error
	default:
		return "🟢" // Green - default to ready
	}
}

// pathLabel is the text of the file path item
func pathLabel(status, path string) string {
	switch status {
	case "recording":
		return "Recording to: " + filepath.Base(path)
	case "saved":
		return "Saved to: " + filepath.Base(path)
	default:
		return "No recording yet"
	}
}

func modeTitle(mode string) string {
	if mode == config.ModePushToTalk {
		return "Mode: Hold to Record"
	}
	return "Mode: Toggle"
}

func openCommand(goos string) string {
	switch goos {
	case "darwin":
		return "open"
	case "windows":
		return "explorer"
	default:
		return "xdg-open"
	}
}
