package system

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"valet/internal/logging"
)

// appAliases maps common names to the installed application name.
var appAliases = map[string]string{
	// Browsers
	"chrome":  "Google Chrome",
	"safari":  "Safari",
	"firefox": "Firefox",
	"brave":   "Brave Browser",

	// Development
	"vscode":   "Visual Studio Code",
	"vs code":  "Visual Studio Code",
	"code":     "Visual Studio Code",
	"pycharm":  "PyCharm",
	"xcode":    "Xcode",
	"terminal": "Terminal",
	"iterm":    "iTerm",

	// Productivity
	"notion":   "Notion",
	"slack":    "Slack",
	"discord":  "Discord",
	"spotify":  "Spotify",
	"notes":    "Notes",
	"mail":     "Mail",
	"calendar": "Calendar",

	// System
	"finder":      "Finder",
	"settings":    "System Settings",
	"preferences": "System Settings",
}

// Controller performs local OS actions (app lifecycle, volume, brightness)
// through shell commands. Every call is bounded by a short timeout; results
// come back as (ok, user-facing message) and never as an error.
type Controller struct {
	timeout time.Duration
}

// NewController creates a Controller with the default timeout.
func NewController() *Controller {
	return &Controller{timeout: 5 * time.Second}
}

// ResolveApp maps a spoken name to the installed application name.
func ResolveApp(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if actual, ok := appAliases[key]; ok {
		return actual
	}
	return strings.TrimSpace(name)
}

func (c *Controller) run(name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		logging.Debug("system", "%s %v failed: %v (%s)", name, args, err, logging.Truncate(string(out), 80))
		return err
	}
	return nil
}

// OpenApp launches an application by name.
func (c *Controller) OpenApp(name string) (bool, string) {
	app := ResolveApp(name)
	if app == "" {
		return false, "Which application would you like me to open, sir?"
	}
	if err := c.run("open", "-a", app); err != nil {
		return false, fmt.Sprintf("I'm afraid I couldn't locate '%s', sir. Please verify the application is installed.", app)
	}
	return true, fmt.Sprintf("Opened %s, sir.", app)
}

// CloseApp quits an application by name.
func (c *Controller) CloseApp(name string) (bool, string) {
	app := ResolveApp(name)
	if app == "" {
		return false, "Which application would you like me to close, sir?"
	}
	if err := c.run("pkill", "-i", app); err != nil {
		return false, fmt.Sprintf("I'm afraid %s doesn't appear to be running, sir.", app)
	}
	return true, fmt.Sprintf("Closed %s, sir.", app)
}

// SetVolume sets the output volume, 0-100.
func (c *Controller) SetVolume(level int) (bool, string) {
	if level < 0 || level > 100 {
		return false, "Volume must be between 0 and 100, sir."
	}
	script := fmt.Sprintf("set volume output volume %d", level)
	if err := c.run("osascript", "-e", script); err != nil {
		return false, "I'm afraid I couldn't adjust the volume, sir."
	}
	return true, fmt.Sprintf("Volume set to %d%%, sir.", level)
}

// SetBrightness sets the display brightness, 0-100.
func (c *Controller) SetBrightness(level int) (bool, string) {
	if level < 0 || level > 100 {
		return false, "Brightness must be between 0 and 100, sir."
	}
	script := fmt.Sprintf("tell application \"System Events\" to set brightness of display 1 to %.2f", float64(level)/100)
	if err := c.run("osascript", "-e", script); err != nil {
		return false, "I'm afraid I couldn't adjust the brightness, sir."
	}
	return true, fmt.Sprintf("Brightness set to %d%%, sir.", level)
}

// OpenURL opens a URL in the default browser.
func (c *Controller) OpenURL(url string) (bool, string) {
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}
	if err := c.run("open", url); err != nil {
		return false, fmt.Sprintf("I couldn't open %s, sir.", url)
	}
	return true, fmt.Sprintf("Opened %s, sir.", url)
}
