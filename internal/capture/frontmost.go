// File: internal/capture/frontmost.go
package capture

import (
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
)

var browserNames = []string{
	"chrome", "safari", "firefox", "edge", "arc", "brave", "opera",
}

// SystemFrontmost reports the application owning the active window. It is a
// FrontmostFunc for the app poller.
func SystemFrontmost() (*schemas.AppContext, error) {
	pid := robotgo.GetPid()
	name, err := robotgo.FindName(pid)
	if err != nil || name == "" {
		// Fall back to the window title when the process name is hidden.
		name = strings.TrimSpace(robotgo.GetTitle())
	}
	if name == "" {
		return nil, fmt.Errorf("no active window")
	}
	return &schemas.AppContext{
		Name:      name,
		IsBrowser: isBrowserName(name),
	}, nil
}

func isBrowserName(name string) bool {
	lower := strings.ToLower(name)
	for _, b := range browserNames {
		if strings.Contains(lower, b) {
			return true
		}
	}
	return false
}
