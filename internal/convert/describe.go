// File: internal/convert/describe.go
// Description: Human-readable step descriptions keyed on the application
// the action happened in.

package convert

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xkilldash9x/mimic-cli/api/schemas"
)

// describeAppAction phrases a click/type/hotkey in terms of the app it
// happened in, so the recorded workflow reads like a narrative.
func describeAppAction(appName string, kind schemas.ActionKind, details string) string {
	lower := strings.ToLower(appName)

	switch {
	case strings.Contains(lower, "settings") || strings.Contains(lower, "preferences"):
		switch kind {
		case schemas.ActionClick:
			return "Click in System Settings"
		case schemas.ActionType:
			return fmt.Sprintf("Search in Settings: '%s'", details)
		}
		return "Interact with System Settings"

	case strings.Contains(lower, "chrome") || strings.Contains(lower, "safari") || strings.Contains(lower, "firefox"):
		browser := "Firefox"
		if strings.Contains(lower, "chrome") {
			browser = "Chrome"
		} else if strings.Contains(lower, "safari") {
			browser = "Safari"
		}
		switch kind {
		case schemas.ActionType:
			return fmt.Sprintf("Type in %s: '%s'", browser, details)
		case schemas.ActionClick:
			return fmt.Sprintf("Click in %s", browser)
		}
		return fmt.Sprintf("Navigate in %s", browser)

	case strings.Contains(lower, "finder"):
		switch kind {
		case schemas.ActionClick:
			return "Click in Finder"
		case schemas.ActionType:
			return fmt.Sprintf("Search in Finder: '%s'", details)
		}
		return "Navigate files in Finder"

	case strings.Contains(lower, "notes") || strings.Contains(lower, "textedit"):
		editor := "TextEdit"
		if strings.Contains(lower, "notes") {
			editor = "Notes"
		}
		switch kind {
		case schemas.ActionType:
			return fmt.Sprintf("Type in %s: '%s'", editor, details)
		case schemas.ActionClick:
			return fmt.Sprintf("Click in %s", editor)
		}
		return fmt.Sprintf("Edit text in %s", editor)

	case strings.Contains(lower, "mail"):
		switch kind {
		case schemas.ActionType:
			return fmt.Sprintf("Type in Mail: '%s'", details)
		case schemas.ActionClick:
			return "Click in Mail"
		}
		return "Interact with Mail"

	case strings.Contains(lower, "spotify") || strings.Contains(lower, "music"):
		app := "Music"
		if strings.Contains(lower, "spotify") {
			app = "Spotify"
		}
		if kind == schemas.ActionClick {
			return fmt.Sprintf("Control %s playback", app)
		}
		return fmt.Sprintf("Interact with %s", app)

	case strings.Contains(lower, "terminal") || strings.Contains(lower, "iterm"):
		term := "iTerm"
		if strings.Contains(lower, "terminal") {
			term = "Terminal"
		}
		if kind == schemas.ActionType {
			return fmt.Sprintf("Run command in %s: '%s'", term, details)
		}
		return fmt.Sprintf("Use %s", term)

	case strings.Contains(lower, "slack") || strings.Contains(lower, "discord") || strings.Contains(lower, "teams"):
		chat := "Chat"
		if fields := strings.Fields(appName); len(fields) > 0 {
			chat = fields[0]
		}
		switch kind {
		case schemas.ActionType:
			return fmt.Sprintf("Send message in %s: '%s'", chat, details)
		case schemas.ActionClick:
			return fmt.Sprintf("Click in %s", chat)
		}
		return fmt.Sprintf("Use %s", chat)

	case strings.Contains(lower, "code") || strings.Contains(lower, "cursor"):
		editor := "Code"
		if strings.Contains(lower, "cursor") {
			editor = "Cursor"
		} else if strings.Contains(lower, "vscode") {
			editor = "VS Code"
		}
		switch kind {
		case schemas.ActionType:
			return fmt.Sprintf("Code in %s: '%s'", editor, details)
		case schemas.ActionClick:
			return fmt.Sprintf("Navigate in %s", editor)
		}
		return fmt.Sprintf("Use %s", editor)
	}

	switch kind {
	case schemas.ActionClick:
		return fmt.Sprintf("Click in %s", appName)
	case schemas.ActionType:
		return fmt.Sprintf("Type in %s: '%s'", appName, details)
	case schemas.ActionHotkey:
		return fmt.Sprintf("Use keyboard shortcut in %s", appName)
	}
	return fmt.Sprintf("Interact with %s", appName)
}

// truncate returns at most n runes of s, never splitting a multi-byte
// character.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
