package hotkey

import (
	"fmt"
	"strings"
)

// Manager defines the interface for global hotkey management
type Manager interface {
	Register(accel string, callback func(pressed bool)) error
	Unregister(accel string) error
	Close() error
}

// Accelerator is a parsed hotkey such as "Ctrl+Alt+R"
type Accelerator struct {
	Ctrl  bool
	Alt   bool // Option on macOS
	Shift bool
	Cmd   bool // Command on macOS, Super elsewhere
	Key   string
}

func (a Accelerator) String() string {
	var parts []string
	if a.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if a.Alt {
		parts = append(parts, "Alt")
	}
	if a.Shift {
		parts = append(parts, "Shift")
	}
	if a.Cmd {
		parts = append(parts, "Cmd")
	}
	return strings.Join(append(parts, a.Key), "+")
}

var namedKeys = map[string]string{
	"space":  "Space",
	"return": "Return",
	"enter":  "Return",
	"tab":    "Tab",
	"escape": "Escape",
	"esc":    "Escape",
}

// Parse reads an accelerator of the form "Mod+Mod+Key". Modifier names are
// case-insensitive; the key is a letter, a digit, F1-F12 or one of Space,
// Return, Tab and Escape.
func Parse(accel string) (Accelerator, error) {
	var a Accelerator
	parts := strings.Split(accel, "+")
	for i, raw := range parts {
		p := strings.TrimSpace(raw)
		if p == "" {
			return Accelerator{}, fmt.Errorf("hotkey %q: empty component", accel)
		}
		if i < len(parts)-1 {
			switch strings.ToLower(p) {
			case "ctrl", "control":
				a.Ctrl = true
			case "alt", "option", "opt":
				a.Alt = true
			case "shift":
				a.Shift = true
			case "cmd", "command", "super", "meta":
				a.Cmd = true
			default:
				return Accelerator{}, fmt.Errorf("hotkey %q: unknown modifier %q", accel, p)
			}
			continue
		}

		key, err := normalizeKey(p)
		if err != nil {
			return Accelerator{}, fmt.Errorf("hotkey %q: %w", accel, err)
		}
		a.Key = key
	}
	if !a.Ctrl && !a.Alt && !a.Shift && !a.Cmd {
		return Accelerator{}, fmt.Errorf("hotkey %q: at least one modifier required", accel)
	}
	return a, nil
}

func normalizeKey(k string) (string, error) {
	if named, ok := namedKeys[strings.ToLower(k)]; ok {
		return named, nil
	}
	if len(k) == 1 {
		c := strings.ToUpper(k)[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return string(c), nil
		}
	}
	up := strings.ToUpper(k)
	if _, ok := darwinKeyCodes[up]; ok && strings.HasPrefix(up, "F") {
		return up, nil
	}
	return "", fmt.Errorf("unsupported key %q", k)
}

// Carbon virtual key codes (kVK_*)
var darwinKeyCodes = map[string]uint32{
	"A": 0x00, "S": 0x01, "D": 0x02, "F": 0x03, "H": 0x04, "G": 0x05,
	"Z": 0x06, "X": 0x07, "C": 0x08, "V": 0x09, "B": 0x0B, "Q": 0x0C,
	"W": 0x0D, "E": 0x0E, "R": 0x0F, "Y": 0x10, "T": 0x11, "1": 0x12,
	"2": 0x13, "3": 0x14, "4": 0x15, "6": 0x16, "5": 0x17, "9": 0x19,
	"7": 0x1A, "8": 0x1C, "0": 0x1D, "O": 0x1F, "U": 0x20, "I": 0x22,
	"P": 0x23, "L": 0x25, "J": 0x26, "K": 0x28, "N": 0x2D, "M": 0x2E,
	"Return": 0x24, "Tab": 0x30, "Space": 0x31, "Escape": 0x35,
	"F1": 0x7A, "F2": 0x78, "F3": 0x63, "F4": 0x76, "F5": 0x60, "F6": 0x61,
	"F7": 0x62, "F8": 0x64, "F9": 0x65, "F10": 0x6D, "F11": 0x67, "F12": 0x6F,
}

// carbon returns the key code and modifier mask for RegisterEventHotKey
func (a Accelerator) carbon() (keyCode, modifiers uint32, err error) {
	keyCode, ok := darwinKeyCodes[a.Key]
	if !ok {
		return 0, 0, fmt.Errorf("no key code for %q", a.Key)
	}
	// cmdKey=0x100, shiftKey=0x200, optionKey=0x800, controlKey=0x1000
	if a.Cmd {
		modifiers |= 0x100
	}
	if a.Shift {
		modifiers |= 0x200
	}
	if a.Alt {
		modifiers |= 0x800
	}
	if a.Ctrl {
		modifiers |= 0x1000
	}
	return keyCode, modifiers, nil
}

// x11 returns the keysym name and modifier mask for XGrabKey
func (a Accelerator) x11() (keysym string, modifiers int) {
	switch {
	case len(a.Key) == 1:
		keysym = strings.ToLower(a.Key)
	case a.Key == "Space":
		keysym = "space"
	default:
		keysym = a.Key
	}
	// ShiftMask=1, ControlMask=4, Mod1Mask=8 (Alt), Mod4Mask=64 (Super)
	if a.Shift {
		modifiers |= 1
	}
	if a.Ctrl {
		modifiers |= 4
	}
	if a.Alt {
		modifiers |= 8
	}
	if a.Cmd {
		modifiers |= 64
	}
	return keysym, modifiers
}
