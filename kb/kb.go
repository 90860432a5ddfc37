// Package kb provides a rune-to-keyboard-event table for synthesizing
// Input.dispatchKeyEvent sequences, following chromedp/kb's approach of a
// generated lookup table driven by Chromium's DOM key/code data.
//
// chromedp/kb builds its table from files fetched out of the Chromium
// source tree by a generator script; that network fetch has no equivalent
// here, so this file instead hand-covers the ASCII printable range plus
// the handful of control keys chromedp itself special-cases (Backspace,
// Tab, Enter) - everything a CDP consumer needs to drive a standard HTML
// form. See DESIGN.md for the scope note.
package kb

// Key describes the event parameters Input.dispatchKeyEvent needs to
// synthesize one keystroke, named after the DOM KeyboardEvent fields
// chromedp's generated table also carries.
type Key struct {
	Code       string
	Key        string
	Text       string
	Unmodified string
	Native     int64
	Windows    int64
	Shift      bool
	Print      bool
}

// Keys maps a rune to its synthesized keyboard event. Runes absent from
// this table fall back to a best-effort Key built by Encode.
var Keys = map[rune]Key{
	'\b': {"Backspace", "Backspace", "", "", int64('\b'), int64('\b'), false, false},
	'\t': {"Tab", "Tab", "", "", int64('\t'), int64('\t'), false, false},
	'\r': {"Enter", "Enter", "\r", "\r", int64('\r'), int64('\r'), false, true},
	'\n': {"Enter", "Enter", "\r", "\r", int64('\r'), int64('\r'), false, true},
	' ':  {"Space", " ", " ", " ", int64(' '), int64(' '), false, true},
}

func init() {
	for r := '!'; r <= '~'; r++ {
		if _, ok := Keys[r]; ok {
			continue
		}
		shift := isShifted(r)
		Keys[r] = Key{
			Code:       "",
			Key:        string(r),
			Text:       string(r),
			Unmodified: string(r),
			Native:     int64(r),
			Windows:    int64(r),
			Shift:      shift,
			Print:      true,
		}
	}
}

// isShifted reports whether r requires the shift modifier to type on a US
// keyboard layout (uppercase letters and the shifted symbol row).
func isShifted(r rune) bool {
	if r >= 'A' && r <= 'Z' {
		return true
	}
	switch r {
	case '~', '!', '@', '#', '$', '%', '^', '&', '*', '(', ')',
		'_', '+', '{', '}', '|', ':', '"', '<', '>', '?':
		return true
	}
	return false
}

// Encode returns the Key describing r, synthesizing a generic entry for any
// rune outside the table (e.g. non-ASCII text) so Encode never fails.
func Encode(r rune) Key {
	if k, ok := Keys[r]; ok {
		return k
	}
	return Key{
		Key:     string(r),
		Text:    string(r),
		Print:   true,
		Native:  int64(r),
		Windows: int64(r),
	}
}
