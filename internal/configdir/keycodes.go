package configdir

// keyNames maps the symbolic key names used in a .conf file to Linux
// input-event keycodes, adapted from the name table the teacher's
// virtual-device layer used for its HTTP key names.
var keyNames = map[string]uint8{
	"esc": 1, "1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9,
	"9": 10, "0": 11, "minus": 12, "equal": 13, "backspace": 14, "tab": 15,
	"q": 16, "w": 17, "e": 18, "r": 19, "t": 20, "y": 21, "u": 22, "i": 23,
	"o": 24, "p": 25, "leftbrace": 26, "rightbrace": 27, "enter": 28,
	"leftctrl": 29, "ctrl": 29, "a": 30, "s": 31, "d": 32, "f": 33, "g": 34,
	"h": 35, "j": 36, "k": 37, "l": 38, "semicolon": 39, "apostrophe": 40,
	"grave": 41, "leftshift": 42, "shift": 42, "backslash": 43, "z": 44,
	"x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50, "comma": 51,
	"dot": 52, "slash": 53, "rightshift": 54, "leftalt": 56, "alt": 56,
	"space": 57, "capslock": 58,
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64, "f7": 65,
	"f8": 66, "f9": 67, "f10": 68, "f11": 87, "f12": 88,
	"rightctrl": 97, "rightalt": 100, "home": 102, "up": 103, "pageup": 104,
	"left": 105, "right": 106, "end": 107, "down": 108, "pagedown": 109,
	"insert": 110, "delete": 111, "leftmeta": 125, "super": 125,
	"rightmeta": 126,
}

func lookupCode(name string) (uint8, bool) {
	if c, ok := keyNames[name]; ok {
		return c, true
	}
	return 0, false
}
