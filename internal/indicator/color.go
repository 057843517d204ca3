package indicator

import "strings"

// Color is a logical indicator color.
type Color int

const (
	White Color = iota
	Red
	Green
	Off
)

// RGB is one pixel value in logical red/green/blue order.
type RGB struct {
	R, G, B uint8
}

// colorTable maps logical colors to pixel values. Anything not listed
// resolves to White so the strip never silently goes dark.
var colorTable = map[Color]RGB{
	White: {R: 255, G: 255, B: 255},
	Red:   {R: 255, G: 0, B: 0},
	Green: {R: 0, G: 255, B: 0},
	Off:   {R: 0, G: 0, B: 0},
}

// RGB resolves c to its pixel value. Unrecognised colors resolve to White.
func (c Color) RGB() RGB {
	if v, ok := colorTable[c]; ok {
		return v
	}
	return colorTable[White]
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Red:
		return "red"
	case Green:
		return "green"
	case Off:
		return "off"
	default:
		return "unknown"
	}
}

// ParseColor resolves a configured color name, case-insensitively.
// Unknown names resolve to White.
func ParseColor(name string) Color {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "red":
		return Red
	case "green":
		return Green
	case "off":
		return Off
	default:
		return White
	}
}
