package annotate

import "image/color"

// palette is the ultralytics class colour cycle.
var palette = []color.RGBA{
	hex(0x042AFF), hex(0x0BDBEB), hex(0xF3F3F3), hex(0x00DFB7), hex(0x111F68),
	hex(0xFF6FDD), hex(0xFF444F), hex(0xCCED00), hex(0x00F344), hex(0xBD00FF),
	hex(0x00B4FF), hex(0xDD00BA), hex(0x00FFFF), hex(0x26C000), hex(0x01FFB3),
	hex(0x7D24FF), hex(0x7B0068), hex(0xFF1B6C), hex(0xFC6D2F), hex(0xA2FF0B),
}

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	black = color.RGBA{R: 0, G: 0, B: 0, A: 0}
)

func hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0}
}

// ClassColor returns the box colour for a class ID.
func ClassColor(classID int) color.RGBA {
	if classID < 0 {
		classID = -classID
	}
	return palette[classID%len(palette)]
}

// textColor picks black text on light backgrounds and white otherwise.
func textColor(bg color.RGBA) color.RGBA {
	luma := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if luma > 160 {
		return black
	}
	return white
}
