// Package vidc holds the video format catalog shared by the SDI receiver:
// format identifiers, frame rates, color formats and their line timing.
package vidc

import "fmt"

// FrameRate is a canonical frame (or field, for interlaced labels) rate.
type FrameRate int

// Frame rates.
const (
	FRUnknown FrameRate = 0
	FR24Hz    FrameRate = 24
	FR25Hz    FrameRate = 25
	FR30Hz    FrameRate = 30
	FR48Hz    FrameRate = 48
	FR50Hz    FrameRate = 50
	FR60Hz    FrameRate = 60
	FR96Hz    FrameRate = 96
	FR100Hz   FrameRate = 100
	FR120Hz   FrameRate = 120
)

// Hz returns the rate as an integer number of hertz.
func (f FrameRate) Hz() int { return int(f) }

func (f FrameRate) String() string {
	if f == FRUnknown {
		return "unknown"
	}
	return fmt.Sprintf("%dHz", int(f))
}

// ColorFormat identifies the chroma sampling of a stream.
type ColorFormat int

// Color formats.
const (
	ColorRGB ColorFormat = iota
	ColorYCbCr444
	ColorYCbCr422
	ColorYCbCr420
)

func (c ColorFormat) String() string {
	switch c {
	case ColorRGB:
		return "RGB"
	case ColorYCbCr444:
		return "YCbCr 4:4:4"
	case ColorYCbCr422:
		return "YCbCr 4:2:2"
	case ColorYCbCr420:
		return "YCbCr 4:2:0"
	default:
		return "unknown"
	}
}

// PixelsPerClock is the number of pixels carried per video clock.
type PixelsPerClock int

// Pixels per clock.
const (
	PPC1 PixelsPerClock = 1
	PPC2 PixelsPerClock = 2
	PPC4 PixelsPerClock = 4
	PPC8 PixelsPerClock = 8
)

// ColorDepth is the number of bits per color component.
type ColorDepth int

// Color depths.
const (
	BPC8  ColorDepth = 8
	BPC10 ColorDepth = 10
	BPC12 ColorDepth = 12
	BPC16 ColorDepth = 16
)

// FormatID identifies a supported resolution, rate and scan combination.
// Values below NumFormats are members of the catalog.
type FormatID int

// Catalog entries.
const (
	VM720x480I60 FormatID = iota
	VM720x576I50

	VM1280x720P24
	VM1280x720P25
	VM1280x720P30
	VM1280x720P50
	VM1280x720P60

	VM1920x1080P24
	VM1920x1080P25
	VM1920x1080P30
	VM1920x1080P48
	VM1920x1080P50
	VM1920x1080P60
	VM1920x1080I48
	VM1920x1080I50
	VM1920x1080I60
	VM1920x1080I96
	VM1920x1080I100
	VM1920x1080I120

	VM2048x1080P24
	VM2048x1080P25
	VM2048x1080P30
	VM2048x1080P48
	VM2048x1080P50
	VM2048x1080P60
	VM2048x1080I48
	VM2048x1080I50
	VM2048x1080I60
	VM2048x1080I96
	VM2048x1080I100
	VM2048x1080I120

	VM3840x2160P24
	VM3840x2160P25
	VM3840x2160P30
	VM3840x2160P48
	VM3840x2160P50
	VM3840x2160P60

	VM4096x2160P24
	VM4096x2160P25
	VM4096x2160P30
	VM4096x2160P48
	VM4096x2160P50
	VM4096x2160P60

	// NumFormats is the catalog size.
	NumFormats
)

// FormatUnsupported marks a stream no catalog entry matched.
const FormatUnsupported FormatID = -1

// Format describes one catalog entry.
type Format struct {
	ID         FormatID  `json:"id"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Rate       FrameRate `json:"rate"`
	Interlaced bool      `json:"interlaced"`
}

// Name returns the conventional short name, e.g. "1920x1080i60".
func (f Format) Name() string {
	scan := "p"
	if f.Interlaced {
		scan = "i"
	}
	return fmt.Sprintf("%dx%d%s%d", f.Width, f.Height, scan, f.Rate.Hz())
}

var catalog = buildCatalog()

func buildCatalog() [NumFormats]Format {
	var out [NumFormats]Format
	add := func(id FormatID, w, h int, rate FrameRate, interlaced bool) {
		out[id] = Format{ID: id, Width: w, Height: h, Rate: rate, Interlaced: interlaced}
	}

	add(VM720x480I60, 720, 480, FR60Hz, true)
	add(VM720x576I50, 720, 576, FR50Hz, true)

	add(VM1280x720P24, 1280, 720, FR24Hz, false)
	add(VM1280x720P25, 1280, 720, FR25Hz, false)
	add(VM1280x720P30, 1280, 720, FR30Hz, false)
	add(VM1280x720P50, 1280, 720, FR50Hz, false)
	add(VM1280x720P60, 1280, 720, FR60Hz, false)

	for _, w := range []int{1920, 2048} {
		base := VM1920x1080P24
		if w == 2048 {
			base = VM2048x1080P24
		}
		for i, r := range []FrameRate{FR24Hz, FR25Hz, FR30Hz, FR48Hz, FR50Hz, FR60Hz} {
			add(base+FormatID(i), w, 1080, r, false)
		}
		for i, r := range []FrameRate{FR48Hz, FR50Hz, FR60Hz, FR96Hz, FR100Hz, FR120Hz} {
			add(base+6+FormatID(i), w, 1080, r, true)
		}
	}

	for _, w := range []int{3840, 4096} {
		base := VM3840x2160P24
		if w == 4096 {
			base = VM4096x2160P24
		}
		for i, r := range []FrameRate{FR24Hz, FR25Hz, FR30Hz, FR48Hz, FR50Hz, FR60Hz} {
			add(base+FormatID(i), w, 2160, r, false)
		}
	}
	return out
}

// Supported reports whether id is a member of the catalog.
func (id FormatID) Supported() bool {
	return id >= 0 && id < NumFormats
}

// Format returns the catalog entry for id. ok is false for ids outside the
// catalog.
func (id FormatID) Format() (Format, bool) {
	if !id.Supported() {
		return Format{ID: FormatUnsupported}, false
	}
	return catalog[id], true
}

func (id FormatID) String() string {
	f, ok := id.Format()
	if !ok {
		return "unsupported"
	}
	return f.Name()
}

// Catalog returns every supported format in identifier order.
func Catalog() []Format {
	out := make([]Format, NumFormats)
	copy(out, catalog[:])
	return out
}
