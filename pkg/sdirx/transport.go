package sdirx

import (
	"fmt"
	"strings"
)

// Mode is the SDI transport tier.
type Mode uint8

// Transport modes as reported in MODE_DET_STS. Code 3 is unassigned.
const (
	ModeHD  Mode = 0
	ModeSD  Mode = 1
	Mode3G  Mode = 2
	Mode6G  Mode = 4
	Mode12G Mode = 5
)

func (m Mode) String() string {
	switch m {
	case ModeHD:
		return "HD"
	case ModeSD:
		return "SD"
	case Mode3G:
		return "3G"
	case Mode6G:
		return "6G"
	case Mode12G:
		return "12G"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Family is the transport family (governing standard) of the stream.
type Family uint8

// Transport families.
const (
	FamilySMPTE274  Family = 0
	FamilySMPTE296  Family = 1
	FamilySMPTE2048 Family = 2
	FamilySMPTE295  Family = 3
	FamilyNTSC      Family = 8
	FamilyPAL       Family = 9
)

func (f Family) String() string {
	switch f {
	case FamilySMPTE274:
		return "SMPTE ST 274"
	case FamilySMPTE296:
		return "SMPTE ST 296"
	case FamilySMPTE2048:
		return "SMPTE ST 2048-2"
	case FamilySMPTE295:
		return "SMPTE ST 295"
	case FamilyNTSC:
		return "NTSC"
	case FamilyPAL:
		return "PAL"
	default:
		return fmt.Sprintf("family(%d)", uint8(f))
	}
}

// RateCode is the hardware frame-rate code (SMPTE ST 352 picture rate).
type RateCode uint8

// Rate codes.
const (
	RateNone  RateCode = 0
	Rate23_98 RateCode = 2
	Rate24    RateCode = 3
	Rate47_95 RateCode = 4
	Rate25    RateCode = 5
	Rate29_97 RateCode = 6
	Rate30    RateCode = 7
	Rate48    RateCode = 8
	Rate50    RateCode = 9
	Rate59_94 RateCode = 10
	Rate60    RateCode = 11
)

var rateNames = map[RateCode]string{
	RateNone:  "none",
	Rate23_98: "23.98Hz",
	Rate24:    "24Hz",
	Rate47_95: "47.95Hz",
	Rate25:    "25Hz",
	Rate29_97: "29.97Hz",
	Rate30:    "30Hz",
	Rate48:    "48Hz",
	Rate50:    "50Hz",
	Rate59_94: "59.94Hz",
	Rate60:    "60Hz",
}

func (r RateCode) String() string {
	if name, ok := rateNames[r]; ok {
		return name
	}
	return fmt.Sprintf("rate(%d)", uint8(r))
}

// ActiveStreams is the hardware code for the number of multiplexed data
// streams.
type ActiveStreams uint8

// Active stream codes.
const (
	Streams1 ActiveStreams = iota
	Streams2
	Streams4
	Streams8
	Streams16
)

// Count returns the number of data streams the code stands for.
func (a ActiveStreams) Count() int {
	if a > Streams16 {
		return 0
	}
	return 1 << a
}

// Transport holds the decoded transport parameters of a locked stream.
type Transport struct {
	Mode          Mode          `json:"mode"`
	IsLevelB3G    bool          `json:"is_level_b_3g"`
	ActiveStreams ActiveStreams `json:"active_streams"`
	Scan          uint8         `json:"scan"` // 1 = progressive
	Family        Family        `json:"family"`
	Rate          RateCode      `json:"rate"`
	IsFractional  bool          `json:"is_fractional"`
}

// Progressive reports whether the scan bit indicates progressive transport.
func (t Transport) Progressive() bool {
	return t.Scan&1 == 1
}

// String renders the detected transport the way an operator reads it.
func (t Transport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mode=%s", t.Mode)
	if t.Mode == Mode3G {
		if t.IsLevelB3G {
			b.WriteString(" level=B")
		} else {
			b.WriteString(" level=A")
		}
	}
	fmt.Fprintf(&b, " streams=%d", t.ActiveStreams.Count())
	if t.Progressive() {
		b.WriteString(" scan=progressive")
	} else {
		b.WriteString(" scan=interlaced")
	}
	fmt.Fprintf(&b, " family=%q rate=%s fractional=%t", t.Family.String(), t.Rate, t.IsFractional)
	return b.String()
}
