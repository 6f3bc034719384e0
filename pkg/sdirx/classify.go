package sdirx

import "github.com/smazurov/sdinode/pkg/vidc"

// Classification is the outcome of mapping transport parameters onto the
// format catalog.
type Classification struct {
	FormatID   vidc.FormatID  `json:"format_id"`
	Interlaced bool           `json:"interlaced"`
	Rate       vidc.FrameRate `json:"rate"`
}

// Unknown rate codes resolve to 60Hz in both tables.
var (
	fractionalRates = map[RateCode]vidc.FrameRate{
		Rate23_98: vidc.FR24Hz,
		Rate47_95: vidc.FR48Hz,
		Rate29_97: vidc.FR30Hz,
		Rate59_94: vidc.FR60Hz,
	}
	integerRates = map[RateCode]vidc.FrameRate{
		Rate24: vidc.FR24Hz,
		Rate25: vidc.FR25Hz,
		Rate30: vidc.FR30Hz,
		Rate48: vidc.FR48Hz,
		Rate50: vidc.FR50Hz,
		Rate60: vidc.FR60Hz,
	}
)

// ResolveFrameRate maps a hardware rate code onto its frame-rate bucket.
func ResolveFrameRate(code RateCode, fractional bool) vidc.FrameRate {
	table := integerRates
	if fractional {
		table = fractionalRates
	}
	if rate, ok := table[code]; ok {
		return rate
	}
	return vidc.FR60Hz
}

// familyClass collapses a Family onto the distinctions a mode cares about.
type familyClass uint8

const (
	famOther familyClass = iota
	famNTSC
	famSMPTE274
	famSMPTE296
	famSMPTE2048
)

// tableKey indexes formatTable. Dimensions a mode ignores are left at their
// zero value by normalize.
type tableKey struct {
	mode        Mode
	levelB      bool
	rate        vidc.FrameRate
	family      familyClass
	progressive bool
}

// fallbackKey indexes the per-mode default used when no table entry matches.
type fallbackKey struct {
	mode   Mode
	levelB bool
}

var (
	formatTable   = buildFormatTable()
	fallbackTable = map[fallbackKey]vidc.FormatID{
		{ModeHD, false}:  vidc.VM1920x1080P60,
		{Mode3G, true}:   vidc.VM1920x1080I120,
		{Mode3G, false}:  vidc.VM1920x1080P60,
		{Mode6G, false}:  vidc.VM3840x2160P30,
		{Mode12G, false}: vidc.VM3840x2160P60,
	}
)

func buildFormatTable() map[tableKey]vidc.FormatID {
	t := make(map[tableKey]vidc.FormatID)

	t[tableKey{mode: ModeSD, family: famNTSC}] = vidc.VM720x480I60
	t[tableKey{mode: ModeSD, family: famOther}] = vidc.VM720x576I50

	// HD 24/25/30: the scan bit picks the interlaced variant at twice the
	// nominal rate, except for 720-line SMPTE 296 which is progressive only.
	hdLow := []struct {
		rate                             vidc.FrameRate
		p720, p2048, i2048, p1920, i1920 vidc.FormatID
	}{
		{vidc.FR24Hz, vidc.VM1280x720P24, vidc.VM2048x1080P24, vidc.VM2048x1080I48, vidc.VM1920x1080P24, vidc.VM1920x1080I48},
		{vidc.FR25Hz, vidc.VM1280x720P25, vidc.VM2048x1080P25, vidc.VM2048x1080I50, vidc.VM1920x1080P25, vidc.VM1920x1080I50},
		{vidc.FR30Hz, vidc.VM1280x720P30, vidc.VM2048x1080P30, vidc.VM2048x1080I60, vidc.VM1920x1080P30, vidc.VM1920x1080I60},
	}
	for _, e := range hdLow {
		t[tableKey{mode: ModeHD, rate: e.rate, family: famSMPTE296}] = e.p720
		t[tableKey{mode: ModeHD, rate: e.rate, family: famSMPTE2048, progressive: true}] = e.p2048
		t[tableKey{mode: ModeHD, rate: e.rate, family: famSMPTE2048}] = e.i2048
		t[tableKey{mode: ModeHD, rate: e.rate, family: famOther, progressive: true}] = e.p1920
		t[tableKey{mode: ModeHD, rate: e.rate, family: famOther}] = e.i1920
	}

	t[tableKey{mode: ModeHD, rate: vidc.FR50Hz, family: famSMPTE274}] = vidc.VM1920x1080P50
	t[tableKey{mode: ModeHD, rate: vidc.FR50Hz, family: famOther}] = vidc.VM1280x720P50
	t[tableKey{mode: ModeHD, rate: vidc.FR60Hz, family: famSMPTE274}] = vidc.VM1920x1080P60
	t[tableKey{mode: ModeHD, rate: vidc.FR60Hz, family: famOther}] = vidc.VM1280x720P60

	type pair struct {
		rate        vidc.FrameRate
		dci, normal vidc.FormatID
	}
	addPairs := func(mode Mode, levelB bool, pairs []pair) {
		for _, p := range pairs {
			t[tableKey{mode: mode, levelB: levelB, rate: p.rate, family: famSMPTE2048}] = p.dci
			t[tableKey{mode: mode, levelB: levelB, rate: p.rate, family: famOther}] = p.normal
		}
	}

	addPairs(Mode3G, true, []pair{
		{vidc.FR24Hz, vidc.VM2048x1080I96, vidc.VM1920x1080I96},
		{vidc.FR25Hz, vidc.VM2048x1080I100, vidc.VM1920x1080I100},
		{vidc.FR30Hz, vidc.VM2048x1080I120, vidc.VM1920x1080I120},
	})
	addPairs(Mode3G, false, []pair{
		{vidc.FR24Hz, vidc.VM2048x1080P24, vidc.VM1920x1080P24},
		{vidc.FR25Hz, vidc.VM2048x1080P25, vidc.VM1920x1080P25},
		{vidc.FR30Hz, vidc.VM2048x1080P30, vidc.VM1920x1080P30},
		{vidc.FR48Hz, vidc.VM2048x1080P48, vidc.VM1920x1080P48},
		{vidc.FR50Hz, vidc.VM2048x1080P50, vidc.VM1920x1080P50},
		{vidc.FR60Hz, vidc.VM2048x1080P60, vidc.VM1920x1080P60},
	})
	addPairs(Mode6G, false, []pair{
		{vidc.FR24Hz, vidc.VM4096x2160P24, vidc.VM3840x2160P24},
		{vidc.FR25Hz, vidc.VM4096x2160P25, vidc.VM3840x2160P25},
		{vidc.FR30Hz, vidc.VM4096x2160P30, vidc.VM3840x2160P30},
	})
	addPairs(Mode12G, false, []pair{
		{vidc.FR48Hz, vidc.VM4096x2160P48, vidc.VM3840x2160P48},
		{vidc.FR50Hz, vidc.VM4096x2160P50, vidc.VM3840x2160P50},
		{vidc.FR60Hz, vidc.VM4096x2160P60, vidc.VM3840x2160P60},
	})

	return t
}

func isLowHDRate(rate vidc.FrameRate) bool {
	return rate == vidc.FR24Hz || rate == vidc.FR25Hz || rate == vidc.FR30Hz
}

// normalize reduces transport parameters to the key of the decision table.
func normalize(t Transport, rate vidc.FrameRate) tableKey {
	k := tableKey{mode: t.Mode, rate: rate}

	switch t.Mode {
	case ModeSD:
		k.rate = vidc.FRUnknown
		if t.Family == FamilyNTSC {
			k.family = famNTSC
		}

	case ModeHD:
		if isLowHDRate(rate) {
			switch t.Family {
			case FamilySMPTE296:
				k.family = famSMPTE296
			case FamilySMPTE2048:
				k.family = famSMPTE2048
				k.progressive = t.Progressive()
			default:
				k.progressive = t.Progressive()
			}
		} else if t.Family == FamilySMPTE274 {
			k.family = famSMPTE274
		}

	case Mode3G:
		k.levelB = t.IsLevelB3G
		if t.Family == FamilySMPTE2048 {
			k.family = famSMPTE2048
		}

	case Mode6G, Mode12G:
		if t.Family == FamilySMPTE2048 {
			k.family = famSMPTE2048
		}
	}
	return k
}

// interlacedFromScan reproduces the hardware polarity: scan bit 1 means
// progressive.
func interlacedFromScan(scan uint8) bool {
	return (^scan)&0x1 == 1
}

// Classify maps transport parameters onto a catalog format. It is a pure
// function of its input. Modes without a table yield vidc.FormatUnsupported.
func Classify(t Transport) Classification {
	rate := ResolveFrameRate(t.Rate, t.IsFractional)
	c := Classification{FormatID: vidc.FormatUnsupported, Rate: rate}

	switch t.Mode {
	case ModeSD:
		c.Interlaced = true
		if t.Family == FamilyNTSC {
			c.Rate = vidc.FR60Hz
		} else {
			c.Rate = vidc.FR50Hz
		}
	case ModeHD:
		if isLowHDRate(rate) {
			c.Interlaced = interlacedFromScan(t.Scan)
		}
	case Mode3G:
		c.Interlaced = interlacedFromScan(t.Scan)
	case Mode6G, Mode12G:
	default:
		return c
	}

	if id, ok := formatTable[normalize(t, rate)]; ok {
		c.FormatID = id
		return c
	}
	levelB := t.Mode == Mode3G && t.IsLevelB3G
	if id, ok := fallbackTable[fallbackKey{t.Mode, levelB}]; ok {
		c.FormatID = id
	}
	return c
}
