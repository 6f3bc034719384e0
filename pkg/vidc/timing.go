package vidc

// Timing is the pixel and line timing of a format. Vertical values are per
// field for interlaced formats; F1 fields are zero for progressive formats.
type Timing struct {
	HActive       int `json:"h_active"`
	HFrontPorch   int `json:"h_front_porch"`
	HSyncWidth    int `json:"h_sync_width"`
	HBackPorch    int `json:"h_back_porch"`
	HTotal        int `json:"h_total"`
	HSyncPolarity int `json:"h_sync_polarity"`

	VActive       int `json:"v_active"`
	F0VFrontPorch int `json:"f0_v_front_porch"`
	F0VSyncWidth  int `json:"f0_v_sync_width"`
	F0VBackPorch  int `json:"f0_v_back_porch"`
	F0VTotal      int `json:"f0_v_total"`
	F1VFrontPorch int `json:"f1_v_front_porch"`
	F1VSyncWidth  int `json:"f1_v_sync_width"`
	F1VBackPorch  int `json:"f1_v_back_porch"`
	F1VTotal      int `json:"f1_v_total"`
	VSyncPolarity int `json:"v_sync_polarity"`
}

// LinesPerFrame returns the total number of lines in one frame.
func (t Timing) LinesPerFrame() int {
	return t.F0VTotal + t.F1VTotal
}

var timings = buildTimings()

// TimingFor returns the timing of a catalog format. ok is false for ids
// outside the catalog, in which case the zero Timing is returned.
func TimingFor(id FormatID) (Timing, bool) {
	if !id.Supported() {
		return Timing{}, false
	}
	return timings[id], true
}

func buildTimings() [NumFormats]Timing {
	var out [NumFormats]Timing
	for id := FormatID(0); id < NumFormats; id++ {
		out[id] = buildTiming(catalog[id])
	}
	return out
}

// frameRateOf folds an interlaced field-rate label onto the frame rate that
// determines the line length.
func frameRateOf(f Format) FrameRate {
	r := f.Rate
	if f.Interlaced && f.Height >= 1080 {
		r /= 2
	}
	switch r {
	case FR48Hz:
		return FR24Hz
	case FR50Hz:
		return FR25Hz
	case FR60Hz:
		return FR30Hz
	}
	return r
}

func buildTiming(f Format) Timing {
	switch f.Height {
	case 480:
		return Timing{
			HActive: 720, HFrontPorch: 19, HSyncWidth: 62, HBackPorch: 57, HTotal: 858,
			VActive: 240, F0VFrontPorch: 4, F0VSyncWidth: 3, F0VBackPorch: 15, F0VTotal: 262,
			F1VFrontPorch: 5, F1VSyncWidth: 3, F1VBackPorch: 15, F1VTotal: 263,
		}
	case 576:
		return Timing{
			HActive: 720, HFrontPorch: 12, HSyncWidth: 63, HBackPorch: 69, HTotal: 864,
			VActive: 288, F0VFrontPorch: 2, F0VSyncWidth: 3, F0VBackPorch: 19, F0VTotal: 312,
			F1VFrontPorch: 2, F1VSyncWidth: 3, F1VBackPorch: 20, F1VTotal: 313,
		}
	case 720:
		hTotal := map[FrameRate]int{FR24Hz: 4125, FR25Hz: 3960, FR30Hz: 3300, FR50Hz: 1980, FR60Hz: 1650}[f.Rate]
		return Timing{
			HActive: 1280, HFrontPorch: hTotal - 1280 - 40 - 220, HSyncWidth: 40, HBackPorch: 220, HTotal: hTotal, HSyncPolarity: 1,
			VActive: 720, F0VFrontPorch: 5, F0VSyncWidth: 5, F0VBackPorch: 20, F0VTotal: 750, VSyncPolarity: 1,
		}
	case 1080:
		rate := frameRateOf(f)
		hTotal := map[FrameRate]int{FR24Hz: 2750, FR25Hz: 2640, FR30Hz: 2200}[rate]
		backPorch := 148
		if f.Width == 2048 && rate == FR30Hz {
			backPorch = 64
		}
		t := Timing{
			HActive: f.Width, HFrontPorch: hTotal - f.Width - 44 - backPorch, HSyncWidth: 44, HBackPorch: backPorch, HTotal: hTotal, HSyncPolarity: 1,
			VSyncPolarity: 1,
		}
		if f.Interlaced {
			t.VActive = 540
			t.F0VFrontPorch, t.F0VSyncWidth, t.F0VBackPorch, t.F0VTotal = 2, 5, 15, 562
			t.F1VFrontPorch, t.F1VSyncWidth, t.F1VBackPorch, t.F1VTotal = 2, 5, 16, 563
		} else {
			t.VActive = 1080
			t.F0VFrontPorch, t.F0VSyncWidth, t.F0VBackPorch, t.F0VTotal = 4, 5, 36, 1125
		}
		return t
	case 2160:
		rate := frameRateOf(f)
		hTotal := map[FrameRate]int{FR24Hz: 5500, FR25Hz: 5280, FR30Hz: 4400}[rate]
		backPorch := 296
		if f.Width == 4096 && rate != FR24Hz {
			backPorch = 128
		}
		return Timing{
			HActive: f.Width, HFrontPorch: hTotal - f.Width - 88 - backPorch, HSyncWidth: 88, HBackPorch: backPorch, HTotal: hTotal, HSyncPolarity: 1,
			VActive: 2160, F0VFrontPorch: 8, F0VSyncWidth: 10, F0VBackPorch: 72, F0VTotal: 2250, VSyncPolarity: 1,
		}
	}
	return Timing{}
}
