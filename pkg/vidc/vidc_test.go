package vidc

import "testing"

func TestFormatNames(t *testing.T) {
	tests := []struct {
		id   FormatID
		want string
	}{
		{VM720x480I60, "720x480i60"},
		{VM720x576I50, "720x576i50"},
		{VM1280x720P24, "1280x720p24"},
		{VM1920x1080I48, "1920x1080i48"},
		{VM1920x1080I120, "1920x1080i120"},
		{VM2048x1080P60, "2048x1080p60"},
		{VM2048x1080I100, "2048x1080i100"},
		{VM3840x2160P30, "3840x2160p30"},
		{VM4096x2160P48, "4096x2160p48"},
		{FormatUnsupported, "unsupported"},
		{NumFormats, "unsupported"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.id.String(); got != tt.want {
				t.Errorf("FormatID(%d).String() = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestCatalogIsDense(t *testing.T) {
	formats := Catalog()
	if len(formats) != int(NumFormats) {
		t.Fatalf("Catalog() returned %d entries, want %d", len(formats), NumFormats)
	}

	seen := make(map[string]FormatID)
	for i, f := range formats {
		if f.ID != FormatID(i) {
			t.Errorf("entry %d has ID %d", i, f.ID)
		}
		if f.Width == 0 || f.Height == 0 || f.Rate == FRUnknown {
			t.Errorf("entry %d (%s) is not populated", i, f.Name())
		}
		if prev, dup := seen[f.Name()]; dup {
			t.Errorf("%s appears twice (ids %d and %d)", f.Name(), prev, f.ID)
		}
		seen[f.Name()] = f.ID
	}
}

func TestTimingTotals(t *testing.T) {
	for _, f := range Catalog() {
		t.Run(f.Name(), func(t *testing.T) {
			tm, ok := TimingFor(f.ID)
			if !ok {
				t.Fatal("TimingFor returned !ok for a catalog entry")
			}

			if tm.HActive != f.Width {
				t.Errorf("HActive = %d, want %d", tm.HActive, f.Width)
			}
			if sum := tm.HActive + tm.HFrontPorch + tm.HSyncWidth + tm.HBackPorch; sum != tm.HTotal {
				t.Errorf("horizontal sum %d != HTotal %d", sum, tm.HTotal)
			}
			if tm.HFrontPorch <= 0 {
				t.Errorf("HFrontPorch = %d, want > 0", tm.HFrontPorch)
			}
			if sum := tm.VActive + tm.F0VFrontPorch + tm.F0VSyncWidth + tm.F0VBackPorch; sum != tm.F0VTotal {
				t.Errorf("field 0 sum %d != F0VTotal %d", sum, tm.F0VTotal)
			}

			activeLines := tm.VActive
			if f.Interlaced {
				if sum := tm.VActive + tm.F1VFrontPorch + tm.F1VSyncWidth + tm.F1VBackPorch; sum != tm.F1VTotal {
					t.Errorf("field 1 sum %d != F1VTotal %d", sum, tm.F1VTotal)
				}
				activeLines *= 2
			} else if tm.F1VTotal != 0 {
				t.Errorf("progressive format has F1VTotal %d", tm.F1VTotal)
			}
			if activeLines != f.Height {
				t.Errorf("active lines %d, want %d", activeLines, f.Height)
			}
		})
	}
}

func TestTimingForUnsupported(t *testing.T) {
	if _, ok := TimingFor(FormatUnsupported); ok {
		t.Error("TimingFor(FormatUnsupported) returned ok")
	}
}

func TestKnownLineTotals(t *testing.T) {
	tests := []struct {
		id     FormatID
		hTotal int
		lines  int
	}{
		{VM720x480I60, 858, 525},
		{VM720x576I50, 864, 625},
		{VM1280x720P60, 1650, 750},
		{VM1920x1080P24, 2750, 1125},
		{VM1920x1080I50, 2640, 1125},
		{VM1920x1080I120, 2200, 1125},
		{VM3840x2160P60, 4400, 2250},
		{VM4096x2160P24, 5500, 2250},
	}

	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			tm, _ := TimingFor(tt.id)
			if tm.HTotal != tt.hTotal {
				t.Errorf("HTotal = %d, want %d", tm.HTotal, tt.hTotal)
			}
			if got := tm.LinesPerFrame(); got != tt.lines {
				t.Errorf("LinesPerFrame() = %d, want %d", got, tt.lines)
			}
		})
	}
}
