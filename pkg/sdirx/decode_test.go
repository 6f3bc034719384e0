package sdirx

import "testing"

func TestDecodeTransportFields(t *testing.T) {
	w := StatusWords{
		// mode 3G, locked, 4 streams, level B
		ModeDet: 0x2 | 0x8 | (0x2 << 4) | 0x80,
		// locked, progressive, family 2048-2, rate 29.97
		TSDet: 0x1 | 0x2 | (0x2 << 4) | (0x6 << 8),
		TData: 0x2000,
	}

	tr, lock := DecodeTransport(w)
	if !lock.Locked() {
		t.Fatalf("lock = %+v, want both locked", lock)
	}

	want := Transport{
		Mode:          Mode3G,
		IsLevelB3G:    true,
		ActiveStreams: Streams4,
		Scan:          1,
		Family:        FamilySMPTE2048,
		Rate:          Rate29_97,
		IsFractional:  true,
	}
	if tr != want {
		t.Errorf("DecodeTransport() = %+v, want %+v", tr, want)
	}
	if tr.ActiveStreams.Count() != 4 {
		t.Errorf("ActiveStreams.Count() = %d, want 4", tr.ActiveStreams.Count())
	}
}

func TestDecodeLock(t *testing.T) {
	tests := []struct {
		name    string
		modeDet uint32
		tsDet   uint32
		want    LockStatus
	}{
		{"both locked", 0x8, 0x1, LockStatus{true, true}},
		{"mode only", 0x8, 0x0, LockStatus{true, false}},
		{"timing only", 0x0, 0x1, LockStatus{false, true}},
		{"neither", 0x7, 0xFFE, LockStatus{false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeLock(tt.modeDet, tt.tsDet); got != tt.want {
				t.Errorf("DecodeLock(0x%x, 0x%x) = %+v, want %+v", tt.modeDet, tt.tsDet, got, tt.want)
			}
		})
	}
}

func TestDecodeTransportClampsMode(t *testing.T) {
	for _, raw := range []uint32{5, 6, 7} {
		tr, _ := DecodeTransport(StatusWords{ModeDet: raw | ModeDetLockedMask, TSDet: TSDetLockedMask})
		if tr.Mode != Mode12G {
			t.Errorf("raw mode %d decoded as %s, want 12G", raw, tr.Mode)
		}
	}

	tr, _ := DecodeTransport(StatusWords{ModeDet: 3 | ModeDetLockedMask})
	if tr.Mode != Mode(3) {
		t.Errorf("unassigned mode 3 decoded as %s, want mode(3)", tr.Mode)
	}
}

func TestClampedModeClassifiesAs12G(t *testing.T) {
	base := Transport{Mode: Mode12G, Family: FamilySMPTE2048, Rate: Rate50}
	want := Classify(base)

	for _, raw := range []Mode{6, 7} {
		in := base
		in.Mode = raw
		tr, _ := DecodeTransport(EncodeStatus(in))
		if got := Classify(tr); got != want {
			t.Errorf("raw mode %d: Classify = %+v, want %+v", raw, got, want)
		}
	}
}

func TestEncodeStatusRoundTrip(t *testing.T) {
	in := Transport{
		Mode:          Mode6G,
		ActiveStreams: Streams8,
		Scan:          1,
		Family:        FamilySMPTE296,
		Rate:          Rate59_94,
		IsFractional:  true,
	}
	out, lock := DecodeTransport(EncodeStatus(in))
	if !lock.Locked() {
		t.Fatal("EncodeStatus must set both lock bits")
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestTransportString(t *testing.T) {
	tr := Transport{Mode: Mode3G, IsLevelB3G: true, ActiveStreams: Streams2, Scan: 0, Family: FamilySMPTE274, Rate: Rate50}
	want := `mode=3G level=B streams=2 scan=interlaced family="SMPTE ST 274" rate=50Hz fractional=false`
	if got := tr.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
