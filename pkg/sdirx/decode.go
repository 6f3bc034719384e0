package sdirx

// LockStatus reports the two lock indications sampled on a lock interrupt.
type LockStatus struct {
	ModeLocked   bool `json:"mode_locked"`
	TimingLocked bool `json:"timing_locked"`
}

// Locked reports whether both the mode and the timing detector are locked.
func (s LockStatus) Locked() bool {
	return s.ModeLocked && s.TimingLocked
}

// StatusWords is a raw snapshot of the detection registers.
type StatusWords struct {
	ModeDet uint32 `json:"mode_det"`
	TSDet   uint32 `json:"ts_det"`
	TData   uint32 `json:"tdata"`
}

// DecodeLock extracts the lock indications from the mode and timing
// detection status words.
func DecodeLock(modeDet, tsDet uint32) LockStatus {
	return LockStatus{
		ModeLocked:   fieldModeLocked.get(modeDet) == 1,
		TimingLocked: fieldTimingLocked.get(tsDet) == 1,
	}
}

// DecodeTransport extracts the transport parameters from a status snapshot.
// Mode codes above 12G are clamped to 12G. The result is meaningful only when
// the returned LockStatus is Locked.
func DecodeTransport(w StatusWords) (Transport, LockStatus) {
	mode := Mode(fieldMode.get(w.ModeDet))
	if mode > Mode12G {
		mode = Mode12G
	}

	t := Transport{
		Mode:          mode,
		IsLevelB3G:    fieldLevelB.get(w.ModeDet) == 1,
		ActiveStreams: ActiveStreams(fieldActStreams.get(w.ModeDet)),
		Scan:          uint8(fieldScan.get(w.TSDet)),
		Family:        Family(fieldFamily.get(w.TSDet)),
		Rate:          RateCode(fieldRate.get(w.TSDet)),
		IsFractional:  fieldFractional.get(w.TData) == 1,
	}
	return t, DecodeLock(w.ModeDet, w.TSDet)
}

// EncodeStatus is the inverse of DecodeTransport: it packs transport
// parameters into status words with both lock bits set. Mode is written
// as-is, so codes above 12G survive for clamp testing.
func EncodeStatus(t Transport) StatusWords {
	var w StatusWords
	w.ModeDet = fieldMode.set(w.ModeDet, uint32(t.Mode))
	w.ModeDet = fieldModeLocked.set(w.ModeDet, 1)
	w.ModeDet = fieldActStreams.set(w.ModeDet, uint32(t.ActiveStreams))
	if t.IsLevelB3G {
		w.ModeDet = fieldLevelB.set(w.ModeDet, 1)
	}

	w.TSDet = fieldTimingLocked.set(w.TSDet, 1)
	w.TSDet = fieldScan.set(w.TSDet, uint32(t.Scan))
	w.TSDet = fieldFamily.set(w.TSDet, uint32(t.Family))
	w.TSDet = fieldRate.set(w.TSDet, uint32(t.Rate))

	if t.IsFractional {
		w.TData = fieldFractional.set(w.TData, 1)
	}
	return w
}
