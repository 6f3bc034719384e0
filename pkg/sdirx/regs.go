package sdirx

import "sync"

// Register offsets within the receiver's address window.
const (
	RegRstCtrl     uint32 = 0x00
	RegMdlCtrl     uint32 = 0x04
	RegStatReset   uint32 = 0x08
	RegIntStatus   uint32 = 0x10
	RegIntClear    uint32 = 0x14
	RegIntMask     uint32 = 0x18
	RegST352Valid  uint32 = 0x1C
	RegST352DS0    uint32 = 0x20
	RegModeDetSts  uint32 = 0x40
	RegTSDetSts    uint32 = 0x44
	RegSbRxTData   uint32 = 0x48
	RegWindowBytes uint32 = 0x100
)

// Statistics reset bits.
const (
	StatResetClearErr uint32 = 0x1
	StatResetClearEDH uint32 = 0x2
)

// MODE_DET_STS layout.
const (
	ModeDetModeMask     uint32 = 0x7
	ModeDetLockedMask   uint32 = 0x8
	ModeDetActStrmMask  uint32 = 0x70
	ModeDetActStrmShift uint32 = 4
	ModeDetLevelBMask   uint32 = 0x80
	ModeDetLevelBShift  uint32 = 7
)

// TS_DET_STS layout.
const (
	TSDetLockedMask  uint32 = 0x1
	TSDetScanMask    uint32 = 0x2
	TSDetScanShift   uint32 = 1
	TSDetFamilyMask  uint32 = 0xF0
	TSDetFamilyShift uint32 = 4
	TSDetRateMask    uint32 = 0xF00
	TSDetRateShift   uint32 = 8
)

// STS_SB_RX_TDATA layout.
const (
	SbRxTDataBitRateMask  uint32 = 0x2000
	SbRxTDataBitRateShift uint32 = 13
)

// Registers is the receiver's register file: 32-bit values at byte offsets.
// Implementations are not required to be safe for concurrent use.
type Registers interface {
	Read(offset uint32) uint32
	Write(offset, value uint32)
}

// bitfield names one field of a status word.
type bitfield struct {
	mask  uint32
	shift uint32
}

func (b bitfield) get(word uint32) uint32 {
	return (word & b.mask) >> b.shift
}

func (b bitfield) set(word, value uint32) uint32 {
	return (word &^ b.mask) | ((value << b.shift) & b.mask)
}

var (
	fieldMode         = bitfield{ModeDetModeMask, 0}
	fieldModeLocked   = bitfield{ModeDetLockedMask, 3}
	fieldActStreams   = bitfield{ModeDetActStrmMask, ModeDetActStrmShift}
	fieldLevelB       = bitfield{ModeDetLevelBMask, ModeDetLevelBShift}
	fieldTimingLocked = bitfield{TSDetLockedMask, 0}
	fieldScan         = bitfield{TSDetScanMask, TSDetScanShift}
	fieldFamily       = bitfield{TSDetFamilyMask, TSDetFamilyShift}
	fieldRate         = bitfield{TSDetRateMask, TSDetRateShift}
	fieldFractional   = bitfield{SbRxTDataBitRateMask, SbRxTDataBitRateShift}
)

// MemRegisters is an in-memory register file. Writes to RegIntClear clear
// the written bits in RegIntStatus, as the hardware does.
type MemRegisters struct {
	mu      sync.Mutex
	values  map[uint32]uint32
	onWrite func(offset, value uint32)
}

// NewMemRegisters creates an empty in-memory register file.
func NewMemRegisters() *MemRegisters {
	return &MemRegisters{values: make(map[uint32]uint32)}
}

// OnWrite installs a hook called for every Write, after it is applied.
func (m *MemRegisters) OnWrite(fn func(offset, value uint32)) {
	m.mu.Lock()
	m.onWrite = fn
	m.mu.Unlock()
}

// Read returns the value at offset, zero if never written.
func (m *MemRegisters) Read(offset uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[offset]
}

// Write stores value at offset.
func (m *MemRegisters) Write(offset, value uint32) {
	m.mu.Lock()
	m.values[offset] = value
	if offset == RegIntClear {
		m.values[RegIntStatus] &^= value
	}
	hook := m.onWrite
	m.mu.Unlock()

	if hook != nil {
		hook(offset, value)
	}
}

// Set stores value at offset without triggering side effects or hooks.
// Used to stage status words before raising an interrupt.
func (m *MemRegisters) Set(offset, value uint32) {
	m.mu.Lock()
	m.values[offset] = value
	m.mu.Unlock()
}
