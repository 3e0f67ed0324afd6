// Package sspsim is a behavioral model of the PL022 SSP block used by the
// driver tests and by the probe package as a remote register target. It
// models the 8-deep transmit and receive FIFOs, the busy flag, the loopback
// path and records every control register write so tests can observe
// configuration side effects.
package sspsim

const (
	cr0Offset   = 0x00
	cr1Offset   = 0x04
	drOffset    = 0x08
	srOffset    = 0x0C
	cpsrOffset  = 0x10
	dmacrOffset = 0x24

	fifoDepth = 8
)

// RegWrite is one observed write to a control register.
type RegWrite struct {
	Offset uint8
	Value  uint32
}

// Sim simulates one SSP controller. The zero value is a powered-down
// controller; construct with New.
type Sim struct {
	regs [dmacrOffset/4 + 1]uint32
	txq  []byte
	rxq  []byte

	// Peripheral answers each transmitted byte when loopback is off. Nil
	// means an idle-high input line: every received byte is 0xFF.
	Peripheral func(out byte) (in byte)

	// Writes records every write to a register other than DR, in order.
	Writes []RegWrite
}

func New() *Sim {
	return &Sim{}
}

func (s *Sim) enabled() bool  { return s.regs[cr1Offset/4]&(1<<1) != 0 }
func (s *Sim) loopback() bool { return s.regs[cr1Offset/4]&1 != 0 }

// shift moves frames from the transmit FIFO through the shift register into
// the receive FIFO while there is room.
func (s *Sim) shift() {
	for len(s.txq) > 0 && len(s.rxq) < fifoDepth {
		out := s.txq[0]
		s.txq = s.txq[1:]
		in := byte(0xFF)
		if s.loopback() {
			in = out
		} else if s.Peripheral != nil {
			in = s.Peripheral(out)
		}
		s.rxq = append(s.rxq, in)
	}
}

func (s *Sim) statusRegister() uint32 {
	s.shift()
	var sr uint32
	if len(s.txq) == 0 {
		sr |= 1 << 0 // TFE
	}
	if len(s.txq) < fifoDepth {
		sr |= 1 << 1 // TNF
	}
	if len(s.rxq) > 0 {
		sr |= 1 << 2 // RNE
	}
	if len(s.rxq) >= fifoDepth {
		sr |= 1 << 3 // RFF
	}
	if len(s.txq) > 0 {
		sr |= 1 << 4 // BSY
	}
	return sr
}

func (s *Sim) read(off uint8) uint32 {
	switch off {
	case srOffset:
		return s.statusRegister()
	case drOffset:
		s.shift()
		if len(s.rxq) == 0 {
			return 0
		}
		v := s.rxq[0]
		s.rxq = s.rxq[1:]
		return uint32(v)
	default:
		if int(off/4) < len(s.regs) {
			return s.regs[off/4]
		}
		return 0
	}
}

func (s *Sim) write(off uint8, v uint32) {
	switch off {
	case drOffset:
		if s.enabled() && len(s.txq) < fifoDepth {
			s.txq = append(s.txq, byte(v))
		}
	case srOffset: // Read only.
	default:
		if int(off/4) < len(s.regs) {
			s.regs[off/4] = v
			s.Writes = append(s.Writes, RegWrite{Offset: off, Value: v})
		}
	}
}

// ControlWrites returns how many control register writes have been observed
// since construction or the last ResetWrites.
func (s *Sim) ControlWrites() int { return len(s.Writes) }

// ResetWrites clears the write observation log.
func (s *Sim) ResetWrites() { s.Writes = s.Writes[:0] }

// RxResidue preloads the receive FIFO with stale bytes, simulating residue
// from an aborted transfer.
func (s *Sim) RxResidue(b ...byte) {
	s.rxq = append(s.rxq, b...)
}

// Bus interface of the driver.

func (s *Sim) Read8(off uint8) uint8   { return uint8(s.read(off)) }
func (s *Sim) Read16(off uint8) uint16 { return uint16(s.read(off)) }
func (s *Sim) Read32(off uint8) uint32 { return s.read(off) }

func (s *Sim) Write8(off uint8, v uint8)   { s.write(off, uint32(v)) }
func (s *Sim) Write16(off uint8, v uint16) { s.write(off, uint32(v)) }
func (s *Sim) Write32(off uint8, v uint32) { s.write(off, v) }
