package ssp

// definitions.go contains the register map and bit definitions of the
// ARM PL022-compatible SSP block as found on the LPC17xx family. These map
// directly to the register descriptions in the user manual (chapter 18).

// Register offsets from the controller base address. Each register is 32 bits
// wide; reserved upper bits read as zero.
const (
	CR0Offset   uint8 = 0x00 // Control register 0: DSS, FRF, CPOL, CPHA, SCR.
	CR1Offset   uint8 = 0x04 // Control register 1: LBM, SSE, MS, SOD.
	DROffset    uint8 = 0x08 // Data register: tx/rx FIFO window.
	SROffset    uint8 = 0x0C // Status register, read only.
	CPSROffset  uint8 = 0x10 // Clock prescale register, even values 2..254.
	IMSCOffset  uint8 = 0x14 // Interrupt mask set/clear.
	RISOffset   uint8 = 0x18 // Raw interrupt status.
	MISOffset   uint8 = 0x1C // Masked interrupt status.
	ICROffset   uint8 = 0x20 // Interrupt clear.
	DMACROffset uint8 = 0x24 // DMA control.
)

// CR0 fields.
const (
	cr0DSSPos  = 0 // Data size select, 4 bits. 0b0111 selects 8 bit frames.
	cr0DSSMask = 0xf
	cr0DSS8bit = 0x7
	cr0FRFPos  = 4 // Frame format, 2 bits. 0b00 selects SPI framing.
	cr0FRFMask = 0x3
	cr0FRFSPI  = 0x0
	cr0CPOL    = 1 << 6
	cr0CPHA    = 1 << 7
	cr0SCRPos  = 8 // Serial clock rate, 8 bits.
	cr0SCRMask = 0xff
)

// CR1 fields.
const (
	cr1LBM = 1 << 0 // Loopback mode: input path driven from the tx shift register.
	cr1SSE = 1 << 1 // SSP enable, the run bit.
	cr1MS  = 1 << 2 // Master/slave select. Clear for master operation.
	cr1SOD = 1 << 3 // Slave output disable. Unused in master mode.
)

// Hardware FIFO depth of the PL022, both directions.
const fifoDepth = 8

// Prescaler hardware limits. The prescale divisor must be even.
const (
	minPrescale = 2
	maxPrescale = 254
	maxSCR      = 255
)

// Status is the contents of the SSP status register (SR). It reports FIFO
// fill levels and transmission progress and is the only register polled by
// the transfer loop.
type Status uint32

func (s Status) String() (str string) {
	if s.TxEmpty() {
		str += "txempty "
	}
	if s.TxNotFull() {
		str += "txnotfull "
	}
	if s.RxNotEmpty() {
		str += "rxnotempty "
	}
	if s.RxFull() {
		str += "rxfull "
	}
	if s.Busy() {
		str += "busy "
	}
	if str == "" {
		return "idle"
	}
	return str
}

// TxEmpty returns true if the transmit FIFO holds no data.
func (s Status) TxEmpty() bool { return s&1 != 0 }

// TxNotFull returns true if the transmit FIFO can accept another frame.
func (s Status) TxNotFull() bool { return s&(1<<1) != 0 }

// RxNotEmpty returns true if the receive FIFO holds at least one frame.
func (s Status) RxNotEmpty() bool { return s&(1<<2) != 0 }

// RxFull returns true if the receive FIFO is full. Pushing more transmit
// data in this state risks dropping received frames.
func (s Status) RxFull() bool { return s&(1<<3) != 0 }

// Busy returns true while the controller is transmitting or receiving or
// the transmit FIFO is not empty.
func (s Status) Busy() bool { return s&(1<<4) != 0 }
