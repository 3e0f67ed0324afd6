package ssp

import "golang.org/x/exp/constraints"

// regio.go contains the register access layer: the Bus abstraction over the
// controller's memory window and the read-modify-write helpers used to build
// register images.

// Bus gives raw access to the registers of one SSP controller instance.
// Offsets are the fixed offsets defined in definitions.go. Implementations
// are the memory-mapped bus in lpc17xx.go, the serial debug probe in
// package probe, and the behavioral model in internal/sspsim.
type Bus interface {
	Read8(offset uint8) uint8
	Read16(offset uint8) uint16
	Read32(offset uint8) uint32
	Write8(offset uint8, value uint8)
	Write16(offset uint8, value uint16)
	Write32(offset uint8, value uint32)
}

// replaceBits returns reg with the field (mask << shift) replaced by value.
// Bits of value outside mask are discarded.
func replaceBits[T constraints.Unsigned](reg, mask, shift, value T) T {
	return reg&^(mask<<shift) | (value&mask)<<shift
}

// setBit returns reg with bit n set or cleared.
func setBit[T constraints.Unsigned](reg T, n uint8, b bool) T {
	if b {
		return reg | 1<<n
	}
	return reg &^ (1 << n)
}

func (d *Device) status() Status {
	return Status(d.bus.Read32(SROffset))
}

// rxFlush drains any residue a prior aborted transfer may have left in the
// receive FIFO.
func (d *Device) rxFlush() {
	for d.status().RxNotEmpty() {
		d.bus.Read16(DROffset)
	}
}
