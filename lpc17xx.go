package ssp

import (
	"log/slog"
	"unsafe"
)

// lpc17xx.go carries the static controller table for NXP LPC17xx parts and
// the memory-mapped register bus. Controller instances live in fixed storage
// so nothing here allocates at runtime.

// PCONP gates power and clock to on-chip peripherals. Bit numbers per SSP
// block are in the port table below.
const pconpAddr uintptr = 0x400F_C0C4

// Port numbers an SSP block on the chip.
type Port uint8

const (
	SSP0 Port = iota
	SSP1
	numPorts
)

type portHardware struct {
	base     uintptr
	pconpBit uint8
}

var lpc17xxPorts = [numPorts]portHardware{
	SSP0: {base: 0x4008_8000, pconpBit: 21},
	SSP1: {base: 0x4003_0000, pconpBit: 10},
}

// Controller arena, one Device per SSP block.
var portDevices [numPorts]Device

// InitPort powers up the SSP block of port and returns its Device, ready for
// use with the exclusivity lock released. Call once per port at system
// bring-up.
func InitPort(port Port, hw HardwareConfig) (*Device, error) {
	if port >= numPorts {
		return nil, ErrBadPort
	}
	p := lpc17xxPorts[port]
	d := &portDevices[port]
	d.init(mmioBus{base: p.base}, hw)
	// Power the block before touching its registers.
	pconp := (*uint32)(unsafe.Pointer(pconpAddr))
	*pconp |= 1 << p.pconpBit
	d.info("InitPort",
		slog.Uint64("port", uint64(port)),
		slog.Uint64("pclk", uint64(hw.PeripheralClock)),
	)
	return d, nil
}

// mmioBus accesses controller registers directly through their memory
// window. Stores are synchronous and assumed to always succeed.
type mmioBus struct {
	base uintptr
}

func (b mmioBus) Read8(off uint8) uint8 {
	return *(*uint8)(unsafe.Pointer(b.base + uintptr(off)))
}

func (b mmioBus) Read16(off uint8) uint16 {
	return *(*uint16)(unsafe.Pointer(b.base + uintptr(off)))
}

func (b mmioBus) Read32(off uint8) uint32 {
	return *(*uint32)(unsafe.Pointer(b.base + uintptr(off)))
}

func (b mmioBus) Write8(off uint8, v uint8) {
	*(*uint8)(unsafe.Pointer(b.base + uintptr(off))) = v
}

func (b mmioBus) Write16(off uint8, v uint16) {
	*(*uint16)(unsafe.Pointer(b.base + uintptr(off))) = v
}

func (b mmioBus) Write32(off uint8, v uint32) {
	*(*uint32)(unsafe.Pointer(b.base + uintptr(off))) = v
}
