package ssp

import "log/slog"

// Mode selects the serial clock polarity and phase of the bus per the usual
// SPI mode numbering: bit 1 is CPOL, bit 0 is CPHA.
type Mode uint8

const (
	Mode0 Mode = 0b00 // CPOL=0 CPHA=0
	Mode1 Mode = 0b01 // CPOL=0 CPHA=1
	Mode2 Mode = 0b10 // CPOL=1 CPHA=0
	Mode3 Mode = 0b11 // CPOL=1 CPHA=1
)

// OpMode selects the controller role on the bus.
type OpMode uint8

const (
	OpModeMaster OpMode = iota
	// OpModeSlave is rejected by Configure: slave operation is not
	// implemented for this peripheral variant.
	OpModeSlave
)

// Config are the transfer parameters of one peripheral on the bus. Configs
// are compared by value to detect no-op reconfiguration, so a caller may pass
// the same Config to every Transceive without paying for register writes.
type Config struct {
	// Frequency is the desired serial clock in Hz. The controller runs at
	// the highest achievable rate not exceeding it, or at the slowest
	// supported rate if Frequency is below that.
	Frequency uint32
	Mode      Mode
	Op        OpMode
	// LoopBack internally routes the transmit shift register to the receive
	// path. Transmitted bytes come back byte-for-byte. Test mode.
	LoopBack bool
	// DataBits is the frame size. Zero defaults to 8. Only 8 bit frames are
	// supported by this driver.
	DataBits uint8
}

// registerImage is the cached image of the three registers that fully
// determine transfer electrical behavior. The live registers always equal
// the last written image, except for the run bit which Transceive sets
// directly on CR1.
type registerImage struct {
	cr0  uint32
	cr1  uint32
	cpsr uint32
}

// buildImage validates cfg and computes its register image. No hardware is
// touched; rejection happens before any register write.
func (d *Device) buildImage(cfg Config) (img registerImage, err error) {
	if cfg.Op != OpModeMaster {
		return img, ErrUnsupportedConfig
	}
	if cfg.DataBits != 0 && cfg.DataBits != 8 {
		return img, ErrUnsupportedConfig
	}
	img.cr1 = setBit(img.cr1, 2, false) // Master operation, MS clear.
	img.cr0 = replaceBits(img.cr0, uint32(cr0FRFMask), cr0FRFPos, cr0FRFSPI)
	if cfg.Mode&Mode2 != 0 {
		img.cr0 |= cr0CPOL
	}
	if cfg.Mode&Mode1 != 0 {
		img.cr0 |= cr0CPHA
	}
	if cfg.LoopBack {
		img.cr1 |= cr1LBM
	}
	img.cr0 = replaceBits(img.cr0, uint32(cr0DSSMask), cr0DSSPos, cr0DSS8bit)
	div, scr := ClockDivisors(d.pclk, cfg.Frequency)
	img.cpsr = uint32(div)
	img.cr0 = replaceBits(img.cr0, uint32(cr0SCRMask), cr0SCRPos, uint32(scr))
	return img, nil
}

// configure applies cfg to the hardware through the register image cache.
// Applying the currently active configuration is a no-op with no register
// writes. Caller must hold the transfer lock.
func (d *Device) configure(cfg Config) error {
	if d.imageValid && cfg == d.cfg {
		return nil // Nothing to do.
	}
	img, err := d.buildImage(cfg)
	if err != nil {
		return err
	}
	if !d.imageValid || img != d.image {
		// Fixed write order: CR0, CR1, prescaler.
		d.bus.Write32(CR0Offset, img.cr0)
		d.bus.Write32(CR1Offset, img.cr1)
		d.bus.Write32(CPSROffset, img.cpsr)
		d.image = img
		d.imageValid = true
		d.debug("configure:write",
			slog.Uint64("cr0", uint64(img.cr0)),
			slog.Uint64("cr1", uint64(img.cr1)),
			slog.Uint64("cpsr", uint64(img.cpsr)),
			slog.Uint64("baudrate", uint64(DividedFrequency(d.pclk, uint8(img.cpsr), uint8(img.cr0>>cr0SCRPos)))),
		)
	}
	d.cfg = cfg
	return nil
}
