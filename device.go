package ssp

import (
	"errors"
	"log/slog"
	"time"
)

// Package ssp drives the ARM PL022-compatible synchronous serial port found
// on LPC17xx microcontrollers as an 8-bit SPI bus master. Transfers are
// blocking and FIFO-pumped by polling the status register; there is no
// interrupt or DMA path in this peripheral variant.

var (
	// ErrUnsupportedConfig is returned when a configuration requests slave
	// operation or a word size other than 8 bits. Detected before any
	// hardware mutation; the caller may retry with a corrected Config.
	ErrUnsupportedConfig = errors.New("ssp: unsupported configuration")
	// ErrBusyTimeout is returned from polls bounded by HardwareConfig.Timeout.
	// Never returned when Timeout is zero (unbounded waits, the hardware is
	// trusted to complete).
	ErrBusyTimeout = errors.New("ssp: busy wait timeout")
	// ErrBadPort is returned by InitPort for an out of range port number.
	ErrBadPort = errors.New("ssp: invalid port")
)

// HardwareConfig describes the board-level wiring of one SSP controller.
type HardwareConfig struct {
	// PeripheralClock is the clock feeding the SSP block in Hz. On LPC17xx
	// this is CCLK divided by the PCLKSEL setting, typically crystal/4.
	PeripheralClock uint32
	// ChipSelect drives the chip select line of the addressed peripheral.
	// Called with true to assert before pumping and false to deassert after.
	// May be nil when chip select is handled externally.
	ChipSelect func(assert bool)
	// Timeout bounds every busy-wait on hardware status bits. Zero keeps the
	// original unbounded-spin behavior of the bare-metal driver: a stuck
	// peripheral then hangs the caller indefinitely.
	Timeout time.Duration
	// Yield, when non-nil, is called on pump iterations that make no
	// progress. Lets hosted targets hand the processor back to the
	// scheduler; leave nil on bare metal where the loop must not yield.
	Yield func()
	Logger *slog.Logger
}

// Device is one SSP controller instance. All transfers through a Device are
// serialized by its transfer context; concurrent callers block in acquire
// order. The zero value is not usable, construct with New or InitPort.
type Device struct {
	bus        Bus
	pclk       uint32
	ctx        transferContext
	cfg        Config
	image      registerImage
	imageValid bool
	timeout    time.Duration
	yield      func()
	logger     *slog.Logger
}

// New returns a Device driving the controller behind bus. The exclusivity
// lock starts released.
func New(bus Bus, hw HardwareConfig) *Device {
	d := &Device{}
	d.init(bus, hw)
	return d
}

func (d *Device) init(bus Bus, hw HardwareConfig) {
	d.bus = bus
	d.pclk = hw.PeripheralClock
	d.timeout = hw.Timeout
	d.yield = hw.Yield
	d.logger = hw.Logger
	d.imageValid = false
	d.ctx.init(hw.ChipSelect)
}

// Configure applies cfg to the controller without starting a transfer.
// Reconfiguration with the currently active Config performs no register
// writes. Returns ErrUnsupportedConfig for slave mode or non 8-bit frames,
// in which case the hardware is left untouched.
func (d *Device) Configure(cfg Config) error {
	d.ctx.acquire()
	defer d.ctx.release()
	if err := d.waitIdle(); err != nil {
		return err
	}
	return d.configure(cfg)
}

// Transceive runs one full-duplex transfer: the bytes of the tx buffer set
// are shifted out while received bytes fill the rx buffer set. Either side
// may be nil; missing transmit data is substituted with zero bytes and
// excess received bytes are discarded. The effective transfer length is the
// larger of the two sides. Blocks until the transfer fully completes.
func (d *Device) Transceive(cfg Config, tx, rx [][]byte) error {
	d.ctx.acquire()
	defer d.ctx.release()

	// Let a previous transfer drain and drop its receive residue.
	if err := d.waitIdle(); err != nil {
		return err
	}
	d.rxFlush()

	if err := d.configure(cfg); err != nil {
		d.debug("Transceive:config_rejected", slog.String("err", err.Error()))
		return err
	}

	d.ctx.setupBuffers(tx, rx)
	d.trace("Transceive:start", slog.Int("total", d.ctx.total))

	d.ctx.csControl(true)
	// Set SSE, enable the controller.
	d.bus.Write32(CR1Offset, d.bus.Read32(CR1Offset)|cr1SSE)

	err := d.pump()

	d.ctx.csControl(false)
	return err
}

// Release waits for any in-flight transmission to drain and then forcibly
// releases the exclusivity lock. Recovery entry point for an initiator that
// must reclaim the controller unconditionally; not needed after a normal
// Transceive, which always releases on its own.
func (d *Device) Release() error {
	if err := d.waitIdle(); err != nil {
		return err
	}
	d.ctx.releaseForced()
	return nil
}

// waitIdle spins until the busy flag clears. Bounded only when a Timeout
// was configured.
func (d *Device) waitIdle() error {
	if !d.status().Busy() {
		return nil
	}
	var deadline time.Time
	if d.timeout != 0 {
		deadline = time.Now().Add(d.timeout)
	}
	for d.status().Busy() {
		if d.timeout != 0 && time.Since(deadline) >= 0 {
			d.logerr("waitIdle:timeout")
			return ErrBusyTimeout
		}
		if d.yield != nil {
			d.yield()
		}
	}
	return nil
}

// Tx sends w while receiving into r, in the manner of machine.SPI. The two
// buffers may differ in length; either may be nil for send-only or
// receive-only operation. The last applied Config is reused.
func (d *Device) Tx(w, r []byte) error {
	var tx, rx [][]byte
	if w != nil {
		tx = [][]byte{w}
	}
	if r != nil {
		rx = [][]byte{r}
	}
	return d.Transceive(d.cfg, tx, rx)
}

// Transfer shifts out a single byte and returns the byte received in the
// same frame.
func (d *Device) Transfer(b byte) (byte, error) {
	var rx [1]byte
	err := d.Transceive(d.cfg, [][]byte{{b}}, [][]byte{rx[:]})
	return rx[0], err
}
