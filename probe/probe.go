// Package probe drives a remote SSP controller through a serial-attached
// debug probe. Register accesses are framed into a small checksummed
// request/response protocol; the probe applies them to the controller's
// memory window and answers with the result. The host side implements the
// driver's Bus interface so the ssp package works unmodified over a wire.
package probe

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"

	"github.com/soypat/ssp"
)

var (
	ErrChecksum    = errors.New("probe: frame checksum mismatch")
	ErrProbeStatus = errors.New("probe: request rejected by probe")
)

// Wire format. Requests are reqSize bytes: header, register offset, four
// value bytes little endian (zero on reads), checksum. Responses are
// respSize bytes: status, four value bytes, checksum.
const (
	reqSize  = 7
	respSize = 6

	hdrWrite = 1 << 7 // Header bit 7 set for writes.
	// Header bits 0..1 encode the access width as log2 of the byte count.
	width8  = 0
	width16 = 1
	width32 = 2

	statusOK  = 0
	statusBad = 1
)

// checksum is the complement of the XOR over the frame payload. Catches the
// all-zeroes line condition of a disconnected probe.
func checksum(b []byte) (x byte) {
	for _, c := range b {
		x ^= c
	}
	return ^x
}

// Probe is the host side of the protocol. It satisfies ssp.Bus. Transport
// errors are sticky: after the first failure all accesses become no-ops and
// Err returns the cause, to be checked after a transfer.
type Probe struct {
	rw  io.ReadWriter
	err error
	// Scratch buffers, avoids per-access allocation.
	req  [reqSize]byte
	resp [respSize]byte
}

// New returns a Probe speaking the frame protocol over rw.
func New(rw io.ReadWriter) *Probe {
	return &Probe{rw: rw}
}

// Open connects to a probe on a serial port device such as "/dev/ttyACM0".
func Open(device string, baud int) (*Probe, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("probe: open %s: %w", device, err)
	}
	return New(port), nil
}

// Err returns the first transport error encountered, or nil.
func (p *Probe) Err() error { return p.err }

// ClearErr clears the sticky error after the caller has recovered the link.
func (p *Probe) ClearErr() { p.err = nil }

func (p *Probe) roundTrip(hdr, offset uint8, value uint32) uint32 {
	if p.err != nil {
		return 0
	}
	p.req[0] = hdr
	p.req[1] = offset
	p.req[2] = byte(value)
	p.req[3] = byte(value >> 8)
	p.req[4] = byte(value >> 16)
	p.req[5] = byte(value >> 24)
	p.req[6] = checksum(p.req[:6])
	if _, err := p.rw.Write(p.req[:]); err != nil {
		p.err = err
		return 0
	}
	if _, err := io.ReadFull(p.rw, p.resp[:]); err != nil {
		p.err = err
		return 0
	}
	if p.resp[5] != checksum(p.resp[:5]) {
		p.err = ErrChecksum
		return 0
	}
	if p.resp[0] != statusOK {
		p.err = ErrProbeStatus
		return 0
	}
	return uint32(p.resp[1]) | uint32(p.resp[2])<<8 | uint32(p.resp[3])<<16 | uint32(p.resp[4])<<24
}

func (p *Probe) Read8(off uint8) uint8   { return uint8(p.roundTrip(width8, off, 0)) }
func (p *Probe) Read16(off uint8) uint16 { return uint16(p.roundTrip(width16, off, 0)) }
func (p *Probe) Read32(off uint8) uint32 { return p.roundTrip(width32, off, 0) }

func (p *Probe) Write8(off uint8, v uint8)   { p.roundTrip(hdrWrite|width8, off, uint32(v)) }
func (p *Probe) Write16(off uint8, v uint16) { p.roundTrip(hdrWrite|width16, off, uint32(v)) }
func (p *Probe) Write32(off uint8, v uint32) { p.roundTrip(hdrWrite|width32, off, v) }

var _ ssp.Bus = (*Probe)(nil)

// Serve runs the probe side of the protocol, applying each request to bus
// and answering with the result. It returns when rw is closed. This is what
// runs on the probe firmware, pointed at the controller's memory window; in
// tests it is pointed at a simulated controller.
func Serve(rw io.ReadWriter, bus ssp.Bus) error {
	var req [reqSize]byte
	var resp [respSize]byte
	for {
		if _, err := io.ReadFull(rw, req[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
		resp = [respSize]byte{}
		if req[6] != checksum(req[:6]) {
			resp[0] = statusBad
		} else {
			value := uint32(req[2]) | uint32(req[3])<<8 | uint32(req[4])<<16 | uint32(req[5])<<24
			offset := req[1]
			switch {
			case req[0]&hdrWrite == 0:
				var got uint32
				switch req[0] & 0b11 {
				case width8:
					got = uint32(bus.Read8(offset))
				case width16:
					got = uint32(bus.Read16(offset))
				case width32:
					got = bus.Read32(offset)
				default:
					resp[0] = statusBad
				}
				resp[1] = byte(got)
				resp[2] = byte(got >> 8)
				resp[3] = byte(got >> 16)
				resp[4] = byte(got >> 24)
			default:
				switch req[0] & 0b11 {
				case width8:
					bus.Write8(offset, uint8(value))
				case width16:
					bus.Write16(offset, uint16(value))
				case width32:
					bus.Write32(offset, value)
				default:
					resp[0] = statusBad
				}
			}
		}
		resp[5] = checksum(resp[:5])
		if _, err := rw.Write(resp[:]); err != nil {
			return err
		}
	}
}
