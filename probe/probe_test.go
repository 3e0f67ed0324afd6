package probe

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/soypat/ssp"
	"github.com/soypat/ssp/internal/sspsim"
)

// startSim serves a simulated controller on one end of an in-memory pipe and
// returns a Probe attached to the other end.
func startSim(t *testing.T) (*Probe, *sspsim.Sim) {
	t.Helper()
	host, remote := net.Pipe()
	sim := sspsim.New()
	done := make(chan error, 1)
	go func() { done <- Serve(remote, sim) }()
	t.Cleanup(func() {
		host.Close()
		remote.Close()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})
	return New(host), sim
}

func TestProbeRegisterAccess(t *testing.T) {
	p, sim := startSim(t)
	p.Write32(0x00, 0xC7)
	p.Write8(0x10, 2)
	if err := p.Err(); err != nil {
		t.Fatal(err)
	}
	if got := p.Read32(0x00); got != 0xC7 {
		t.Errorf("readback CR0=%#x, want 0xc7", got)
	}
	if got := p.Read16(0x10); got != 2 {
		t.Errorf("readback CPSR=%d, want 2", got)
	}
	if n := sim.ControlWrites(); n != 2 {
		t.Errorf("%d control writes observed, want 2", n)
	}
	if err := p.Err(); err != nil {
		t.Fatal(err)
	}
}

func TestProbeDrivesTransfer(t *testing.T) {
	p, _ := startSim(t)
	d := ssp.New(p, ssp.HardwareConfig{PeripheralClock: 16_000_000})
	tx := []byte{0x11, 0x22, 0x33, 0x44}
	rx := make([]byte, len(tx))
	cfg := ssp.Config{Frequency: 1_000_000, LoopBack: true}
	if err := d.Transceive(cfg, [][]byte{tx}, [][]byte{rx}); err != nil {
		t.Fatal(err)
	}
	if err := p.Err(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(tx, rx) {
		t.Errorf("loopback over probe mismatch: tx=%x rx=%x", tx, rx)
	}
}

func TestProbeStickyError(t *testing.T) {
	host, remote := net.Pipe()
	p := New(host)
	remote.Close()
	if got := p.Read32(0x0C); got != 0 {
		t.Errorf("read on dead link returned %#x", got)
	}
	if p.Err() == nil {
		t.Fatal("expected sticky transport error")
	}
	// Further accesses are no-ops and keep the original error.
	first := p.Err()
	p.Write32(0x00, 1)
	if !errors.Is(p.Err(), first) {
		t.Errorf("sticky error replaced: %v -> %v", first, p.Err())
	}
}

func TestServeRejectsCorruptFrame(t *testing.T) {
	host, remote := net.Pipe()
	sim := sspsim.New()
	go Serve(remote, sim)
	defer host.Close()

	var req [reqSize]byte
	req[0] = hdrWrite | width32
	req[1] = 0x00
	req[2] = 0xFF
	req[6] = checksum(req[:6]) ^ 0xA5 // Corrupt the checksum.
	if _, err := host.Write(req[:]); err != nil {
		t.Fatal(err)
	}
	var resp [respSize]byte
	if _, err := io.ReadFull(host, resp[:]); err != nil {
		t.Fatal(err)
	}
	if resp[0] != statusBad {
		t.Errorf("status %d for corrupt frame, want %d", resp[0], statusBad)
	}
	if n := sim.ControlWrites(); n != 0 {
		t.Errorf("corrupt frame reached the register file: %d writes", n)
	}
}
