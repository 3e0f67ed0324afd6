package ssp

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/soypat/ssp/internal/sspsim"
)

func newTestDevice(sim *sspsim.Sim) *Device {
	return New(sim, HardwareConfig{PeripheralClock: 16_000_000})
}

func TestConfigureRejectsUnsupported(t *testing.T) {
	bad := []Config{
		{Frequency: 1_000_000, Op: OpModeSlave},
		{Frequency: 1_000_000, DataBits: 16},
		{Frequency: 1_000_000, DataBits: 7},
	}
	for _, cfg := range bad {
		sim := sspsim.New()
		d := newTestDevice(sim)
		err := d.Configure(cfg)
		if !errors.Is(err, ErrUnsupportedConfig) {
			t.Errorf("cfg %+v: got err %v, want ErrUnsupportedConfig", cfg, err)
		}
		if n := sim.ControlWrites(); n != 0 {
			t.Errorf("cfg %+v: %d register writes on rejected configure", cfg, n)
		}
	}
}

func TestConfigureWriteOrderAndImage(t *testing.T) {
	sim := sspsim.New()
	d := newTestDevice(sim)
	err := d.Configure(Config{Frequency: 1_000_000, Mode: Mode3, LoopBack: true})
	if err != nil {
		t.Fatal(err)
	}
	// 8 bit frames, SPI format, CPOL|CPHA, scr=7; loopback; prescaler 2.
	want := []sspsim.RegWrite{
		{Offset: CR0Offset, Value: cr0DSS8bit | cr0CPOL | cr0CPHA | 7<<cr0SCRPos},
		{Offset: CR1Offset, Value: cr1LBM},
		{Offset: CPSROffset, Value: 2},
	}
	if diff := cmp.Diff(want, sim.Writes); diff != "" {
		t.Errorf("register writes mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigureIdempotent(t *testing.T) {
	sim := sspsim.New()
	d := newTestDevice(sim)
	cfg := Config{Frequency: 2_000_000, Mode: Mode0}
	if err := d.Configure(cfg); err != nil {
		t.Fatal(err)
	}
	if n := sim.ControlWrites(); n != 3 {
		t.Fatalf("first configure: %d writes, want 3", n)
	}
	sim.ResetWrites()
	if err := d.Configure(cfg); err != nil {
		t.Fatal(err)
	}
	if n := sim.ControlWrites(); n != 0 {
		t.Errorf("identical reconfigure performed %d writes, want 0", n)
	}
}

func TestConfigureChangeRewrites(t *testing.T) {
	sim := sspsim.New()
	d := newTestDevice(sim)
	if err := d.Configure(Config{Frequency: 2_000_000}); err != nil {
		t.Fatal(err)
	}
	sim.ResetWrites()
	if err := d.Configure(Config{Frequency: 500_000}); err != nil {
		t.Fatal(err)
	}
	if n := sim.ControlWrites(); n != 3 {
		t.Errorf("changed configure performed %d writes, want 3", n)
	}
}

func TestConfigureDataBitsDefault(t *testing.T) {
	// Zero DataBits means 8 bit frames, same image as an explicit 8.
	sim0 := sspsim.New()
	d0 := newTestDevice(sim0)
	if err := d0.Configure(Config{Frequency: 1_000_000}); err != nil {
		t.Fatal(err)
	}
	sim8 := sspsim.New()
	d8 := newTestDevice(sim8)
	if err := d8.Configure(Config{Frequency: 1_000_000, DataBits: 8}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sim0.Writes, sim8.Writes); diff != "" {
		t.Errorf("image differs between DataBits 0 and 8:\n%s", diff)
	}
}
