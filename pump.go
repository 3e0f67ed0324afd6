package ssp

import "time"

// pump.go is the FIFO pump engine: the polled loop that interleaves filling
// the transmit FIFO and draining the receive FIFO until the transfer
// completes. No blocking primitive is used; on bare metal the loop owns the
// processor until done.

// pump drives the transfer set up in d.ctx to completion. It alternates a
// fill step and a drain step per iteration and terminates once both cursors
// have consumed the effective transfer length. Exactly ctx.total units pass
// through the data register: the fill step never overshoots, so no residue
// is left in the receive FIFO at completion.
func (d *Device) pump() error {
	var deadline time.Time
	if d.timeout != 0 {
		deadline = time.Now().Add(d.timeout)
	}
	for !d.ctx.done() {
		progress := d.pushData()
		if d.pullData() {
			progress = true
		}
		if progress {
			continue
		}
		// Stalled on hardware this iteration.
		if d.timeout != 0 && time.Since(deadline) >= 0 {
			d.logerr("pump:timeout")
			return ErrBusyTimeout
		}
		if d.yield != nil {
			d.yield()
		}
	}
	return nil
}

// pushData writes at most one unit to the transmit FIFO. It holds off while
// the transmit FIFO is full or the receive FIFO is full: pushing against a
// full receive side would clock in frames with nowhere to land.
func (d *Device) pushData() bool {
	if d.ctx.txDone() {
		return false
	}
	sr := d.status()
	if !sr.TxNotFull() || sr.RxFull() {
		return false
	}
	d.bus.Write16(DROffset, uint16(d.ctx.nextTx()))
	return true
}

// pullData drains every unit currently in the receive FIFO into the receive
// cursor.
func (d *Device) pullData() (progress bool) {
	for !d.ctx.rxDone() && d.status().RxNotEmpty() {
		d.ctx.putRx(byte(d.bus.Read16(DROffset)))
		progress = true
	}
	return progress
}
