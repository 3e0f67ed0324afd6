package ssp

// context.go holds the per-controller transfer context: the exclusivity lock
// serializing transfers, chip select control, and the cursors over the
// caller's buffer sets consumed by the pump loop.

// transferContext is created once per controller instance and reused across
// transfers. Exactly one transfer may hold it at a time.
type transferContext struct {
	// lock is a one-token semaphore. A channel rather than a sync.Mutex so
	// that releaseForced may recover the controller from any goroutine
	// regardless of which caller holds the token.
	lock chan struct{}
	cs   func(assert bool)

	tx [][]byte
	rx [][]byte
	// Cursors into the buffer sets.
	txBuf, txOff int
	rxBuf, rxOff int
	// Units pushed to and pulled from the data register this transfer.
	pushed, pulled int
	// total is the effective transfer length: the larger of the two buffer
	// set lengths. The pump pushes and pulls exactly this many units.
	total int
}

func (c *transferContext) init(cs func(bool)) {
	c.lock = make(chan struct{}, 1)
	c.lock <- struct{}{}
	c.cs = cs
}

// acquire blocks until the exclusivity token is available. Cooperative wait,
// no busy spin.
func (c *transferContext) acquire() {
	<-c.lock
}

// release returns the exclusivity token. Must be called exactly once per
// acquire, on every exit path of a transfer.
func (c *transferContext) release() {
	c.lock <- struct{}{}
}

// releaseForced releases the token regardless of holder. Recovery path for
// an initiator reclaiming the controller unconditionally.
func (c *transferContext) releaseForced() {
	select {
	case c.lock <- struct{}{}:
	default: // Already released.
	}
}

// csControl asserts or deasserts the chip select line bracketing the pump
// loop. No-op when the controller has no chip select wired.
func (c *transferContext) csControl(assert bool) {
	if c.cs != nil {
		c.cs(assert)
	}
}

// setupBuffers resets the cursors for a new transfer over the given buffer
// sets. Either side may be nil for transmit-only or receive-only transfers.
func (c *transferContext) setupBuffers(tx, rx [][]byte) {
	c.tx, c.rx = tx, rx
	c.txBuf, c.txOff = 0, 0
	c.rxBuf, c.rxOff = 0, 0
	c.pushed, c.pulled = 0, 0
	txlen := 0
	for _, b := range tx {
		txlen += len(b)
	}
	rxlen := 0
	for _, b := range rx {
		rxlen += len(b)
	}
	c.total = txlen
	if rxlen > txlen {
		c.total = rxlen
	}
}

func (c *transferContext) txDone() bool { return c.pushed >= c.total }
func (c *transferContext) rxDone() bool { return c.pulled >= c.total }
func (c *transferContext) done() bool   { return c.txDone() && c.rxDone() }

// nextTx consumes one unit from the transmit buffer set, substituting the
// dummy byte once the set is exhausted.
func (c *transferContext) nextTx() (value byte) {
	for c.txBuf < len(c.tx) && c.txOff >= len(c.tx[c.txBuf]) {
		c.txBuf++
		c.txOff = 0
	}
	if c.txBuf < len(c.tx) {
		value = c.tx[c.txBuf][c.txOff]
		c.txOff++
	}
	c.pushed++
	return value
}

// putRx stores one received unit at the receive cursor, discarding it once
// the receive buffer set is exhausted.
func (c *transferContext) putRx(value byte) {
	for c.rxBuf < len(c.rx) && c.rxOff >= len(c.rx[c.rxBuf]) {
		c.rxBuf++
		c.rxOff = 0
	}
	if c.rxBuf < len(c.rx) {
		c.rx[c.rxBuf][c.rxOff] = value
		c.rxOff++
	}
	c.pulled++
}
