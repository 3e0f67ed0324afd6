package ssp

// clock.go derives the SSP clock divider registers from a requested bus
// frequency. The bit rate out of the controller is
//
//	PCLK / (CPSDVSR * (SCR+1))
//
// where CPSDVSR is the even clock prescale divisor in [2,254] and SCR the
// serial clock rate field of CR0 in [0,255].

// ClockDivisors returns the divider pair yielding the highest bit rate that
// does not exceed freq for the given peripheral clock. Divisors are scanned
// in increasing order so the first satisfying pair is the optimal one. If
// freq is below the slowest achievable rate the maximum dividers (254, 255)
// are returned, selecting the slowest supported rate.
func ClockDivisors(pclk, freq uint32) (cpsdvsr, scr uint8) {
	for div := uint32(minPrescale); div <= maxPrescale; div += 2 {
		for rate := uint32(0); rate <= maxSCR; rate++ {
			if freq >= pclk/(div*(rate+1)) {
				return uint8(div), uint8(rate)
			}
		}
	}
	return maxPrescale, maxSCR
}

// DividedFrequency returns the bit rate produced by a divider pair.
func DividedFrequency(pclk uint32, cpsdvsr, scr uint8) uint32 {
	return pclk / (uint32(cpsdvsr) * (uint32(scr) + 1))
}
