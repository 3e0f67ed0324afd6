package ssp

import "tinygo.org/x/drivers"

// Device implements the tinygo.org/x/drivers SPI contract so existing
// peripheral drivers (displays, sensors, radios) can run on top of this
// controller unchanged.
var _ drivers.SPI = (*Device)(nil)
