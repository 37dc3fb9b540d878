// Package gpio provides GPIO input and output with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/wps-button/internal/logic"

// Reader samples the push button's input line.
type Reader interface {
	// Read returns the instantaneous raw level of the button line.
	// The line is active-low: logic.Low means pressed.
	Read() (logic.Level, error)

	// Close releases GPIO resources.
	Close() error
}

// Writer drives the indicator line.
type Writer interface {
	// Write sets the indicator on or off.
	Write(on bool) error

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinButton = 17
	DefaultPinLED    = 27
)

// DefaultChip is the GPIO character device carrying the Pi header pins.
const DefaultChip = "gpiochip0"
