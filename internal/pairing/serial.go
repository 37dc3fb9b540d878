package pairing

import (
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// DefaultBaud is the radio firmware's factory UART rate.
const DefaultBaud = 115200

// OpenSerial opens the radio's serial device. Reads block until data arrives,
// which is what the modem's reader goroutine expects.
func OpenSerial(device string, baud int) (io.ReadWriteCloser, error) {
	if device == "" {
		return nil, fmt.Errorf("serial device not set")
	}
	if baud <= 0 {
		baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{
		Name: device,
		Baud: baud,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}
	return port, nil
}
