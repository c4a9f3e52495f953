package channel

import (
	"fmt"
	"io"
	"strings"

	"go.bug.st/serial"
)

// SerialPorter is the minimal interface needed for a serial port.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// SerialPortOpener opens a serial port. Tests replace it.
type SerialPortOpener func(path string, opts PortOptions) (SerialPorter, error)

// OpenSerialPort opens a real port with go.bug.st/serial.
func OpenSerialPort(path string, opts PortOptions) (SerialPorter, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	return serial.Open(path, mode)
}

// PortOptions describes the serial link to a telemetry radio. Zero fields
// take the 115200 8N1 defaults.
type PortOptions struct {
	BaudRate int
	DataBits int
	StopBits int
	// Parity is N, E or O; the words none, even and odd are accepted too.
	Parity string
}

// DefaultBaudRate suits common telemetry radios.
const DefaultBaudRate = 115200

var parities = map[string]serial.Parity{
	"N": serial.NoParity, "NONE": serial.NoParity,
	"E": serial.EvenParity, "EVEN": serial.EvenParity,
	"O": serial.OddParity, "ODD": serial.OddParity,
}

// Normalize fills defaults and canonicalises Parity to a single letter.
func (o PortOptions) Normalize() (PortOptions, error) {
	if o.BaudRate <= 0 {
		o.BaudRate = DefaultBaudRate
	}
	if o.DataBits == 0 {
		o.DataBits = 8
	}
	if o.StopBits == 0 {
		o.StopBits = 1
	}
	parity := strings.ToUpper(strings.TrimSpace(o.Parity))
	if parity == "" {
		parity = "N"
	}

	switch _, ok := parities[parity]; {
	case o.DataBits < 5 || o.DataBits > 8:
		return o, fmt.Errorf("serial data bits %d out of range 5-8", o.DataBits)
	case o.StopBits != 1 && o.StopBits != 2:
		return o, fmt.Errorf("serial stop bits %d not 1 or 2", o.StopBits)
	case !ok:
		return o, fmt.Errorf("serial parity %q not one of N, E, O", o.Parity)
	}
	o.Parity = parity[:1]
	return o, nil
}

// Equal reports whether both options are valid and open the same link.
func (o PortOptions) Equal(other PortOptions) bool {
	a, errA := o.Normalize()
	b, errB := other.Normalize()
	return errA == nil && errB == nil && a == b
}

// SerialMode is the go.bug.st/serial mode for the normalized options.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	n, err := o.Normalize()
	if err != nil {
		return nil, err
	}
	stop := serial.OneStopBit
	if n.StopBits == 2 {
		stop = serial.TwoStopBits
	}
	return &serial.Mode{
		BaudRate: n.BaudRate,
		DataBits: n.DataBits,
		Parity:   parities[n.Parity],
		StopBits: stop,
	}, nil
}
