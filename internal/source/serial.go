package source

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// PortOptions describes the serial connection parameters used when
// opening the demodulator port. The fields mirror config.SerialConfig so
// they can be passed through without translation.
type PortOptions struct {
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
}

// Normalize validates the options and applies defaults for any unset
// values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	if parity == "" {
		parity = "N"
	}
	switch parity {
	case "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	opts.Parity = parity

	return opts, nil
}

// SerialMode converts the port options into the serial.Mode structure
// required by go.bug.st/serial when opening a port.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
	}
	// serial.StopBits counts from zero, so the numeric value cannot be
	// cast directly.
	switch opts.StopBits {
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		mode.StopBits = serial.OneStopBit
	}
	switch opts.Parity {
	case "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", opts.Parity)
	}

	return mode, nil
}

// SerialSource reads row codes from the demodulator's serial port.
type SerialSource struct {
	port serial.Port
	rows chan string
}

// OpenSerial opens the named port with the given options.
func OpenSerial(portName string, opts PortOptions) (*SerialSource, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}
	return &SerialSource{port: port, rows: make(chan string)}, nil
}

// Rows returns the channel row codes are delivered on. It is closed when
// Monitor returns.
func (s *SerialSource) Rows() <-chan string {
	return s.rows
}

// Monitor reads from the serial port and sends row codes to the channel
// until the context is cancelled or the port errors.
func (s *SerialSource) Monitor(ctx context.Context) error {
	defer close(s.rows)
	scan := bufio.NewScanner(s.port)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if !scan.Scan() {
				return scan.Err()
			}
			line := strings.TrimSpace(scan.Text())
			if !isRowCode(line) {
				continue
			}
			select {
			case s.rows <- line:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Close closes the serial port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}
