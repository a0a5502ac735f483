// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 dm32prog contributors

package cmd

import (
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/dm32dev/dm32prog/pkg/dm32"
)

// serialPort wraps a serial.Port into a plain io.ReadWriteCloser.
type serialPort struct {
	port serial.Port
}

func (s *serialPort) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s *serialPort) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *serialPort) Close() error                { return s.port.Close() }

// openSerialPort opens the configured port at 8N1.
func openSerialPort() (io.ReadWriteCloser, error) {
	if portName == "" {
		return nil, fmt.Errorf("no serial port given: use --port or set port in the config file")
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return &serialPort{port: port}, nil
}

// newSession builds a programming session over the configured port.
func newSession() *dm32.Session {
	return dm32.NewSession(openSerialPort, dm32.WithLogger(logger))
}
