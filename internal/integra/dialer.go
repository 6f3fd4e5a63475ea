package integra

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"

	"go.bug.st/serial"
)

// Dialer opens a fresh connection to the controller for one command
// execution. The executor closes it when the execution ends.
type Dialer interface {
	Dial(ctx context.Context) (io.ReadWriteCloser, error)
	Addr() string
}

// TCPDialer connects to an ETHM-1 module.
type TCPDialer struct {
	Host string
	Port int
}

// Addr returns host:port
func (d TCPDialer) Addr() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// Dial opens a TCP connection. Closing it resets the socket instead of
// performing a graceful shutdown.
func (d TCPDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", d.Addr())
	if err != nil {
		return nil, err
	}
	return resetConn{conn}, nil
}

// resetConn closes TCP connections with SO_LINGER 0 so the kernel sends RST.
type resetConn struct {
	net.Conn
}

func (c resetConn) Close() error {
	if tcp, ok := c.Conn.(*net.TCPConn); ok {
		_ = tcp.SetLinger(0)
	}
	return c.Conn.Close()
}

// SerialDialer opens an INT-RS module on a serial port. The module speaks
// the same framing as ETHM-1.
type SerialDialer struct {
	Port     string
	BaudRate int
}

// Addr returns the serial device path
func (d SerialDialer) Addr() string {
	return d.Port
}

// Dial opens the serial port at 8N1 and discards stale input.
func (d SerialDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: d.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(d.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", d.Port, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to reset serial input buffer: %w", err)
	}
	return port, nil
}
