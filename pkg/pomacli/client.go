// Package pomacli implements the TCP transport used to talk to a PoMA
// command interpreter.
//
// Commands are written NUL-terminated; responses are read back as
// newline-terminated UTF-8 text. A Client owns exactly one connection and is
// not safe for concurrent use. Once disconnected it never reconnects.
package pomacli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/warpdl/pomadbg/common"
	"github.com/warpdl/pomadbg/pkg/logger"
)

// Tap receives a copy of every payload that crosses the connection.
// A failing tap never fails the transfer itself.
type Tap interface {
	RecordSent(payload []byte) error
	RecordReceived(payload []byte) error
}

// Stats counts the traffic of one connection.
type Stats struct {
	CommandsSent      int
	ResponsesReceived int
	BytesSent         int64
	BytesReceived     int64
}

// Client is a single-connection PoMA transport.
type Client struct {
	host           string
	port           int
	connectTimeout time.Duration
	bufferSize     int

	dialer Dialer
	tap    Tap
	log    logger.Logger

	conn      net.Conn
	connected bool
	used      bool
	stats     Stats
}

// Option configures a Client.
type Option func(*Client)

// WithConnectTimeout overrides the default 10s connect timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithBufferSize sets the size of a single socket read.
func WithBufferSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// WithDialer replaces the direct TCP dialer, e.g. with a proxy dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithTap mirrors every sent and received payload to t.
func WithTap(t Tap) Option {
	return func(c *Client) {
		c.tap = t
	}
}

// NewClient creates a disconnected client for host:port.
func NewClient(host string, port int, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}
	c := &Client{
		host:           host,
		port:           port,
		connectTimeout: common.DefaultConnectTimeout,
		bufferSize:     common.DefaultBufferSize,
		dialer:         &net.Dialer{},
		log:            log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr returns the host:port the client connects to.
func (c *Client) Addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// Connect opens the connection. A client connects at most once: any later
// call, whether the first one failed or the connection was closed since,
// fails with ErrClientUsed. Failures are returned as *ConnectError.
func (c *Client) Connect(ctx context.Context) error {
	addr := c.Addr()
	if c.used {
		c.log.Error("Client for '%s' was already used and does not reconnect.", addr)
		return &ConnectError{Addr: addr, Kind: ErrConnectUnknown, Err: ErrClientUsed}
	}
	c.used = true
	c.log.Info("Connecting to '%s'...", addr)

	dctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	conn, err := c.dialer.DialContext(dctx, "tcp", addr)
	if err != nil {
		c.connected = false
		ce := classifyConnectError(addr, err)
		switch ce.Kind {
		case ErrConnectTimeout:
			c.log.Error("Timeout when connecting to '%s'.", addr)
		case ErrConnectRefused:
			c.log.Error("Connection error: '%v'.", err)
		default:
			c.log.Error("Unexpected error: '%v'.", err)
		}
		return ce
	}

	c.conn = conn
	c.connected = true
	c.log.Success("Connection established with '%s'.", addr)
	return nil
}

// Frame appends the NUL terminator to command unless it already ends
// with one.
func Frame(command string) string {
	if strings.HasSuffix(command, string(common.CommandTerminator)) {
		return command
	}
	return command + string(common.CommandTerminator)
}

// Send writes the framed command. All bytes are written before it returns
// nil. A write failure does not change the connection state; the caller
// decides whether to continue.
func (c *Client) Send(command string) error {
	if !c.IsConnected() {
		c.log.Error("Cannot send command: not connected to server.")
		return ErrNotConnected
	}

	payload := []byte(Frame(command))
	if err := writeFull(c.conn, payload); err != nil {
		c.log.Error("Error sending command: '%v'.", err)
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	c.stats.CommandsSent++
	c.stats.BytesSent += int64(len(payload))
	c.log.Sent(string(payload))
	if c.tap != nil {
		if err := c.tap.RecordSent(payload); err != nil {
			c.log.Warning("Could not record sent payload: '%v'.", err)
		}
	}
	return nil
}

// Receive reads until a line feed arrives and returns the text up to and
// including the first one. Bytes read past that line feed are dropped, not
// kept for the next call.
//
// timeout bounds each socket read. On any error the returned text is empty:
// ErrPeerClosed marks the client disconnected, ErrReceiveTimeout and
// ErrReceiveFailed leave the connection state untouched.
func (c *Client) Receive(timeout time.Duration) (string, error) {
	if c.conn == nil {
		return "", ErrNotConnected
	}
	if timeout <= 0 {
		timeout = common.DefaultReceiveTimeout
	}

	buf := make([]byte, c.bufferSize)
	var acc strings.Builder
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
		n, err := c.conn.Read(buf)
		if n > 0 {
			// Each chunk is decoded on its own; invalid sequences are dropped.
			acc.WriteString(strings.ToValidUTF8(string(buf[:n]), ""))
			if msg, ok := firstLine(acc.String()); ok {
				c.received(msg)
				return msg, nil
			}
		}
		if err == nil {
			continue
		}

		var netErr net.Error
		switch {
		case errors.Is(err, io.EOF):
			c.log.Warning("Connection closed by server.")
			c.connected = false
			return "", ErrPeerClosed
		case errors.As(err, &netErr) && netErr.Timeout():
			c.log.Warning("Timeout waiting for response.")
			return "", ErrReceiveTimeout
		default:
			c.log.Error("Error receiving response: '%v'.", err)
			return "", fmt.Errorf("%w: %w", ErrReceiveFailed, err)
		}
	}
}

func (c *Client) received(msg string) {
	c.stats.ResponsesReceived++
	c.stats.BytesReceived += int64(len(msg))
	c.log.Received(msg)
	if c.tap != nil {
		if err := c.tap.RecordReceived([]byte(msg)); err != nil {
			c.log.Warning("Could not record received payload: '%v'.", err)
		}
	}
}

// IsConnected reports the liveness flag. It performs no I/O.
func (c *Client) IsConnected() bool {
	return c.connected
}

// Stats returns the traffic counters.
func (c *Client) Stats() Stats {
	return c.stats
}

// Close releases the connection. Close errors are swallowed. Safe to call
// multiple times and before Connect.
func (c *Client) Close() {
	if c.conn != nil {
		if err := c.conn.Close(); err == nil {
			c.log.Info("TCP connection closed.")
		}
		c.conn = nil
	}
	c.connected = false
}

func firstLine(s string) (string, bool) {
	i := strings.IndexByte(s, common.ResponseTerminator)
	if i < 0 {
		return "", false
	}
	return s[:i+1], true
}

func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}
