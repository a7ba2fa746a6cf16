package unity

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hkaya/unity_mcp_bridge/internal/logctx"
)

const maxFrameSize = 16 * 1024 * 1024 // 16MB cap on a single editor reply

// Client speaks the editor plugin's wire protocol: a 4-byte big-endian
// length header followed by a JSON body, one request and one reply per
// exchange. The connection is dialed lazily and dropped on any wire error
// so the next command starts fresh.
type Client struct {
	addr    string
	timeout time.Duration

	mu   sync.Mutex // one in-flight command per client
	conn net.Conn
}

// NewClient creates a Client for the editor plugin listening at host:port.
func NewClient(host, port string, timeout time.Duration) *Client {
	return &Client{
		addr:    net.JoinHostPort(host, port),
		timeout: timeout,
	}
}

// Close drops the connection if one is open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.drop()
}

func (c *Client) drop() error {
	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil

	return err
}

func (c *Client) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	dialer := net.Dialer{Timeout: c.timeout}

	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to editor at %s: %w", c.addr, err)
	}

	c.conn = conn

	return nil
}

// deadline returns the per-exchange deadline, honoring an earlier context
// deadline when one is set.
func (c *Client) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	return deadline
}

// SendCommand sends a named command with its parameter mapping and blocks
// until the plugin replies. A wire-level failure drops the connection and is
// returned to the caller; command-level failure is reported through the
// Response's success/error fields, never as a Go error.
func (c *Client) SendCommand(ctx context.Context, name string, params map[string]any) (Response, error) {
	logger := logctx.LoggerFromContext(ctx).With("command", name)

	if params == nil {
		params = map[string]any{}
	}

	envelope := map[string]any{
		"command":    name,
		"params":     params,
		"request_id": uuid.New().String(),
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to encode command: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	if err := c.conn.SetDeadline(c.deadline(ctx)); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	logger.Debug("sending editor command", "size_bytes", len(body))

	if err := writeFrame(c.conn, body); err != nil {
		c.drop()

		return nil, fmt.Errorf("failed to send command %s: %w", name, err)
	}

	reply, err := readFrame(c.conn)
	if err != nil {
		c.drop()

		return nil, fmt.Errorf("failed to read response for %s: %w", name, err)
	}

	var response Response
	if err := json.Unmarshal(reply, &response); err != nil {
		return nil, fmt.Errorf("failed to decode response for %s: %w", name, err)
	}

	logger.Debug("editor command answered", "success", response.OK())

	return response, nil
}

// Ping sends a PING command to verify the editor plugin is reachable.
func (c *Client) Ping(ctx context.Context) error {
	response, err := c.SendCommand(ctx, CmdPing, nil)
	if err != nil {
		return err
	}

	if !response.OK() {
		return fmt.Errorf("editor ping failed: %s", response.ErrorMessage())
	}

	return nil
}

func writeFrame(w io.Writer, body []byte) error {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(body)))

	if _, err := w.Write(header); err != nil {
		return err
	}

	_, err := w.Write(body)

	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(header)
	if size == 0 {
		return nil, fmt.Errorf("received empty frame")
	}

	if size > maxFrameSize {
		return nil, fmt.Errorf("frame too large: %d bytes", size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	return body, nil
}
