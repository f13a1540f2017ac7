package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client speaks the line-delimited JSON command protocol over a persistent
// TCP connection. It is not safe for concurrent use; callers serialize.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// Dial connects to the daemon at the given address.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: 10 * time.Second,
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Do sends one request and reads exactly one response line.
func (c *Client) Do(req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	deadline := time.Now().Add(c.timeout)
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// Move commands continuous motion for one motor.
func (c *Client) Move(motor, direction string, speed int) (*Response, error) {
	return c.Do(Request{Command: CmdMove, Motor: motor, Direction: direction, Speed: speed})
}

// Stop halts one motor.
func (c *Client) Stop(motor string) (*Response, error) {
	return c.Do(Request{Command: CmdStop, Motor: motor})
}

// StopAll halts every motor.
func (c *Client) StopAll() (*Response, error) {
	return c.Do(Request{Command: CmdStopAll})
}

// StartLogging opens a new recording episode.
func (c *Client) StartLogging(actionName, description string, timeout int, sources []VideoSource) (*Response, error) {
	return c.Do(Request{
		Command:      CmdStartLogging,
		ActionName:   actionName,
		Description:  description,
		Timeout:      timeout,
		VideoSources: sources,
	})
}

// StopLogging finalizes the active episode.
func (c *Client) StopLogging() (*Response, error) {
	return c.Do(Request{Command: CmdStopLogging})
}

// Ping checks daemon liveness.
func (c *Client) Ping() (*Response, error) {
	return c.Do(Request{Command: CmdPing})
}

// Status fetches motor and recording state.
func (c *Client) Status() (*Response, error) {
	return c.Do(Request{Command: CmdStatus})
}

// ListEpisodes fetches up to limit catalog rows, newest first.
func (c *Client) ListEpisodes(limit int) (*Response, error) {
	return c.Do(Request{Command: CmdListEpisodes, Limit: limit})
}
