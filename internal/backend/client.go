package backend

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"
)

const dialTimeout = 5 * time.Second

// Client is one live connection to the job system's event channel.
// A Client only exists while connected; reconnection policy lives with
// the owner, which dials a fresh Client after a delay.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
}

// Dial connects to the event channel.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to event channel: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB line budget

	return &Client{conn: conn, scanner: scanner}, nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Emit sends a client message. There is no acknowledgement beyond the
// session_joined event arriving later on the read side.
func (c *Client) Emit(msg ClientMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// JoinScrapingSession subscribes this connection to a scraping session's
// progress stream.
func (c *Client) JoinScrapingSession(sessionID string) error {
	return c.Emit(ClientMessage{Event: EventJoinScrapingSession, SessionID: sessionID})
}

// JoinGenerationSession subscribes this connection to a generation
// session's progress stream.
func (c *Client) JoinGenerationSession(sessionID string) error {
	return c.Emit(ClientMessage{Event: EventJoinGenerationSession, SessionID: sessionID})
}

// ReadEvent reads the next NDJSON event line. Blocks until data
// arrives; returns an error once the connection is gone.
func (c *Client) ReadEvent() (Envelope, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Envelope{}, fmt.Errorf("read event: %w", err)
		}
		return Envelope{}, fmt.Errorf("connection closed")
	}

	var env Envelope
	if err := json.Unmarshal(c.scanner.Bytes(), &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal event: %w", err)
	}

	return env, nil
}
