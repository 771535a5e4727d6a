package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/orchestra-mcp/fakesub/src/types"
)

// Client wraps a WebSocket connection. Writes are serialized because the
// underlying connection supports a single concurrent writer.
type Client struct {
	ID          string
	RemoteAddr  string
	conn        types.Conn
	connectedAt time.Time
	writeMu     sync.Mutex
	closeOnce   sync.Once
	done        chan struct{}
}

// NewClient creates a new WebSocket client wrapper.
func NewClient(id string, conn types.Conn) *Client {
	return &Client{
		ID:          id,
		conn:        conn,
		connectedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

// Info returns metadata about this client.
func (c *Client) Info() types.ClientInfo {
	return types.ClientInfo{
		ID:          c.ID,
		ConnectedAt: c.connectedAt,
		RemoteAddr:  c.RemoteAddr,
	}
}

// ConnectedAt returns when the client was created.
func (c *Client) ConnectedAt() time.Time { return c.connectedAt }

// Send writes data as a single text frame.
func (c *Client) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// SendJSON marshals v and sends it as a text frame.
func (c *Client) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(data)
}

// ReadPump drains inbound frames until the connection fails or closes.
// Clients never send anything the server acts on, so frames are dropped.
func (c *Client) ReadPump() error {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return err
		}
	}
}

// KeepalivePump calls send every interval until the client is closed or
// send fails.
func (c *Client) KeepalivePump(interval time.Duration, send func() error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := send(); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Done is closed once the client has been closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close closes the connection. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}
