// pkg/network/client.go
package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/physics"
)

var (
	// ErrNotConnected is returned when sending without a connection.
	ErrNotConnected = errors.New("not connected")
	// ErrRejected wraps error envelopes received from the server.
	ErrRejected = errors.New("rejected by server")
)

// Client is a Go arena client, used by bots and tests
type Client struct {
	service *NetworkService
	dialer  *websocket.Dialer
	logger  *logging.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	states   chan TickState
	messages chan InEnvelope
	done     chan struct{}
	once     sync.Once

	playerID string
}

// NewClient creates a disconnected client
func NewClient(cfg config.ClientConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("component", "client")
	return &Client{
		service: NewNetworkService(cfg, logger),
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.DialTimeout,
		},
		logger:   logger,
		states:   make(chan TickState, 64),
		messages: make(chan InEnvelope, 64),
		done:     make(chan struct{}),
	}
}

// Connect dials url (ws://host/ws) through the circuit breaker
func (c *Client) Connect(ctx context.Context, url string) error {
	if c.conn != nil {
		return errors.New("already connected")
	}
	err := c.service.ExecuteWithRetry(ctx, func() error {
		conn, _, err := c.dialer.DialContext(ctx, url, nil)
		if err != nil {
			return err
		}
		c.conn = conn
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	go c.readLoop()
	return nil
}

// Join asks for a player and waits for the welcome
func (c *Client) Join(ctx context.Context, name string) (WelcomeMsg, error) {
	var welcome WelcomeMsg
	if err := c.send(MsgJoin, JoinMsg{Name: name}); err != nil {
		return welcome, err
	}
	env, err := c.Await(ctx, MsgWelcome)
	if err != nil {
		return welcome, err
	}
	if err := json.Unmarshal(env.D, &welcome); err != nil {
		return welcome, fmt.Errorf("decode welcome: %w", err)
	}
	c.playerID = welcome.ID
	return welcome, nil
}

// PlayerID returns the id assigned by the last successful Join
func (c *Client) PlayerID() string {
	return c.playerID
}

// SendInput sets the movement and look directions
func (c *Client) SendInput(move, look physics.Vector2D) error {
	return c.send(MsgInput, InputMsg{DX: move.X, DY: move.Y, LookX: look.X, LookY: look.Y})
}

// Cast fires the ability bound to key. The projectile id arrives in an ack.
func (c *Client) Cast(key string, dir physics.Vector2D) error {
	return c.send(MsgCast, CastMsg{Key: key, DX: dir.X, DY: dir.Y})
}

// SendProjectile submits a client-built projectile. Its ID comes back as
// the ack's Ref.
func (c *Client) SendProjectile(p *entity.Projectile) error {
	payload, err := entity.EncodeProjectile(p)
	if err != nil {
		return err
	}
	return c.send(MsgProjectile, payload)
}

// Leave removes the player but keeps the connection
func (c *Client) Leave() error {
	c.playerID = ""
	return c.send(MsgLeave, nil)
}

// States delivers decoded tick broadcasts. Broadcasts are dropped while
// the channel is full.
func (c *Client) States() <-chan TickState {
	return c.states
}

// Messages delivers text envelopes other than those consumed by Await
func (c *Client) Messages() <-chan InEnvelope {
	return c.messages
}

// Done is closed once the connection is gone
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Await reads text envelopes until one of the given types arrives. An error
// envelope ends the wait with ErrRejected.
func (c *Client) Await(ctx context.Context, types ...string) (InEnvelope, error) {
	for {
		select {
		case env := <-c.messages:
			if env.T == MsgError {
				var msg ErrorMsg
				json.Unmarshal(env.D, &msg)
				return env, fmt.Errorf("%w: %s", ErrRejected, msg.Message)
			}
			for _, t := range types {
				if env.T == t {
					return env, nil
				}
			}
		case <-c.done:
			return InEnvelope{}, ErrNotConnected
		case <-ctx.Done():
			return InEnvelope{}, ctx.Err()
		}
	}
}

// BreakerState reports the circuit breaker guarding Connect
func (c *Client) BreakerState() gobreaker.State {
	return c.service.GetState()
}

// Close closes the connection
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	c.writeMu.Lock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Client) send(t string, data interface{}) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	select {
	case <-c.done:
		return ErrNotConnected
	default:
	}

	raw, err := json.Marshal(Envelope{T: t, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s: %w", t, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return fmt.Errorf("send %s: %w", t, err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer c.once.Do(func() { close(c.done) })

	for {
		kind, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn(context.Background(), "client read failed", "error", err)
			}
			return
		}

		if kind == websocket.BinaryMessage {
			var state TickState
			if err := msgpack.Unmarshal(raw, &state); err != nil {
				c.logger.Warn(context.Background(), "bad tick state", "error", err)
				continue
			}
			select {
			case c.states <- state:
			default:
			}
			continue
		}

		var env InEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Warn(context.Background(), "bad envelope", "error", err)
			continue
		}
		select {
		case c.messages <- env:
		case <-time.After(writeWait):
			c.logger.Warn(context.Background(), "message dropped, reader too slow", "type", env.T)
		}
	}
}
