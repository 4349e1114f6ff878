// pkg/network/session.go
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/physics"
	"github.com/opd-ai/go-arena/pkg/validation"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	sendBufSize = 256
)

type frame struct {
	binary bool
	data   []byte
}

// session is one WebSocket connection. playerID belongs to the simulation
// goroutine; everything else is set before the pumps start.
type session struct {
	id     string
	ctx    context.Context
	server *Server
	conn   *websocket.Conn
	send   chan frame

	done      chan struct{}
	closeOnce sync.Once

	playerID string
}

func newSession(s *Server, conn *websocket.Conn) *session {
	id := uuid.NewString()
	return &session{
		id:     id,
		ctx:    logging.WithCorrelationID(context.Background(), id),
		server: s,
		conn:   conn,
		send:   make(chan frame, sendBufSize),
		done:   make(chan struct{}),
	}
}

func (c *session) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// sendFrame queues a frame. Frames for slow or closed sessions are dropped.
func (c *session) sendFrame(f frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

func (c *session) sendJSON(t string, data interface{}) {
	raw, err := json.Marshal(Envelope{T: t, Data: data})
	if err != nil {
		c.server.logger.Error(c.ctx, "failed to encode message", err, "type", t)
		return
	}
	c.sendFrame(frame{data: raw})
}

func (c *session) sendError(err error) {
	c.sendJSON(MsgError, ErrorMsg{Message: err.Error()})
}

// readPump decodes client frames into commands until the connection fails
func (c *session) readPump() {
	defer func() {
		c.server.enqueue(command{kind: cmdDisconnect, session: c})
		c.server.removeSession(c)
		c.close()
		c.server.logger.Info(c.ctx, "client disconnected")
	}()

	c.conn.SetReadLimit(validation.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Warn(c.ctx, "websocket read failed", "error", err)
			}
			return
		}
		if err := c.handle(raw); err != nil {
			c.server.logger.Debug(c.ctx, "message rejected", "error", err)
			c.sendError(err)
		}
	}
}

// writePump is the only writer of the connection
func (c *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case f := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			kind := websocket.TextMessage
			if f.binary {
				kind = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(kind, f.data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// handle validates one frame and queues the matching command
func (c *session) handle(raw []byte) error {
	if err := c.server.validator.ValidateMessage(raw, c.id); err != nil {
		return err
	}

	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", validation.ErrInvalidJSON, err)
	}

	cmd := command{session: c}
	switch env.T {
	case MsgJoin:
		var msg JoinMsg
		if err := decode(env.D, &msg); err != nil {
			return err
		}
		name, err := validation.ValidatePlayerName(msg.Name)
		if err != nil {
			return err
		}
		cmd.kind, cmd.name = cmdJoin, name

	case MsgInput:
		var msg InputMsg
		if err := decode(env.D, &msg); err != nil {
			return err
		}
		move, err := validation.ValidateDirection(physics.Vec(msg.DX, msg.DY))
		if err != nil {
			return err
		}
		look, err := validation.ValidateDirection(physics.Vec(msg.LookX, msg.LookY))
		if err != nil {
			return err
		}
		cmd.kind, cmd.move, cmd.look = cmdInput, move, look

	case MsgCast:
		var msg CastMsg
		if err := decode(env.D, &msg); err != nil {
			return err
		}
		if err := validation.ValidateAbilityKey(msg.Key); err != nil {
			return err
		}
		dir, err := validation.ValidateDirection(physics.Vec(msg.DX, msg.DY))
		if err != nil {
			return err
		}
		cmd.kind, cmd.key, cmd.look = cmdCast, msg.Key, dir

	case MsgProjectile:
		var payload entity.ProjectilePayload
		if err := decode(env.D, &payload); err != nil {
			return err
		}
		proj, err := entity.DecodeProjectile(payload)
		if err != nil {
			return err
		}
		cmd.kind, cmd.projectile = cmdProjectile, proj

	case MsgLeave:
		cmd.kind = cmdLeave

	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, env.T)
	}

	c.server.enqueue(cmd)
	return nil
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing message body", validation.ErrInvalidJSON)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", validation.ErrInvalidJSON, err)
	}
	return nil
}
