// pkg/network/commands.go
package network

import (
	"time"

	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/physics"
	"github.com/opd-ai/go-arena/pkg/validation"
)

type commandKind int

const (
	cmdJoin commandKind = iota
	cmdInput
	cmdCast
	cmdProjectile
	cmdLeave
	cmdDisconnect
)

// command is a client intent applied by the simulation goroutine at the
// start of the next tick.
type command struct {
	kind       commandKind
	session    *session
	name       string
	move       physics.Vector2D
	look       physics.Vector2D
	key        string
	projectile *entity.Projectile
}

func (s *Server) apply(cmd command, now time.Duration) {
	sess := cmd.session

	switch cmd.kind {
	case cmdJoin:
		s.join(sess, cmd.name)
		return
	case cmdLeave, cmdDisconnect:
		s.leave(sess)
		return
	}

	p, ok := s.engine.Player(sess.playerID)
	if !ok {
		sess.sendError(ErrNotJoined)
		return
	}

	switch cmd.kind {
	case cmdInput:
		p.Input = cmd.move
		if !cmd.look.IsZero() {
			p.LookDirection = cmd.look
		}

	case cmdCast:
		proj, err := p.Cast(now, cmd.key, cmd.look, s.engine.IDs())
		if err != nil {
			sess.sendError(err)
			return
		}
		s.fire(sess, "", proj)

	case cmdProjectile:
		proj := cmd.projectile
		if err := validation.ValidateProjectile(proj, p.ID); err != nil {
			sess.sendError(err)
			return
		}
		if err := p.Launch(now, proj); err != nil {
			sess.sendError(err)
			return
		}
		ref := proj.ID
		proj.ID = s.engine.IDs().Next()
		s.fire(sess, ref, proj)
	}
}

// fire acknowledges a projectile to its owner and only then hands it to
// the engine, so the ack always precedes the first broadcast carrying it.
func (s *Server) fire(sess *session, ref string, proj *entity.Projectile) {
	sess.sendJSON(MsgAck, AckMsg{Ref: ref, ID: proj.ID})
	s.engine.AddDynamic(proj)
}

func (s *Server) join(sess *session, name string) {
	if sess.playerID != "" {
		if _, ok := s.engine.Player(sess.playerID); ok {
			sess.sendError(ErrAlreadyJoined)
			return
		}
	}

	id := s.engine.IDs().Next()
	p := spawnPlayer(id, name, s.spawn(s.joined))
	s.joined++
	s.engine.AddPlayer(p)
	sess.playerID = id

	bounds := s.engine.Bounds()
	sess.sendJSON(MsgWelcome, WelcomeMsg{
		ID:     id,
		Width:  bounds.HalfWidth * 2,
		Height: bounds.HalfHeight * 2,
	})
	s.logger.Info(sess.ctx, "player joined", "player", id, "name", name)
}

func (s *Server) leave(sess *session) {
	if sess.playerID == "" {
		return
	}
	if s.engine.RemovePlayer(sess.playerID) {
		s.removed = append(s.removed, sess.playerID)
		s.logger.Info(sess.ctx, "player left", "player", sess.playerID)
	}
	sess.playerID = ""
}
