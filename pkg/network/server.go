// Package network serves the arena over WebSocket. One simulation goroutine
// owns the engine; connections reach it only through the command queue.
package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/engine"
	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/event"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/physics"
	"github.com/opd-ai/go-arena/pkg/validation"
)

const commandBufSize = 1024

var (
	// ErrServerFull is returned when MaxClients connections are open.
	ErrServerFull = errors.New("server full")
	// ErrNotJoined is sent for player commands before a join.
	ErrNotJoined = errors.New("join first")
	// ErrAlreadyJoined is sent for a second join on one connection.
	ErrAlreadyJoined = errors.New("already joined")
	// ErrUnknownMessage is sent for unrecognised envelope types.
	ErrUnknownMessage = errors.New("unknown message type")
)

// Server connects WebSocket clients to an engine
type Server struct {
	engine    *engine.Engine
	cfg       config.ServerConfig
	logger    *logging.Logger
	validator *validation.MessageValidator
	upgrader  websocket.Upgrader
	spawn     func(n int) physics.Vector2D
	launcher  Launcher

	commands chan command
	stopped  chan struct{}

	mu       sync.RWMutex
	sessions map[string]*session

	running  atomic.Bool
	tick     atomic.Uint64
	lastTick atomic.Int64
	addr     atomic.Value
	counts   [3]atomic.Int64

	// owned by the simulation goroutine
	joined  int
	removed []string
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the server logger
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithSpawner chooses the spawn location of the n-th joining player
func WithSpawner(spawn func(n int) physics.Vector2D) Option {
	return func(s *Server) { s.spawn = spawn }
}

// Launcher starts the read and write goroutines of a session.
// resource.Manager satisfies it.
type Launcher interface {
	Go(ctx context.Context, name string, fn func(context.Context)) error
}

type goLauncher struct{}

func (goLauncher) Go(ctx context.Context, _ string, fn func(context.Context)) error {
	go fn(ctx)
	return nil
}

// WithLauncher bounds session goroutines with l
func WithLauncher(l Launcher) Option {
	return func(s *Server) { s.launcher = l }
}

// NewServer creates a server for eng. The engine must not be touched by
// anything else once Run starts.
func NewServer(eng *engine.Engine, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		engine:   eng,
		cfg:      cfg,
		commands: make(chan command, commandBufSize),
		stopped:  make(chan struct{}),
		sessions: make(map[string]*session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameOrigin,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	s.logger = s.logger.With("component", "network")
	if s.launcher == nil {
		s.launcher = goLauncher{}
	}
	if s.spawn == nil {
		center := eng.Bounds().Pos
		s.spawn = func(int) physics.Vector2D { return center }
	}
	if s.cfg.BroadcastEvery < 1 {
		s.cfg.BroadcastEvery = 1
	}
	s.validator = validation.NewMessageValidator(cfg.MaxMessagesPerMin)
	s.addr.Store("")
	s.subscribe()
	return s
}

// subscribe logs the region transitions published by the engine
func (s *Server) subscribe() {
	bus := s.engine.Events()
	logRegion := func(e event.Event) {
		re, ok := e.(*event.RegionEvent)
		if !ok {
			return
		}
		s.logger.Info(context.Background(), "region "+string(re.GetType()),
			"region", re.RegionID, "name", re.RegionName, "player", re.PlayerID)
	}
	bus.Subscribe(event.RegionEntered, logRegion)
	bus.Subscribe(event.RegionExited, logRegion)
}

// Handler returns the HTTP handler serving the WebSocket endpoint at /ws
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ServeWS)
	return mux
}

// ServeWS upgrades a request to a WebSocket session
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	if s.ClientCount() >= s.cfg.MaxClients {
		http.Error(w, ErrServerFull.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error(r.Context(), "websocket upgrade failed", err, "remote", r.RemoteAddr)
		return
	}

	sess := newSession(s, conn)
	if err := s.addSession(sess); err != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error())
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		conn.Close()
		return
	}

	s.logger.Info(sess.ctx, "client connected", "remote", r.RemoteAddr)
	if err := s.launcher.Go(sess.ctx, "session-write", func(context.Context) { sess.writePump() }); err != nil {
		s.abort(sess, err)
		return
	}
	if err := s.launcher.Go(sess.ctx, "session-read", func(context.Context) { sess.readPump() }); err != nil {
		s.abort(sess, err)
	}
}

// abort drops a session whose goroutines could not be started
func (s *Server) abort(sess *session, err error) {
	s.logger.Warn(sess.ctx, "session rejected", "error", err)
	msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error())
	sess.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	s.removeSession(sess)
	sess.close()
}

func (s *Server) addSession(sess *session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= s.cfg.MaxClients {
		return ErrServerFull
	}
	s.sessions[sess.id] = sess
	return nil
}

func (s *Server) removeSession(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	s.validator.Forget(sess.id)
}

// enqueue hands a command to the simulation goroutine. It gives up once
// the loop is gone, or the session is for anything but its disconnect.
func (s *Server) enqueue(cmd command) {
	done := cmd.session.done
	if cmd.kind == cmdDisconnect {
		done = nil
	}
	select {
	case s.commands <- cmd:
	case <-done:
	case <-s.stopped:
	}
}

// ListenAndServe serves the WebSocket endpoint on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.addr.Store(ln.Addr().String())
	defer s.addr.Store("")

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info(ctx, "arena server listening", "address", ln.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}

// Run drives the simulation at the configured tick rate until ctx is done.
// It must be called exactly once.
func (s *Server) Run(ctx context.Context) error {
	interval := s.cfg.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.running.Store(true)
	defer func() {
		s.running.Store(false)
		close(s.stopped)
		s.closeSessions()
		s.validator.Close()
	}()

	s.logger.Info(ctx, "simulation loop started", "tickRate", s.cfg.TickRate)
	start := time.Now()
	last := start
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "simulation loop stopped", "tick", s.engine.Tick())
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = interval.Seconds()
			}
			last = now
			s.step(now.Sub(start), dt)
		}
	}
}

// step runs one tick: pending commands, player movement, the engine
// update, removals, respawns and the periodic broadcast.
func (s *Server) step(now time.Duration, dt float64) {
	s.drainCommands(now)

	for _, p := range s.engine.Players() {
		p.Update(now, dt, s.engine)
	}

	removed := s.engine.Update(now, dt)
	s.engine.Remove(removed)
	for _, e := range removed {
		s.removed = append(s.removed, e.Core().ID)
	}

	for _, p := range s.engine.Players() {
		if !p.Alive() {
			s.logger.Debug(context.Background(), "player respawned", "player", p.ID)
			p.Respawn()
		}
	}

	players, dynamics, statics := s.engine.Counts()
	s.counts[0].Store(int64(players))
	s.counts[1].Store(int64(dynamics))
	s.counts[2].Store(int64(statics))

	tick := s.engine.Tick()
	s.tick.Store(tick)
	s.lastTick.Store(time.Now().UnixNano())
	if tick%uint64(s.cfg.BroadcastEvery) == 0 {
		s.broadcast(tick)
	}
}

func (s *Server) drainCommands(now time.Duration) {
	for {
		select {
		case cmd := <-s.commands:
			s.apply(cmd, now)
		default:
			return
		}
	}
}

// state builds the broadcast for the current engine contents
func (s *Server) state(tick uint64) TickState {
	players := s.engine.Players()
	dynamics := s.engine.Dynamics()
	regions := s.engine.Regions()

	state := TickState{
		Tick:        tick,
		Players:     make([]PlayerState, 0, len(players)),
		Projectiles: make([]ProjectileState, 0, len(dynamics)),
		Removed:     s.removed,
		Regions:     make([]RegionState, 0, len(regions)),
	}
	if state.Removed == nil {
		state.Removed = []string{}
	}
	for _, p := range players {
		state.Players = append(state.Players, playerState(p))
	}
	for _, d := range dynamics {
		state.Projectiles = append(state.Projectiles, projectileState(d))
	}
	for _, r := range regions {
		state.Regions = append(state.Regions, regionState(r))
	}
	return state
}

func (s *Server) broadcast(tick uint64) {
	data, err := msgpack.Marshal(s.state(tick))
	if err != nil {
		s.logger.Error(context.Background(), "failed to encode tick state", err, "tick", tick)
		return
	}
	s.removed = nil

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		sess.sendFrame(frame{binary: true, data: data})
	}
}

func (s *Server) closeSessions() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		sess.close()
	}
}

// Running reports whether the simulation loop is active
func (s *Server) Running() bool {
	return s.running.Load()
}

// LastTick returns the last completed tick and when it finished
func (s *Server) LastTick() (uint64, time.Time) {
	nanos := s.lastTick.Load()
	if nanos == 0 {
		return 0, time.Time{}
	}
	return s.tick.Load(), time.Unix(0, nanos)
}

// Counts returns the registry sizes as of the last tick. Unlike the
// engine's own Counts it is safe to call from any goroutine.
func (s *Server) Counts() (players, dynamics, statics int) {
	return int(s.counts[0].Load()), int(s.counts[1].Load()), int(s.counts[2].Load())
}

// Addr returns the listening address, or "" when not listening
func (s *Server) Addr() string {
	return s.addr.Load().(string)
}

// ClientCount returns the number of open connections
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func spawnPlayer(id, name string, at physics.Vector2D) *entity.Player {
	return entity.NewPlayer(id, name, at, entity.DefaultPlayerSpeed, entity.DefaultMaxHealth)
}

// sameOrigin accepts non-browser clients and same-host browser pages
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
