package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/profilgusto/sim-biorreator/internal/logging"
	"github.com/profilgusto/sim-biorreator/internal/sim"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// ErrTooManyClients is returned by Register when the client limit is reached.
var ErrTooManyClients = errors.New("broadcast: too many clients")

// FrameSource supplies the document sent on each tick.
type FrameSource interface {
	LiveFrame() sim.LiveFrame
}

// Hooks observe client churn. Either field may be nil.
type Hooks struct {
	OnConnect    func()
	OnDisconnect func()
}

type broadcasterCmd interface{ isBroadcasterCmd() }

type baseBroadcasterCmd struct{}

func (baseBroadcasterCmd) isBroadcasterCmd() {}

type registerCmd struct {
	baseBroadcasterCmd
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseBroadcasterCmd
	connection *websocket.Conn
}

type getClientCountCmd struct {
	baseBroadcasterCmd
	replyChannel chan int
}

type stopCmd struct {
	baseBroadcasterCmd
}

type Broadcaster struct {
	cmdCh        chan broadcasterCmd
	clock        clockwork.Clock
	clients      map[*websocket.Conn]*clientWriter
	source       FrameSource
	hooks        Hooks
	done         chan struct{}
	maxClients   int
	tickInterval time.Duration
	log          *slog.Logger
}

// NewBroadcaster starts the broadcaster goroutine. maxClients <= 0 means no limit.
func NewBroadcaster(source FrameSource, clock clockwork.Clock, tickInterval time.Duration, maxClients int, hooks Hooks) *Broadcaster {
	b := &Broadcaster{
		cmdCh:        make(chan broadcasterCmd, 256),
		clock:        clock,
		clients:      make(map[*websocket.Conn]*clientWriter),
		source:       source,
		hooks:        hooks,
		done:         make(chan struct{}),
		maxClients:   maxClients,
		tickInterval: tickInterval,
		log:          logging.WithComponent("broadcast"),
	}
	go b.run()
	return b
}

// Register adds a client. The connection is closed if it is rejected.
func (b *Broadcaster) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	b.cmdCh <- registerCmd{connection: conn, errorChannel: errCh}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a client and closes its connection.
func (b *Broadcaster) Unregister(conn *websocket.Conn) {
	select {
	case b.cmdCh <- unregisterCmd{connection: conn}:
	case <-b.done:
	}
}

// ClientCount returns the number of connected clients, or -1 on timeout.
func (b *Broadcaster) ClientCount() int {
	replyCh := make(chan int, 1)
	b.cmdCh <- getClientCountCmd{replyChannel: replyCh}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		b.log.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop closes every client with a close frame and waits for the goroutine to exit.
func (b *Broadcaster) Stop() {
	select {
	case b.cmdCh <- stopCmd{}:
	case <-b.done:
		return
	}

	timeout := b.clock.NewTimer(stopTimeout)
	defer timeout.Stop()

	select {
	case <-b.done:
		b.log.Info("Broadcaster stopped gracefully")
	case <-timeout.Chan():
		b.log.Warn("Broadcaster stop timeout exceeded", "timeout", stopTimeout, "clients", len(b.clients))
	}
}

func (b *Broadcaster) run() {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Broadcaster panic recovered", "panic", r)
			b.closeAllClients("broadcaster panic")
		}
	}()

	ticker := b.clock.NewTicker(b.tickInterval)
	defer ticker.Stop()
	defer close(b.done)

	for {
		select {
		case cmd := <-b.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				b.handleRegister(c)
			case unregisterCmd:
				b.handleUnregister(c)
			case getClientCountCmd:
				c.replyChannel <- len(b.clients)
			case stopCmd:
				b.handleStop()
				return
			default:
				b.log.Warn("Broadcaster received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		case <-ticker.Chan():
			b.handleTick()
		}
	}
}

func (b *Broadcaster) handleRegister(c registerCmd) {
	if b.maxClients > 0 && len(b.clients) >= b.maxClients {
		b.log.Warn("Rejecting client: max clients reached", "max_clients", b.maxClients)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("%w (%d)", ErrTooManyClients, b.maxClients)
		return
	}

	b.clients[c.connection] = newClientWriter(c.connection, b.clock)
	if b.hooks.OnConnect != nil {
		b.hooks.OnConnect()
	}

	b.log.Debug("Client registered", "total_clients", len(b.clients))
	c.errorChannel <- nil
}

func (b *Broadcaster) handleUnregister(c unregisterCmd) {
	cw, exists := b.clients[c.connection]
	if !exists {
		return
	}

	cw.stop()
	delete(b.clients, c.connection)
	if b.hooks.OnDisconnect != nil {
		b.hooks.OnDisconnect()
	}

	b.log.Debug("Client unregistered", "remaining_clients", len(b.clients))
}

func (b *Broadcaster) handleTick() {
	if len(b.clients) == 0 {
		return
	}

	data, err := json.Marshal(b.source.LiveFrame())
	if err != nil {
		b.log.Error("Failed to marshal live frame", "error", err)
		return
	}

	var slow []*websocket.Conn
	for conn, writer := range b.clients {
		select {
		case writer.sendChannel <- data:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		b.log.Warn("Disconnecting slow client", "remote", conn.RemoteAddr().String())
		b.handleUnregister(unregisterCmd{connection: conn})
	}
}

func (b *Broadcaster) handleStop() {
	total := len(b.clients)
	b.log.Info("Broadcaster shutting down", "total_clients", total)
	b.closeAllClients("Server shutting down")
	b.log.Info("Broadcaster shutdown complete", "disconnected_clients", total)
}

func (b *Broadcaster) closeAllClients(reason string) {
	for conn, cw := range b.clients {
		cw.stopGraceful(reason)
		delete(b.clients, conn)
		if b.hooks.OnDisconnect != nil {
			b.hooks.OnDisconnect()
		}
	}
}

// Serve registers conn and reads from it until the client goes away. Inbound
// messages are discarded; reading is what processes pongs and close frames.
func (b *Broadcaster) Serve(conn *websocket.Conn) error {
	if err := b.Register(conn); err != nil {
		return err
	}
	defer b.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}
