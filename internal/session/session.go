// Package session implements the client's connection lifecycle: the
// login and game server handshakes, the keyed steady state in which frames
// are pulled off the socket and dispatched to handlers, and the periodic
// chat polling that starts once the server's initial data burst settles.
package session

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yntha/castleclash/internal/core"
	"github.com/yntha/castleclash/internal/debug"
	"github.com/yntha/castleclash/internal/encryption"
	"github.com/yntha/castleclash/internal/packets"
	"github.com/yntha/castleclash/internal/topology"
	"github.com/yntha/castleclash/internal/wire"
)

// ErrHandshakeFailed is returned when either server's handshake response
// can't be read or parsed. Always fatal to startup.
var ErrHandshakeFailed = errors.New("handshake failed")

// Handler processes one decoded server message. Handlers are invoked
// sequentially from the dispatch loop, never concurrently with each other.
type Handler func(ctx context.Context, s *Session, msg *wire.Message) error

const (
	readBufferSize    = 8192
	handshakeReadSize = 1024

	dispatchInterval = 100 * time.Millisecond
	chatPollInterval = 500 * time.Millisecond

	// The server never announces the end of its initial data burst. Once the
	// buffer has sat at a few stray bytes for a while after data has flowed,
	// the burst is considered over. A heuristic, but a faithful one.
	idleThreshold = 3 * time.Second
	idleBufferMax = 4

	// How long outstanding sends/receives get to settle before the socket
	// is pulled out from under them.
	shutdownGracePeriod = 1500 * time.Millisecond
)

// Session drives a single client connection through its lifecycle. One
// session per process; it is not reusable after Start returns.
type Session struct {
	config   *core.Config
	logger   *logrus.Logger
	topology *topology.Client
	registry *wire.Registry
	crypto   *encryption.Session
	db       *gorm.DB

	conn net.Conn

	// mu guards the receive buffer and the idle-detection state. It is held
	// only for buffer manipulation, never across socket reads or handler
	// invocations.
	mu       sync.Mutex
	buffer   []byte
	lastRecv time.Time
	notified bool

	// sendMu serializes frame writes; the chat loop sends concurrently with
	// the dispatch loop and a frame must hit the wire in one piece.
	sendMu sync.Mutex

	seq      atomic.Uint32
	handlers map[uint16]Handler
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	loginKey string
}

func New(cfg *core.Config, logger *logrus.Logger, topo *topology.Client, db *gorm.DB) (*Session, error) {
	registry, err := packets.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("building packet registry: %w", err)
	}

	s := &Session{
		config:   cfg,
		logger:   logger,
		topology: topo,
		registry: registry,
		crypto:   encryption.NewSession(),
		db:       db,
		handlers: make(map[uint16]Handler),
	}
	s.RegisterHandler(packets.WorldChatType, handleWorldChat)
	return s, nil
}

// RegisterHandler installs a handler for a server message id, replacing any
// existing one. Must be called before Start.
func (s *Session) RegisterHandler(id uint16, h Handler) {
	s.handlers[id] = h
}

// Start runs the session to completion: topology lookup, both handshakes,
// key exchange, then the receive/dispatch loops until ctx is cancelled or
// the connection dies. It blocks for the session's whole lifetime.
func (s *Session) Start(ctx context.Context) error {
	if s.config.Client.UserID == 0 {
		return errors.New("client.user_id is not set; generate a config from a captured login packet first")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()

	sc, err := s.topology.Fetch(ctx)
	if err != nil {
		return err
	}
	loginServer, err := s.topology.ChooseLoginServer(sc)
	if err != nil {
		return err
	}

	s.logger.Infof("connecting to login server %s:%d", loginServer.Host, loginServer.Port)
	if err := s.connect(loginServer.Host, loginServer.Port); err != nil {
		return err
	}

	loginResp, err := s.login()
	if err != nil {
		_ = s.conn.Close()
		return err
	}

	gsHost := loginResp.String("x_gs_ip")
	gsPort := int(loginResp.Uint("x_gs_port"))
	s.loginKey = loginResp.String("login_key")

	s.logger.Info("login successful")
	s.logger.Debugf("game server address: %s:%d", gsHost, gsPort)
	s.logger.Debugf("game server login key: %s", s.loginKey)

	if err := s.conn.Close(); err != nil {
		s.logger.Warnf("failed to close login server connection: %v", err)
	}

	s.logger.Infof("connecting to game server %s:%d", gsHost, gsPort)
	if err := s.connect(gsHost, gsPort); err != nil {
		return err
	}

	gameResp, err := s.loginGame()
	if err != nil {
		_ = s.conn.Close()
		return err
	}

	if err := s.crypto.Initialize(gameResp.Bytes("des_key")); err != nil {
		_ = s.conn.Close()
		return fmt.Errorf("%w: unusable session key: %v", ErrHandshakeFailed, err)
	}
	s.logger.Info("authenticated with game server, session key exchanged")

	if err := s.Send(packets.AckEncryptionResp(
		s.nextSeq(), s.config.Client.UserID, s.config.Client.LanguageID,
	)); err != nil {
		_ = s.conn.Close()
		return fmt.Errorf("sending encryption ack: %w", err)
	}

	s.logger.Info("session ready, waiting for the server's initial data")

	s.wg.Add(1)
	go s.receiveLoop(ctx)

	s.runDispatchLoop(ctx)
	s.shutdown()
	return nil
}

// connect opens a TCP connection to the given address, replacing the
// session's current connection.
func (s *Session) connect(host string, port int) error {
	addr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("error resolving address %s:%d: %w", host, port, err)
	}

	conn, err := net.DialTCP("tcp", nil, addr)
	if err != nil {
		return fmt.Errorf("error connecting to %v: %w", addr, err)
	}
	s.conn = conn
	return nil
}

// login authenticates with the login server and returns its validate
// response, which carries the game server address and login key.
func (s *Session) login() (*wire.Message, error) {
	err := s.Send(packets.ConnectLoginServer(
		s.config.Client.Version,
		s.config.Client.UserID,
		s.config.Client.AuthKey,
		s.config.Client.GameID,
	))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	return s.readHandshakeResponse(packets.LoginValidateType)
}

// loginGame authenticates with the game server using the login key and
// returns the response carrying the session key.
func (s *Session) loginGame() (*wire.Message, error) {
	err := s.Send(packets.ConnectGameServer(
		s.config.Client.UserID,
		s.loginKey,
		s.config.Client.Sign,
		s.config.Client.Version,
	))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	return s.readHandshakeResponse(packets.GameLoginRespType)
}

// readHandshakeResponse performs a single bounded read for a handshake
// response. Both responses fit comfortably inside one segment and the
// connection carries nothing else at this point, so the full framed receive
// path isn't needed yet.
func (s *Session) readHandshakeResponse(wantID uint16) (*wire.Message, error) {
	buf := make([]byte, handshakeReadSize)
	n, err := s.conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrHandshakeFailed, err)
	}

	header, err := packets.ParseHeader(buf[:n])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	if header.ID != wantID {
		return nil, fmt.Errorf("%w: expected response 0x%04x, got 0x%04x",
			ErrHandshakeFailed, wantID, header.ID)
	}
	if int(header.Size) < packets.HeaderSize {
		return nil, fmt.Errorf("%w: response declares impossible length %d",
			ErrHandshakeFailed, header.Size)
	}
	if int(header.Size) > n {
		return nil, fmt.Errorf("%w: response declares %d bytes but only %d arrived",
			ErrHandshakeFailed, header.Size, n)
	}

	entry := s.registry.Resolve(wire.Server, header.ID)
	if entry == nil {
		return nil, fmt.Errorf("%w: no layout registered for 0x%04x", ErrHandshakeFailed, header.ID)
	}

	if s.config.Debugging.PacketLoggingEnabled {
		s.logger.Debugf("received 0x%04x (%d bytes)\n%s", header.ID, n, debug.Hexdump(buf[:n]))
	}

	msg, err := wire.Decode(entry.Layout, buf[packets.HeaderSize:header.Size])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	return msg, nil
}

// Send frames and transmits one message. The identifier and encryption
// flag come from the message's registration; bodies of messages marked
// encrypted are run through the session cipher first. A send failure is
// surfaced to the caller and does not by itself tear the session down.
func (s *Session) Send(msg *wire.Message) error {
	entry := s.registry.ResolveName(wire.Client, msg.Layout.Name)
	if entry == nil {
		return fmt.Errorf("message %s is not registered for sending", msg.Layout.Name)
	}

	body, err := wire.Encode(msg)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", msg.Layout.Name, err)
	}

	if entry.Encrypted {
		body, err = s.crypto.Encrypt(body)
		if err != nil {
			return fmt.Errorf("encrypting %s: %w", msg.Layout.Name, err)
		}
	}

	frame := packets.PutHeader(entry.ID, body)
	if s.config.Debugging.PacketLoggingEnabled {
		s.logger.Debugf("sending 0x%04x (%d bytes)\n%s", entry.ID, len(frame), debug.Hexdump(frame))
	}
	return s.transmit(frame)
}

// transmit writes the frame to the connection until every byte has been sent.
func (s *Session) transmit(frame []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	for sent := 0; sent < len(frame); {
		n, err := s.conn.Write(frame[sent:])
		if err != nil {
			return fmt.Errorf("failed to send to server: %w", err)
		}
		sent += n
	}
	return nil
}

// nextSeq draws the next value from the session-wide sequence counter. The
// counter is shared by every outbound message that carries a sequence field
// and never resets for the life of the session.
func (s *Session) nextSeq() uint32 {
	return s.seq.Add(1)
}

// receiveLoop continuously appends socket reads to the session buffer. An
// I/O error here terminates the loop and triggers session shutdown, unless
// the session is already being cancelled.
func (s *Session) receiveLoop(ctx context.Context) {
	defer s.wg.Done()

	buf := make([]byte, readBufferSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.buffer = append(s.buffer, buf[:n]...)
			s.lastRecv = time.Now()
			s.mu.Unlock()
		}
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Errorf("error receiving data from server: %v", err)
				s.cancel()
			}
			return
		}
	}
}

// runDispatchLoop drains complete frames from the buffer and hands them to
// handlers until the session context is cancelled.
func (s *Session) runDispatchLoop(ctx context.Context) {
	ticker := time.NewTicker(dispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if s.initialBurstSettled() {
			s.enterChatPhase(ctx)
		}

		for {
			frame := s.nextFrame()
			if frame == nil {
				break
			}
			s.dispatch(ctx, frame)
		}
	}
}

// initialBurstSettled applies the idle-detection heuristic, returning true
// exactly once when the server's initial data burst appears to be over.
func (s *Session) initialBurstSettled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notified || s.lastRecv.IsZero() {
		return false
	}
	if len(s.buffer) > idleBufferMax || time.Since(s.lastRecv) <= idleThreshold {
		return false
	}
	s.notified = true
	return true
}

// enterChatPhase notifies the server that initialization is done and starts
// the periodic chat poll.
func (s *Session) enterChatPhase(ctx context.Context) {
	s.logger.Info("server has sent all initial data, notifying ready")

	// The server never advances a session whose ready notification it did
	// not receive, so a failed send here is fatal.
	if err := s.Send(packets.GameInitComplete(s.nextSeq())); err != nil {
		s.logger.Errorf("error sending init complete: %v", err)
		s.cancel()
		return
	}
	if err := s.Send(packets.Active(s.nextSeq())); err != nil {
		s.logger.Errorf("error sending heartbeat: %v", err)
		s.cancel()
		return
	}

	s.logger.Info("polling world chat")
	s.wg.Add(1)
	go s.chatLoop(ctx)
}

// chatLoop polls the world chat channel until the session ends. A send
// failure terminates only this loop; the session keeps running.
func (s *Session) chatLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(chatPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := s.Send(packets.GetSelectChat(s.nextSeq(), packets.WorldChatChannel)); err != nil {
			s.logger.Errorf("error sending chat poll: %v", err)
			return
		}
	}
}

// nextFrame extracts one complete frame from the front of the buffer, or
// returns nil if a full frame hasn't arrived yet. Reads arrive in arbitrary
// chunks; the declared length in the header is the only frame boundary.
func (s *Session) nextFrame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buffer) < packets.HeaderSize {
		return nil
	}

	size := int(binary.LittleEndian.Uint16(s.buffer[:2]))
	if size < packets.HeaderSize {
		// A declared length smaller than the header itself can never
		// resolve into a frame; drop the buffer rather than spin on it.
		s.logger.Warnf("dropping %d buffered bytes after malformed frame length %d", len(s.buffer), size)
		s.buffer = nil
		return nil
	}
	if size > len(s.buffer) {
		return nil
	}

	frame := make([]byte, size)
	copy(frame, s.buffer[:size])
	s.buffer = s.buffer[size:]
	return frame
}

// dispatch decodes one frame and invokes its handler. Nothing that goes
// wrong with a single frame escapes this function; bad frames are logged
// and dropped.
func (s *Session) dispatch(ctx context.Context, frame []byte) {
	header, _ := packets.ParseHeader(frame)

	if s.config.Debugging.PacketLoggingEnabled {
		s.logger.Debugf("received 0x%04x (%d bytes)\n%s", header.ID, len(frame), debug.Hexdump(frame))
	}

	entry := s.registry.Resolve(wire.Server, header.ID)
	if entry == nil {
		s.logger.Debugf("dropping frame with unknown id 0x%04x", header.ID)
		return
	}

	body := frame[packets.HeaderSize:]
	if entry.Encrypted {
		decrypted, err := s.crypto.Decrypt(body)
		if err != nil {
			s.logger.Warnf("dropping 0x%04x: %v", header.ID, err)
			return
		}
		body = decrypted
	}

	msg, err := wire.Decode(entry.Layout, body)
	if err != nil {
		s.logger.Warnf("dropping undecodable frame 0x%04x: %v", header.ID, err)
		return
	}
	if len(msg.Extra) > 0 {
		s.logger.Debugf("0x%04x: %d unparsed trailing bytes: %x", header.ID, len(msg.Extra), msg.Extra)
	}

	handler, ok := s.handlers[header.ID]
	if !ok {
		return
	}
	if err := handler(ctx, s, msg); err != nil {
		s.logger.Warnf("handler for 0x%04x: %v", header.ID, err)
	}
}

// shutdown stops the background tasks and releases the connection. The
// grace period gives in-flight sends and receives a chance to settle before
// the socket goes away.
func (s *Session) shutdown() {
	s.logger.Info("shutting down...")
	s.cancel()

	time.Sleep(shutdownGracePeriod)

	if err := s.conn.Close(); err != nil {
		s.logger.Warnf("failed to close connection: %v", err)
	}
	s.wg.Wait()

	s.logger.Info("shutdown complete")
}
