package game

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher executes a command line for a player on the game loop.
// Returning true ends the connection.
type Dispatcher func(*World, *Player, string) bool

type serverOptions struct {
	logger zerolog.Logger
	admin  string
}

// ServerOption customises ListenAndServe.
type ServerOption func(*serverOptions)

func WithServerLogger(logger zerolog.Logger) ServerOption {
	return func(o *serverOptions) { o.logger = logger }
}

// WithAdminAccount names the account that is promoted to dungeonmaster.
func WithAdminAccount(name string) ServerOption {
	return func(o *serverOptions) { o.admin = name }
}

// Server accepts telnet connections and feeds their input to the game loop.
type Server struct {
	world      *World
	accounts   *AccountManager
	loop       *Loop
	dispatcher Dispatcher
	logger     zerolog.Logger
}

// ListenAndServe serves addr until the listener fails permanently.
func ListenAndServe(addr string, world *World, accounts *AccountManager, loop *Loop, dispatcher Dispatcher, opts ...ServerOption) error {
	options := serverOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.admin != "" {
		accounts.SetAdminAccount(options.admin)
	}
	srv := &Server{
		world:      world,
		accounts:   accounts,
		loop:       loop,
		dispatcher: dispatcher,
		logger:     options.logger.With().Str("component", "server").Logger(),
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	defer ln.Close()
	srv.logger.Info().Str("addr", addr).Msg("listening")
	return acceptConnections(ln, srv.logger, func(conn net.Conn) {
		go srv.handleConn(conn)
	})
}

func (srv *Server) handleConn(conn net.Conn) {
	session := NewSession(conn)
	defer session.Close()
	log := srv.logger.With().Str("remote", conn.RemoteAddr().String()).Logger()

	username, err := login(session, srv.accounts)
	if err != nil {
		log.Debug().Err(err).Msg("login ended")
		return
	}
	class := srv.accounts.ClassFor(username)

	var p *Player
	var joinErr error
	if err := srv.loop.Do(func() {
		record, err := srv.world.LoadOrCreatePlayer(username, class)
		if err != nil {
			joinErr = err
			return
		}
		p, joinErr = srv.world.AddPlayer(record, session)
		if joinErr == nil {
			srv.world.BroadcastToRoom(p.Location, Ansi(fmt.Sprintf("\r\n%s arrives.", HighlightName(p.Name))), p)
			EnterRoom(srv.world, p)
			p.Send(Prompt(p))
		}
	}); err != nil {
		return
	}
	if joinErr != nil {
		_ = session.WriteString(Ansi(Style("\r\n"+joinErr.Error()+"\r\n", AnsiYellow)))
		return
	}
	if err := srv.accounts.RecordLogin(username, time.Now().UTC()); err != nil {
		log.Warn().Err(err).Str("player", username).Msg("failed to record login")
	}
	log.Info().Str("player", username).Str("class", p.Class.String()).Msg("player connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for out := range p.Output {
			_ = session.WriteString(out)
		}
	}()

	for {
		line, err := session.ReadLine()
		if err != nil {
			break
		}
		line = Trim(line)
		if line == "" {
			p.Send(Prompt(p))
			continue
		}
		if !p.allowCommand(time.Now()) {
			p.Send(Ansi(Style("\r\nYou are sending commands too quickly. Please wait.", AnsiYellow)))
			continue
		}
		quit := false
		if err := srv.loop.Do(func() {
			quit = srv.dispatcher(srv.world, p, line)
			if !quit {
				p.Send(Prompt(p))
			}
		}); err != nil || quit {
			break
		}
	}

	_ = srv.loop.Do(func() {
		p.Alive = false
		srv.world.BroadcastToRoom(p.Location, Ansi(fmt.Sprintf("\r\n%s leaves.", HighlightName(p.Name))), p)
		if err := srv.world.SavePlayer(p); err != nil {
			log.Error().Err(err).Str("player", p.Name).Msg("failed to save player")
		}
		srv.world.RemovePlayer(p.Name)
		close(p.Output)
	})
	<-writerDone
	log.Info().Str("player", p.Name).Msg("player disconnected")
}

const (
	acceptBackoffStart = 50 * time.Millisecond
	acceptBackoffMax   = time.Second
)

var acceptSleep = time.Sleep

func acceptConnections(ln net.Listener, logger zerolog.Logger, handle func(net.Conn)) error {
	backoff := acceptBackoffStart
	for {
		conn, err := ln.Accept()
		if err != nil {
			if isTemporaryAcceptError(err) {
				logger.Warn().Err(err).Dur("retry_in", backoff).Msg("temporary error accepting connection")
				acceptSleep(backoff)
				backoff *= 2
				if backoff > acceptBackoffMax {
					backoff = acceptBackoffMax
				}
				continue
			}
			return err
		}
		backoff = acceptBackoffStart
		handle(conn)
	}
}

func isTemporaryAcceptError(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	if errors.As(err, &ne) {
		type temporary interface{ Temporary() bool }
		if t, ok := ne.(temporary); ok && t.Temporary() {
			return true
		}
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
