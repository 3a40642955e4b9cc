package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"go-streamfeed-server/client"
	"go-streamfeed-server/config"
	"go-streamfeed-server/logger"
	"go-streamfeed-server/transfer"
)

// Server accepts one client at a time and runs the file-then-input transfer
// for each. Input lines are read once from the configured reader and carried
// over between connections, never re-read.
type Server struct {
	cfg      *config.Config
	filePath string
	input    io.Reader
	listener net.Listener
	linesCh  chan []byte
	log      zerolog.Logger
}

func New(cfg *config.Config, filePath string, input io.Reader) *Server {
	return &Server{
		cfg:      cfg,
		filePath: filePath,
		input:    input,
		linesCh:  make(chan []byte),
		log:      logger.WithComponent("server"),
	}
}

// Listen binds the listening socket with SO_REUSEADDR. Port 0 binds an
// ephemeral port, exposed through Addr.
func (s *Server) Listen() error {
	listenConfig := net.ListenConfig{Control: reuseAddrControl}

	address := fmt.Sprintf("%s:%d", s.cfg.Server.HostName, s.cfg.Server.Port)
	listener, err := listenConfig.Listen(context.Background(), "tcp", address)
	if err != nil {
		return fmt.Errorf("error starting server on %s: %w", address, err)
	}

	s.listener = listener
	return nil
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until stopCh is closed. Each connection's
// transfer runs to completion before the next accept; a second client
// connecting while one is active waits in the kernel backlog.
func (s *Server) Serve(stopCh <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	defer s.listener.Close()

	go s.pumpInput()

	s.log.Info().Str("address", s.listener.Addr().String()).Msg("server listening")

	for {
		select {
		case <-stopCh:
			s.log.Info().Msg("shutting down and no longer accepting connections")
			return

		default:
			// timeout to avoid an infinite lock at Accept and be able to
			// handle the stop channel
			s.listener.(*net.TCPListener).SetDeadline(time.Now().Add(time.Second))

			conn, err := s.listener.Accept()
			if err != nil {
				if opErr, ok := err.(*net.OpError); ok && opErr.Timeout() {
					continue
				}
				s.log.Error().Err(err).Msg("error accepting connection")
				continue
			}

			s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")

			c := &client.Client{
				Conn:     conn,
				CancelCh: stopCh,
			}

			var connWg sync.WaitGroup
			connWg.Add(1)
			go transfer.Handle(&connWg, c, s.filePath, s.cfg.Stream.ChunkSize, s.linesCh)
			connWg.Wait()

			s.log.Info().Msg("client disconnected, waiting for next connection")
		}
	}
}

// pumpInput reads the input line by line, terminator included, and feeds the
// lines channel. The channel is closed at end of input; a final unterminated
// line is still delivered.
func (s *Server) pumpInput() {
	defer close(s.linesCh)

	reader := bufio.NewReader(s.input)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			s.linesCh <- line
		}
		if err != nil {
			if err != io.EOF {
				s.log.Error().Err(err).Msg("error reading input")
			}
			return
		}
	}
}
