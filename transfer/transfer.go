package transfer

import (
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"go-streamfeed-server/client"
	"go-streamfeed-server/logger"
)

// Handle runs the per-connection transfer: it streams the file at filePath
// to the client in chunks, then forwards lines received on linesCh until the
// channel closes, a write fails, or the client is cancelled. The connection
// is closed on return.
func Handle(wg *sync.WaitGroup, c *client.Client, filePath string, chunkSize int, linesCh <-chan []byte) {
	defer wg.Done()
	defer c.Conn.Close()

	log := logger.WithComponent("transfer")

	if err := sendFile(c, filePath, chunkSize, log); err != nil {
		return
	}

	var forwardWg sync.WaitGroup
	forwardWg.Add(1)
	go forwardLines(&forwardWg, c, linesCh, log)
	forwardWg.Wait()
}

func sendFile(c *client.Client, filePath string, chunkSize int, log zerolog.Logger) error {
	fileSender := NewFileSender(chunkSize)

	err := fileSender.Open(filePath)
	if err != nil {
		log.Error().Err(err).Str("file", filePath).Msg("cannot open file, closing connection")
		return err
	}
	defer fileSender.Close()

	for {
		select {
		case <-c.CancelCh:
			log.Info().Str("file", fileSender.Filename()).Msg("shutting down, aborting file send")
			return errors.New("file send cancelled")

		default:
			chunk, err := fileSender.NextChunk()
			if err != nil {
				if errors.Is(err, io.EOF) {
					log.Info().Str("file", fileSender.Filename()).Msg("file sent")
					return nil
				}
				log.Error().Err(err).Str("file", fileSender.Filename()).Msg("error reading file")
				return err
			}

			if _, err := c.Conn.Write(chunk); err != nil {
				log.Error().Err(err).Str("file", fileSender.Filename()).Msg("error sending file chunk")
				return err
			}
		}
	}
}

func forwardLines(wg *sync.WaitGroup, c *client.Client, linesCh <-chan []byte, log zerolog.Logger) {
	defer wg.Done()

	for {
		select {
		case <-c.CancelCh:
			log.Info().Msg("shutting down, closing connection")
			return

		case line, ok := <-linesCh:
			if !ok {
				log.Info().Msg("input closed, closing connection")
				return
			}
			if _, err := c.Conn.Write(line); err != nil {
				log.Error().Err(err).Msg("error forwarding input line")
				return
			}
		}
	}
}
