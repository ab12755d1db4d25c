package transport

import (
	"errors"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/thesyncim/gocelt"
	log "github.com/thesyncim/gocelt/internal/logger"
	"github.com/thesyncim/gocelt/internal/metrics"
)

var writeTimeout = 5 * time.Second

var errTextMessage = errors.New("transport: chunks must be binary messages")

// maxCloseReason is the longest reason that fits a close frame.
const maxCloseReason = 123

type messageWriter interface {
	SetWriteDeadline(time.Time) error
	WriteMessage(messageType int, data []byte) error
}

func writeMessage(mu *sync.Mutex, conn messageWriter, messageType int, data []byte) error {
	mu.Lock()
	defer mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(messageType, data)
}

// truncateReason shortens reason to fit a close frame without splitting a
// UTF-8 sequence.
func truncateReason(reason string) string {
	if len(reason) <= maxCloseReason {
		return reason
	}
	cut := maxCloseReason
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}

func sendClose(mu *sync.Mutex, conn messageWriter, code int, reason string) {
	reason = truncateReason(reason)
	if err := writeMessage(mu, conn, websocket.CloseMessage, websocket.FormatCloseMessage(code, reason)); err != nil {
		log.Debug("Error sending close frame", "err", err)
	}
}

// closeCode maps a stream fault to a close code: bad client data is
// 1007, anything else 1011.
func closeCode(err error) int {
	if errors.Is(err, gocelt.ErrSize) || errors.Is(err, gocelt.ErrDecode) {
		return websocket.CloseInvalidFramePayloadData
	}
	return websocket.CloseInternalServerErr
}

// wsSource reads one chunk per binary message. A close frame from the
// client ends the stream.
type wsSource struct {
	conn    *websocket.Conn
	lastLen int // length of the last chunk read
}

func (s *wsSource) NextChunk() ([]byte, error) {
	mt, data, err := s.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		return nil, err
	}
	if mt != websocket.BinaryMessage {
		return nil, errTextMessage
	}
	s.lastLen = len(data)
	return data, nil
}

// wsSink writes one binary message per chunk. It only sees chunks the
// stream transformed successfully, so it records the codec metrics.
type wsSink struct {
	conn *websocket.Conn
	mu   *sync.Mutex
	kind string
	src  *wsSource
}

func (s *wsSink) WriteChunk(chunk []byte) error {
	if s.kind == KindDecode {
		metrics.RecordDecoded(s.src.lastLen)
	}
	if err := writeMessage(s.mu, s.conn, websocket.BinaryMessage, chunk); err != nil {
		return err
	}
	if s.kind == KindEncode {
		metrics.RecordEncoded(len(chunk))
	}
	return nil
}

// setupPingPong keeps the read deadline alive while pongs arrive and pings
// the client every interval. The returned func stops the pinger.
func setupPingPong(conn *websocket.Conn, mu *sync.Mutex, pingInterval, pongWait time.Duration) func() {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ticker := time.NewTicker(pingInterval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				mu.Lock()
				err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
				mu.Unlock()
				if err != nil {
					log.Debug("Error sending ping", "err", err)
					return
				}
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
