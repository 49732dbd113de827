package api

import (
	"encoding/json"
	"errors"
	"sync"
	"syscall"

	"github.com/gofiber/contrib/websocket"

	customlog "github.com/open-teleop/auvnav/pkg/log"
)

// KeysWebSocketHandler relays operator keys to remote. Only one operator is
// served at a time; a second connection is closed immediately.
func KeysWebSocketHandler(remote *RemoteConsole, logger customlog.Logger) func(*websocket.Conn) {
	var (
		mu     sync.Mutex
		active bool
	)

	return func(conn *websocket.Conn) {
		mu.Lock()
		if active {
			mu.Unlock()
			logger.Warnf("Rejecting second keys WebSocket from %s", conn.RemoteAddr())
			_ = conn.WriteJSON(ServerMessage{Type: MsgOutput, Text: "another operator is connected"})
			return
		}
		active = true
		mu.Unlock()
		defer func() {
			mu.Lock()
			active = false
			mu.Unlock()
		}()

		logger.Infof("Keys WebSocket connected: %s", conn.RemoteAddr())

		stop := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case msg := <-remote.Outbound():
					if err := conn.WriteJSON(msg); err != nil {
						logger.Debugf("Keys WS write failed: %v", err)
						return
					}
				case <-stop:
					return
				case <-remote.Done():
					return
				}
			}
		}()

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				logClose(logger, err)
				break
			}
			if mt != websocket.TextMessage {
				logger.Infof("Ignoring non-text keys WS message type: %d", mt)
				continue
			}

			var msg ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				logger.Warnf("Failed to unmarshal keys WS message: %v. Message: %s", err, string(data))
				continue
			}
			if err := remote.Push(msg); err != nil {
				logger.Warnf("Dropped keys WS message %+v: %v", msg, err)
			}
		}

		close(stop)
		wg.Wait()
		logger.Infof("Keys WebSocket disconnected: %s", conn.RemoteAddr())
	}
}

func logClose(logger customlog.Logger, err error) {
	switch {
	case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure):
		logger.Errorf("Keys WS read error: %v", err)
	case errors.Is(err, syscall.EPIPE), errors.Is(err, syscall.ECONNRESET):
		logger.Infof("Keys WS connection reset")
	default:
		logger.Infof("Keys WS connection closed: %v", err)
	}
}
