// bot - безголовий клієнт для перевірки сервера.
// Підключається по TCP або WebSocket, тисне випадкові кнопки
// і збирає стан світу так само, як справжній клієнт.
package main

import (
	"context"
	"flag"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"SagaCore/client"
	"SagaCore/protocol"
)

var (
	addr     = flag.String("addr", "127.0.0.1:8282", "TCP address of the server")
	wsURL    = flag.String("ws", "", "WebSocket URL, e.g. ws://127.0.0.1:8080/ws (overrides -addr)")
	name     = flag.String("name", "bot", "Player name sent in CONNECT")
	duration = flag.Duration("duration", 30*time.Second, "How long to play, 0 - until interrupted")
	isDebug  = flag.Bool("debug", false, "Enable debug log output")
)

type conn interface {
	ReadMessage() (protocol.Message, error)
	WriteMessage(msgs ...protocol.Message) error
	Close() error
}

func main() {
	flag.Parse()
	var logger *zap.Logger
	if *isDebug {
		logger = unwrap(zap.NewDevelopment())
	} else {
		logger = unwrap(zap.NewProduction())
	}
	defer func() { _ = logger.Sync() }()

	c, err := dial()
	if err != nil {
		logger.Fatal("Connect fail", zap.Error(err))
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	hello, err := protocol.ConnectMessage(*name)
	if err != nil {
		logger.Fatal("Bad name", zap.Error(err))
	}
	if err := c.WriteMessage(hello); err != nil {
		logger.Fatal("Send CONNECT fail", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		receive(logger, c)
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	var n int64
	for {
		select {
		case <-ctx.Done():
			_ = c.WriteMessage(protocol.Message{Type: protocol.Disconnect})
			<-done
			return
		case <-done:
			return
		case <-ticker.C:
			n++
			msgs := []protocol.Message{{Type: protocol.PlayerInput, Data: []byte{randomButtons()}}}
			if n%20 == 0 {
				ping, _ := protocol.PingMessage("", protocol.PingRequest, time.Now().UnixNano())
				msgs = append(msgs, ping)
			}
			if err := c.WriteMessage(msgs...); err != nil {
				logger.Error("Send fail", zap.Error(err))
				return
			}
		}
	}
}

func dial() (conn, error) {
	if *wsURL != "" {
		ws, _, err := websocket.DefaultDialer.Dial(*wsURL, nil)
		if err != nil {
			return nil, err
		}
		return client.NewWSConn(ws, 1<<20), nil
	}
	nc, err := net.Dial("tcp", *addr)
	if err != nil {
		return nil, err
	}
	return protocol.NewConn(nc, 1<<20), nil
}

// receive читає все від сервера, поки з'єднання живе
func receive(logger *zap.Logger, c conn) {
	var (
		r       protocol.Reassembler
		id      string
		objects = make(map[string]int)
		joined  bool // ще чекаємо перший стан після PLAYER_ASSIGN
	)
	for {
		m, err := c.ReadMessage()
		if err != nil {
			if !protocol.IsFatal(err) {
				logger.Warn("Malformed message", zap.Error(err))
				continue
			}
			logger.Info("Connection closed", zap.Error(err))
			return
		}
		switch m.Type {
		case protocol.PlayerAssign:
			id, _ = protocol.ParsePlayerAssign(m)
			joined = true
			logger.Info("Assigned", zap.String("id", id))
		case protocol.GameState, protocol.GameStateDelta, protocol.GameStatePart:
			u, ok, err := r.Push(m)
			if err != nil {
				logger.Warn("Drop state update", zap.Error(err))
				continue
			}
			if !ok {
				continue
			}
			// повний стан великого світу приходить частинами без прапорця
			if u.Full || joined {
				u.Full, joined = true, false
				clear(objects)
			}
			for _, o := range u.Objects {
				objects[o.ID]++
			}
			logger.Debug("State", zap.Bool("full", u.Full), zap.Int("changed", len(u.Objects)), zap.Int("known", len(objects)))
		case protocol.ObjectsRemoved:
			ids, _ := protocol.ParseObjectsRemoved(m)
			for _, id := range ids {
				delete(objects, id)
			}
		case protocol.Ping:
			kind, token, err := protocol.ParsePing(m)
			if err != nil {
				continue
			}
			if kind == protocol.PingRequest {
				reply, _ := protocol.PingMessage(id, protocol.PingReply, token)
				_ = c.WriteMessage(reply)
			} else {
				logger.Info("Ping", zap.Duration("rtt", time.Duration(time.Now().UnixNano()-token)))
			}
		case protocol.Chat:
			logger.Info("Chat", zap.String("from", m.Sender), zap.ByteString("text", m.Data))
		case protocol.PlayerJoined, protocol.PlayerLeft:
			logger.Info(m.Type.String(), zap.String("player", m.Sender))
		case protocol.Disconnect:
			logger.Info("Disconnected", zap.ByteString("reason", m.Data))
			return
		}
	}
}

func randomButtons() byte {
	buttons := []byte{0, protocol.InputLeft, protocol.InputRight, protocol.InputUp, protocol.InputDown, protocol.InputLeft | protocol.InputUp, protocol.InputAttack}
	return buttons[rand.Intn(len(buttons))]
}

func unwrap[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
