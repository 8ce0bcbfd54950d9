// This file is part of go-mc/server project.
// Copyright (C) 2023.  Tnze
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package client

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/Tnze/go-mc/chat"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"SagaCore/protocol"
	"SagaCore/world"
)

// Conn - транспорт одного клієнта: TCP з u32 префіксом або WebSocket
type Conn interface {
	ReadMessage() (protocol.Message, error)
	WriteMessage(msgs ...protocol.Message) error
	Close() error
	RemoteAddr() net.Addr
}

// DefaultQueueSize - скільки повідомлень може чекати на відправку
const DefaultQueueSize = 256

var (
	// ErrClientDisconnect - клієнт сам надіслав DISCONNECT
	ErrClientDisconnect = errors.New("client: disconnect requested")
	// ErrAlreadyAssigned - SetID викликано вдруге
	ErrAlreadyAssigned = errors.New("client: id already assigned")
)

// Client представляє підключеного гравця
// Він обробляє всі повідомлення від клієнта і відправляє повідомлення назад
type Client struct {
	log     *zap.Logger
	conn    Conn
	key     string // тимчасовий ключ "addr:port" до призначення id
	metrics *world.Metrics

	idMu sync.RWMutex
	id   string

	player atomic.Pointer[world.Player]

	// Обробники різних типів повідомлень
	handlers [protocol.TypeGuard]PacketHandler

	sendMu        sync.Mutex
	queue         chan protocol.Message
	closed        bool
	disconnecting bool

	stop      chan struct{}
	closeOnce sync.Once

	inputLimiter *rate.Limiter
	chatLimiter  *rate.Limiter
}

// PacketHandler - функція яка обробляє конкретний тип повідомлення.
// Помилка закриває з'єднання.
type PacketHandler func(m protocol.Message, c *Client) error

// Options - налаштування одного клієнта
type Options struct {
	QueueSize    int
	InputLimiter *rate.Limiter // nil - без обмежень
	ChatLimiter  *rate.Limiter
	Metrics      *world.Metrics
}

// New створює нового клієнта
func New(log *zap.Logger, conn Conn, opts Options) *Client {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Metrics == nil {
		opts.Metrics = new(world.Metrics)
	}
	key := conn.RemoteAddr().String()
	return &Client{
		log:          log,
		conn:         conn,
		key:          key,
		metrics:      opts.Metrics,
		handlers:     defaultHandlers,
		queue:        make(chan protocol.Message, opts.QueueSize),
		stop:         make(chan struct{}),
		inputLimiter: opts.InputLimiter,
		chatLimiter:  opts.ChatLimiter,
	}
}

// Start запускає обробку повідомлень
// Створює дві горутини - для відправки і отримання - і чекає обидві
func (c *Client) Start() {
	// Канал для синхронізації завершення горутин
	stopped := make(chan struct{}, 2)
	done := func() {
		stopped <- struct{}{}
	}
	// Якщо будь-яка з них впаде - інша теж зупиниться
	go c.startSend(done)
	go c.startReceive(done)
	<-stopped
	c.Close()
	<-stopped
}

// startSend відправляє повідомлення клієнту.
// Все, що накопичилось у черзі, йде одним записом.
func (c *Client) startSend(done func()) {
	defer done()
	batch := make([]protocol.Message, 0, cap(c.queue))
	for {
		var m protocol.Message
		select {
		case <-c.stop:
			return
		case m = <-c.queue:
		}
		batch = append(batch[:0], m)
	Drain:
		for len(batch) < cap(batch) {
			select {
			case m = <-c.queue:
				batch = append(batch, m)
			default:
				break Drain
			}
		}
		if err := c.conn.WriteMessage(batch...); err != nil {
			c.log.Debug("Send message fail", zap.Error(err))
			return
		}
		c.metrics.MessagesOut.Add(int64(len(batch)))
		// Якщо це DISCONNECT - виходимо
		for _, m := range batch {
			if m.Type == protocol.Disconnect {
				return
			}
		}
	}
}

// startReceive отримує повідомлення від клієнта
func (c *Client) startReceive(done func()) {
	defer done()
	for {
		m, err := c.conn.ReadMessage()
		if err != nil {
			if !protocol.IsFatal(err) {
				c.metrics.Malformed.Add(1)
				c.log.Debug("Drop malformed message", zap.Error(err))
				continue
			}
			c.log.Debug("Receive message fail", zap.Error(err))
			return
		}
		c.metrics.MessagesIn.Add(1)
		// Перевіряємо що тип повідомлення валідний
		if !m.Type.Valid() {
			c.log.Debug("Unknown message type", zap.Uint8("type", uint8(m.Type)), zap.Int("len", len(m.Data)))
			continue
		}
		if c.ID() == "" && !preAssign(m.Type) {
			c.log.Debug("Message before CONNECT", zap.Stringer("type", m.Type))
			continue
		}
		// Якщо є обробник для цього типу - викликаємо його
		if handler := c.handlers[m.Type]; handler != nil {
			if err := handler(m, c); err != nil {
				if errors.Is(err, ErrClientDisconnect) {
					c.log.Debug("Client disconnect")
				} else {
					c.log.Error("Handle message error", zap.Stringer("type", m.Type), zap.Error(err))
				}
				return
			}
		}
	}
}

// preAssign - типи, які приймаються до призначення id
func preAssign(t protocol.Type) bool {
	return t == protocol.Connect || t == protocol.Ping || t == protocol.Disconnect
}

// AddHandler додає новий обробник повідомлень
func (c *Client) AddHandler(t protocol.Type, handler PacketHandler) {
	c.handlers[t] = handler
}

// Send ставить повідомлення в чергу одним пакетом.
// Якщо вони не влазять, клієнт не встигає читати і його відключено.
func (c *Client) Send(msgs ...protocol.Message) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed || c.disconnecting {
		return
	}
	if cap(c.queue)-len(c.queue) < len(msgs) {
		c.metrics.SlowConsumers.Add(1)
		c.log.Warn("Slow consumer", zap.Int("queued", len(c.queue)), zap.Int("batch", len(msgs)))
		c.closed = true
		c.shutdown()
		return
	}
	for _, m := range msgs {
		c.queue <- m
	}
}

// SendDisconnect ставить DISCONNECT останнім повідомленням.
// Після його відправки з'єднання закривається.
func (c *Client) SendDisconnect(reason chat.Message) {
	c.log.Debug("Disconnect player", zap.String("reason", reason.ClearString()))
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed || c.disconnecting {
		return
	}
	c.disconnecting = true
	select {
	case c.queue <- protocol.DisconnectMessage(reason.ClearString()):
	default:
		c.closed = true
		c.shutdown()
	}
}

// SendKeepAlive відправляє PING запит з токеном id
func (c *Client) SendKeepAlive(id int64) {
	m, err := protocol.PingMessage(protocol.ServerID, protocol.PingRequest, id)
	if err != nil {
		c.log.Error("Marshal keep-alive", zap.Error(err))
		return
	}
	c.Send(m)
}

// Close закриває з'єднання. Можна викликати скільки завгодно разів.
func (c *Client) Close() {
	c.sendMu.Lock()
	c.closed = true
	c.sendMu.Unlock()
	c.shutdown()
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.stop)
		_ = c.conn.Close()
	})
}

// Done закривається коли клієнт зупиняється
func (c *Client) Done() <-chan struct{} { return c.stop }

// Key - тимчасовий ключ реєстру ("addr:port")
func (c *Client) Key() string { return c.key }

// ID - призначений id гравця або "" до CONNECT
func (c *Client) ID() string {
	c.idMu.RLock()
	defer c.idMu.RUnlock()
	return c.id
}

// SetID призначає id гравця. Вдруге повертає ErrAlreadyAssigned.
func (c *Client) SetID(id string) error {
	c.idMu.Lock()
	defer c.idMu.Unlock()
	if c.id != "" {
		return ErrAlreadyAssigned
	}
	c.id = id
	return nil
}

// SetPlayer прив'язує гравця світу, в якого пишуться інпути
func (c *Client) SetPlayer(p *world.Player) { c.player.Store(p) }

// GetPlayer повертає гравця світу або nil
func (c *Client) GetPlayer() *world.Player { return c.player.Load() }

// Logger повертає логер цього з'єднання
func (c *Client) Logger() *zap.Logger { return c.log }

// AllowChat перевіряє ліміт чату
func (c *Client) AllowChat() bool {
	if c.chatLimiter == nil || c.chatLimiter.Allow() {
		return true
	}
	c.metrics.RateLimited.Add(1)
	return false
}

func (c *Client) allowInput() bool {
	if c.inputLimiter == nil || c.inputLimiter.Allow() {
		return true
	}
	c.metrics.RateLimited.Add(1)
	return false
}

// defaultHandlers - стандартні обробники повідомлень.
// CONNECT, CHAT і ENEMY_STATE_UPDATE додає game через AddHandler.
var defaultHandlers = [protocol.TypeGuard]PacketHandler{
	// Кнопки гравця
	protocol.PlayerInput: clientInput,
	// Старі клієнти шлють кнопки як PLAYER_ACTION
	protocol.PlayerAction: clientInput,
	// Позиція, яку порахував клієнт
	protocol.PlayerPosition: clientPosition,
	// Пінг
	protocol.Ping: EchoPing,
	// Вихід
	protocol.Disconnect: clientDisconnect,
}
