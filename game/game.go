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

// Йоу, чат! Тут зібрано весь сервер докупи:
// TCP і WebSocket підключення, світ з тіком, список гравців, чат
// і HTTP з метриками. Game запускає все це в Start і гасить в Stop.

package game

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Tnze/go-mc/chat"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"SagaCore/client"
	"SagaCore/journal"
	"SagaCore/protocol"
	"SagaCore/world"
	"SagaCore/world/entity"
)

// writeTimeout - скільки може тривати один запис у сокет
const writeTimeout = 5 * time.Second

// ErrShutdownTimeout - Stop не дочекався завершення горутин
var ErrShutdownTimeout = errors.New("game: shutdown timed out")

type Game struct {
	log *zap.Logger

	config  Config
	metrics *world.Metrics
	world   *world.World
	journal *journal.Writer // nil якщо журнал вимкнено

	sessions   *client.Registry
	globalChat globalChat
	*playerList
	joinMu sync.Mutex // перевірка ліміту і вхід атомарні

	acceptLimiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	stopping   bool
	listener   net.Listener
	httpServer *http.Server
	httpAddr   net.Addr

	wg         sync.WaitGroup // тік, accept, http
	sessionsWG sync.WaitGroup
	kaCancel   context.CancelFunc
	kaDone     chan struct{}

	stopOnce sync.Once
	stopErr  error
}

// NewGame створює світ і все що йому потрібно. Нічого не запускає.
func NewGame(log *zap.Logger, config Config, tuning world.Tuning) (*Game, error) {
	metrics := new(world.Metrics)
	sessions := client.NewRegistry()

	worldConfig := world.Config{
		TickRate:       config.TickRate,
		BroadcastEvery: config.BroadcastEvery,
		PacketBudget:   config.PacketBudget,
		Tuning:         tuning,
		Metrics:        metrics,
	}
	var j *journal.Writer
	if config.JournalDir != "" {
		var err error
		if j, err = journal.NewWriter(log.Named("journal"), config.JournalDir); err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		worldConfig.Journal = j
	}

	w, err := world.New(log.Named("world"), world.DefaultLevel(), sessions, worldConfig)
	if err != nil {
		if j != nil {
			_ = j.Close()
		}
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Game{
		log: log.Named("game"),

		config:  config,
		metrics: metrics,
		world:   w,
		journal: j,

		sessions: sessions,
		globalChat: globalChat{
			log:      log.Named("chat"),
			sessions: sessions,
		},
		playerList: newPlayerList(config.MaxPlayers, config.KeepAlive),

		acceptLimiter: config.AcceptLimiter.Limiter(),

		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// World повертає ігровий світ
func (g *Game) World() *world.World { return g.world }

// Addr повертає адресу TCP сервера після Start
func (g *Game) Addr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listener == nil {
		return nil
	}
	return g.listener.Addr()
}

// HTTPAddr повертає адресу HTTP сервера після Start
func (g *Game) HTTPAddr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.httpAddr
}

// Start відкриває порти і запускає тік. Не блокує.
// Коли ctx закінчується, сервер починає зупинку, але чекати треба через Stop.
func (g *Game) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.ListenAddress)
	if err != nil {
		return err
	}
	var httpLn net.Listener
	if g.config.HTTPAddress != "" {
		if httpLn, err = net.Listen("tcp", g.config.HTTPAddress); err != nil {
			_ = ln.Close()
			return err
		}
	}

	g.mu.Lock()
	g.listener = ln
	g.mu.Unlock()
	context.AfterFunc(ctx, g.cancel)

	// keepAlive живе до кінця сесій: вони викликають ClientLeft при виході
	if g.keepAlive != nil {
		kaCtx, kaCancel := context.WithCancel(context.Background())
		g.kaCancel, g.kaDone = kaCancel, make(chan struct{})
		go func() {
			defer close(g.kaDone)
			g.keepAlive.Run(kaCtx)
		}()
	}

	g.wg.Add(2)
	go func() {
		defer g.wg.Done()
		g.world.Run(g.ctx)
	}()
	go func() {
		defer g.wg.Done()
		g.acceptLoop(ln)
	}()
	g.log.Info("Start listening", zap.Stringer("address", ln.Addr()))

	if httpLn != nil {
		srv := &http.Server{Handler: g.httpHandler(), ReadHeaderTimeout: 10 * time.Second}
		g.mu.Lock()
		g.httpServer, g.httpAddr = srv, httpLn.Addr()
		g.mu.Unlock()
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			if err := srv.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				g.log.Error("HTTP server error", zap.Error(err))
			}
		}()
		g.log.Info("Start HTTP", zap.Stringer("address", httpLn.Addr()))
	}
	return nil
}

// acceptLoop приймає TCP з'єднання
func (g *Game) acceptLoop(ln net.Listener) {
	for {
		if err := g.acceptLimiter.Wait(g.ctx); err != nil {
			return
		}
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || g.ctx.Err() != nil {
				return
			}
			g.log.Warn("Accept connection fail", zap.Error(err))
			continue
		}
		pc := protocol.NewConn(conn, g.config.MaxMessageSize)
		pc.SetWriteTimeout(writeTimeout)
		if !g.track() {
			_ = pc.Close()
			return
		}
		go func() {
			defer g.sessionsWG.Done()
			g.AcceptConn(pc)
		}()
	}
}

// track рахує нову сесію, якщо сервер ще не зупиняється
func (g *Game) track() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopping {
		return false
	}
	g.sessionsWG.Add(1)
	return true
}

// Йоу, чат! А тепер розберемо як гравець заходить на сервер!
// AcceptConn обслуговує одне з'єднання від початку до кінця.
// Поки клієнт не надіслав CONNECT, він лежить в реєстрі під "addr:port".
func (g *Game) AcceptConn(conn client.Conn) {
	// Логер з адресою і id з'єднання, щоб легше було дебажити
	logger := g.log.With(
		zap.String("addr", conn.RemoteAddr().String()),
		zap.String("conn", uuid.NewString()),
	)
	c := client.New(logger, conn, client.Options{
		QueueSize:    g.config.SendQueueSize,
		InputLimiter: g.config.InputLimiter.Limiter(),
		ChatLimiter:  g.config.ChatLimiter.Limiter(),
		Metrics:      g.metrics,
	})
	if err := g.sessions.Add(c.Key(), c); err != nil {
		logger.Warn("Reject connection", zap.Error(err))
		_ = conn.Close()
		return
	}
	g.metrics.Sessions.Add(1)
	defer g.metrics.Sessions.Add(-1)

	var name string // непорожнє після успішного CONNECT
	c.AddHandler(protocol.Connect, g.connectHandler(&name))
	c.AddHandler(protocol.Chat, g.globalChat.Handle)
	c.AddHandler(protocol.ChatMessage, g.globalChat.Handle)
	c.AddHandler(protocol.EnemyStateUpdate, g.enemyStateHandler)
	if g.keepAlive != nil {
		c.AddHandler(protocol.Ping, keepAliveHandler(g.keepAlive))
	}

	// Коли сервер зупиняється - прощаємось з клієнтом
	go func() {
		select {
		case <-g.ctx.Done():
			c.SendDisconnect(chat.TranslateMsg("multiplayer.disconnect.server_shutdown"))
		case <-c.Done():
		}
	}()

	logger.Debug("Connection open")
	// Запускаємо головний цикл обробки повідомлень
	c.Start()

	if _, ok := g.sessions.Remove(c.ID()); !ok {
		g.sessions.Remove(c.Key())
	}
	if name == "" {
		logger.Debug("Connection closed before join")
		return
	}
	id := c.ID()
	g.playerList.removePlayer(c)
	g.world.RemovePlayer(id)
	if m, err := protocol.PlayerEventMessage(protocol.PlayerLeft, id); err == nil {
		g.sessions.Broadcast(m)
	}
	g.globalChat.broadcastSystemChat(chat.TranslateMsg("multiplayer.player.left", chat.Text(name)).SetColor(chat.Yellow))
	logger.Info("Player left", zap.String("id", id))
}

// connectHandler обробляє CONNECT: видає id, додає гравця в світ
// і повідомляє всіх інших. name заповнюється тільки при успіху.
func (g *Game) connectHandler(name *string) client.PacketHandler {
	return func(m protocol.Message, c *client.Client) error {
		if c.ID() != "" {
			c.Logger().Debug("Repeated CONNECT")
			return nil
		}
		id := world.NewObjectID(entity.KindPlayer)
		info, err := client.ParseClientInfo(m, id)
		if err != nil {
			c.Logger().Debug("Bad CONNECT payload", zap.Error(err))
		}

		g.joinMu.Lock()
		defer g.joinMu.Unlock()
		if ok, reason := g.checkPlayer(id, info.Name); !ok {
			c.SendDisconnect(reason)
			return nil
		}
		// PLAYER_ASSIGN перший: поки id не призначено, розсилки клієнта оминають
		c.SendPlayerAssign(id)
		if err := c.SetID(id); err != nil {
			return err
		}
		if err := g.sessions.Rekey(c.Key(), id); err != nil {
			return err
		}
		g.playerList.addPlayer(c, info.Name)
		p, err := g.world.AddPlayer(c, info.Name)
		if err != nil {
			g.playerList.removePlayer(c)
			return err
		}
		c.SetPlayer(p)
		*name = info.Name

		if joined, err := protocol.PlayerEventMessage(protocol.PlayerJoined, id); err == nil {
			g.sessions.BroadcastExcept(id, joined)
		}
		g.globalChat.broadcastSystemChat(chat.TranslateMsg("multiplayer.player.joined", chat.Text(info.Name)).SetColor(chat.Yellow))
		c.Logger().Info("Player join", zap.String("id", id), zap.String("name", info.Name))
		return nil
	}
}

// enemyStateHandler передає у світ стан ворога від клієнта
func (g *Game) enemyStateHandler(m protocol.Message, c *client.Client) error {
	s, err := protocol.ParseEnemyState(m)
	if err != nil {
		c.Logger().Debug("Bad enemy state", zap.Error(err))
		return nil
	}
	if err := g.world.ApplyEnemyState(s); err != nil {
		c.Logger().Debug("Enemy state ignored", zap.Error(err))
	}
	return nil
}

// Stop зупиняє сервер і чекає всі горутини не довше за timeout.
// Повторні виклики повертають той самий результат.
func (g *Game) Stop(timeout time.Duration) error {
	g.stopOnce.Do(func() {
		g.stopErr = g.stop(timeout)
	})
	return g.stopErr
}

func (g *Game) stop(timeout time.Duration) error {
	g.log.Info("Server stopping")
	deadline := time.Now().Add(timeout)

	g.mu.Lock()
	g.stopping = true
	ln, srv := g.listener, g.httpServer
	g.mu.Unlock()

	g.cancel()
	if ln != nil {
		_ = ln.Close()
	}
	if srv != nil {
		ctx, cancel := context.WithDeadline(context.Background(), deadline)
		if err := srv.Shutdown(ctx); err != nil {
			g.log.Warn("HTTP shutdown", zap.Error(err))
		}
		cancel()
	}
	g.sessions.CloseAll(chat.TranslateMsg("multiplayer.disconnect.server_shutdown"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		g.wg.Wait()
		g.sessionsWG.Wait()
		if g.kaCancel != nil {
			g.kaCancel()
			<-g.kaDone
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Until(deadline)):
		g.log.Error("Shutdown timeout", zap.Duration("timeout", timeout), zap.Strings("sessions", g.sessions.Keys()))
		return ErrShutdownTimeout
	}

	if g.journal != nil {
		if err := g.journal.Close(); err != nil {
			g.log.Warn("Close journal", zap.Error(err))
		}
	}
	g.log.Info("Server stopped")
	return nil
}
