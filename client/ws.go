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
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"SagaCore/protocol"
)

// Upgrader для /ws. Перевірку Origin робить проксі перед сервером.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSConn - Conn поверх WebSocket. Одне бінарне WS повідомлення -
// одне тіло повідомлення протоколу, без u32 префікса.
type WSConn struct {
	ws      *websocket.Conn
	maxBody int

	wmu    sync.Mutex
	wbuf   []byte
	wdelay time.Duration
}

// NewWSConn обгортає вже прийняте WebSocket з'єднання
func NewWSConn(ws *websocket.Conn, maxBody int) *WSConn {
	if maxBody <= 0 {
		maxBody = protocol.DefaultMaxBodySize
	}
	ws.SetReadLimit(int64(maxBody))
	return &WSConn{ws: ws, maxBody: maxBody}
}

// SetWriteTimeout задає дедлайн на кожен запис. 0 вимикає дедлайн.
func (c *WSConn) SetWriteTimeout(d time.Duration) { c.wdelay = d }

// ReadMessage читає одне повідомлення
func (c *WSConn) ReadMessage() (protocol.Message, error) {
	mt, data, err := c.ws.ReadMessage()
	if err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			return protocol.Message{}, fmt.Errorf("%w: over %d", protocol.ErrMessageTooLarge, c.maxBody)
		}
		return protocol.Message{}, err
	}
	if mt != websocket.BinaryMessage {
		return protocol.Message{}, fmt.Errorf("%w: websocket message type %d", protocol.ErrMalformed, mt)
	}
	return protocol.DecodeBody(data)
}

// WriteMessage пише кожне повідомлення окремим бінарним WS повідомленням
func (c *WSConn) WriteMessage(msgs ...protocol.Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.wdelay > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.wdelay)); err != nil {
			return err
		}
	}
	for _, m := range msgs {
		var err error
		if c.wbuf, err = protocol.AppendBody(c.wbuf[:0], m); err != nil {
			return err
		}
		if err := c.ws.WriteMessage(websocket.BinaryMessage, c.wbuf); err != nil {
			return err
		}
	}
	return nil
}

// Close закриває з'єднання
func (c *WSConn) Close() error { return c.ws.Close() }

// RemoteAddr повертає адресу клієнта
func (c *WSConn) RemoteAddr() net.Addr { return c.ws.RemoteAddr() }
