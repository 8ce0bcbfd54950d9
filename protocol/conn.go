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

package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// Conn - обгортка над потоковим з'єднанням, яка читає і пише
// повідомлення з u32 префіксом розміру.
// ReadMessage викликається з однієї горутини, WriteMessage - з іншої.
type Conn struct {
	conn    net.Conn
	r       *bufio.Reader
	maxBody int

	wmu    sync.Mutex
	w      *bufio.Writer
	wbuf   []byte
	wdelay time.Duration
}

// NewConn створює Conn. maxBody обмежує розмір вхідних тіл,
// непозитивне значення означає DefaultMaxBodySize.
func NewConn(conn net.Conn, maxBody int) *Conn {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}
	return &Conn{
		conn:    conn,
		r:       bufio.NewReader(conn),
		w:       bufio.NewWriter(conn),
		maxBody: maxBody,
	}
}

// SetWriteTimeout задає дедлайн на кожен запис. 0 вимикає дедлайн.
func (c *Conn) SetWriteTimeout(d time.Duration) { c.wdelay = d }

// ReadMessage читає одне повідомлення.
// ErrMessageTooLarge і обірване тіло - фатальні для з'єднання;
// ErrMalformed означає що тіло пропущене і можна читати далі.
func (c *Conn) ReadMessage() (Message, error) {
	var size [4]byte
	if _, err := io.ReadFull(c.r, size[:]); err != nil {
		return Message{}, err
	}
	bodySize := binary.BigEndian.Uint32(size[:])
	if uint64(bodySize) > uint64(c.maxBody) {
		return Message{}, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, bodySize, c.maxBody)
	}
	body := make([]byte, bodySize)
	if _, err := io.ReadFull(c.r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Message{}, err
	}
	return DecodeBody(body)
}

// WriteMessage записує всі повідомлення підряд і робить один flush.
// Частини одного оновлення стану завжди йдуть одним викликом.
func (c *Conn) WriteMessage(msgs ...Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.wdelay > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.wdelay)); err != nil {
			return err
		}
	}
	for _, m := range msgs {
		var err error
		c.wbuf, err = AppendFrame(c.wbuf[:0], m)
		if err != nil {
			return err
		}
		if _, err := c.w.Write(c.wbuf); err != nil {
			return err
		}
	}
	return c.w.Flush()
}

// Close закриває з'єднання
func (c *Conn) Close() error { return c.conn.Close() }

// RemoteAddr повертає адресу клієнта
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// IsFatal reports whether err from ReadMessage leaves the stream unusable.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrMalformed)
}
