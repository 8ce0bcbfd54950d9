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
	"io"
	"net"
	"sync"
	"testing"

	"go.uber.org/zap"

	"SagaCore/protocol"
)

// stubConn - Conn без мережі: читання чекає закриття, запис нічого не робить
type stubConn struct {
	port   int
	closed chan struct{}
	once   sync.Once
}

func newStubConn(port int) *stubConn {
	return &stubConn{port: port, closed: make(chan struct{})}
}

func (s *stubConn) ReadMessage() (protocol.Message, error) {
	<-s.closed
	return protocol.Message{}, io.EOF
}

func (s *stubConn) WriteMessage(...protocol.Message) error { return nil }

func (s *stubConn) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *stubConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: s.port}
}

func newStubClient(port, queue int) *Client {
	return New(zap.NewNop(), newStubConn(port), Options{QueueSize: queue})
}

func TestRegistry_Rekey(t *testing.T) {
	r := NewRegistry()
	c := newStubClient(5001, 0)
	if c.Key() != "127.0.0.1:5001" {
		t.Fatalf("key = %q", c.Key())
	}
	if err := r.Add(c.Key(), c); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(c.Key(), c); !errors.Is(err, ErrDuplicateSession) {
		t.Errorf("duplicate add: %v", err)
	}

	if err := c.SetID("p7"); err != nil {
		t.Fatal(err)
	}
	if err := c.SetID("p8"); !errors.Is(err, ErrAlreadyAssigned) {
		t.Errorf("second SetID: %v", err)
	}
	if err := r.Rekey(c.Key(), "p7"); err != nil {
		t.Fatal(err)
	}
	if got, ok := r.Get("p7"); !ok || got != c {
		t.Error("p7 not found after rekey")
	}
	if _, ok := r.Get(c.Key()); ok {
		t.Error("temp key still present")
	}

	if err := r.Rekey("127.0.0.1:9999", "p9"); !errors.Is(err, ErrNoSession) {
		t.Errorf("rekey of missing key: %v", err)
	}
	other := newStubClient(5002, 0)
	_ = r.Add(other.Key(), other)
	if err := r.Rekey(other.Key(), "p7"); !errors.Is(err, ErrDuplicateSession) {
		t.Errorf("rekey onto taken id: %v", err)
	}
	if _, ok := r.Get(other.Key()); !ok {
		t.Error("failed rekey dropped the temp entry")
	}
}

func TestRegistry_BroadcastOnlyAssigned(t *testing.T) {
	r := NewRegistry()
	assigned := newStubClient(5001, 0)
	pending := newStubClient(5002, 0)
	_ = assigned.SetID("p1")
	_ = r.Add("p1", assigned)
	_ = r.Add(pending.Key(), pending)

	m := protocol.ChatText(protocol.ServerID, "hi")
	r.Broadcast(m, m)
	if len(assigned.queue) != 2 || len(pending.queue) != 0 {
		t.Errorf("queues after broadcast: assigned=%d pending=%d", len(assigned.queue), len(pending.queue))
	}
	r.BroadcastExcept("p1", m)
	if len(assigned.queue) != 2 {
		t.Error("excluded client got the message")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	if err := r.SendTo("p2", m); !errors.Is(err, ErrNoSession) {
		t.Errorf("SendTo unknown: %v", err)
	}
	if err := r.SendTo("p1", m); err != nil || len(assigned.queue) != 3 {
		t.Errorf("SendTo: %v, queue %d", err, len(assigned.queue))
	}
}

func TestRegistry_KeysSorted(t *testing.T) {
	r := NewRegistry()
	for _, k := range []string{"p3", "p10", "p1", "127.0.0.1:4000"} {
		_ = r.Add(k, newStubClient(4000, 0))
	}
	keys := r.Keys()
	want := []string{"127.0.0.1:4000", "p1", "p10", "p3"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
	if _, ok := r.Remove("p10"); !ok || len(r.Keys()) != 3 {
		t.Error("remove failed")
	}
}
