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
	"net"
	"testing"
	"time"

	"github.com/Tnze/go-mc/chat"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"SagaCore/protocol"
	"SagaCore/world"
	"SagaCore/world/entity"
)

func TestSend_SlowConsumerDisconnects(t *testing.T) {
	c := newStubClient(5001, 2)
	m := protocol.ChatText(protocol.ServerID, "x")

	c.Send(m, m)
	if len(c.queue) != 2 {
		t.Fatalf("queue = %d", len(c.queue))
	}
	c.Send(m)
	select {
	case <-c.Done():
	default:
		t.Fatal("client still open after overflow")
	}
	if c.metrics.SlowConsumers.Load() != 1 {
		t.Error("slow consumer not counted")
	}
	c.Send(m)
	if len(c.queue) != 2 {
		t.Error("send after close was queued")
	}
}

func TestSend_BatchIsAtomic(t *testing.T) {
	c := newStubClient(5001, 3)
	m := protocol.ChatText(protocol.ServerID, "x")
	c.Send(m, m)
	// два не влазять в одне вільне місце: нічого не додається
	c.Send(m, m)
	if len(c.queue) != 2 {
		t.Errorf("partial batch queued: %d", len(c.queue))
	}
}

func TestSendDisconnect_IsLast(t *testing.T) {
	c := newStubClient(5001, 4)
	c.SendDisconnect(chat.Text("bye"))
	c.Send(protocol.ChatText(protocol.ServerID, "late"))
	if len(c.queue) != 1 {
		t.Fatalf("queue = %d", len(c.queue))
	}
	m := <-c.queue
	if m.Type != protocol.Disconnect || string(m.Data) != "bye" {
		t.Errorf("got %v %q", m.Type, m.Data)
	}
}

// pipeClient запускає клієнта на одному кінці net.Pipe
func pipeClient(t *testing.T, opts Options) (*Client, *protocol.Conn, net.Conn, <-chan struct{}) {
	t.Helper()
	a, b := net.Pipe()
	c := New(zap.NewNop(), protocol.NewConn(a, 0), opts)
	done := make(chan struct{})
	go func() {
		c.Start()
		close(done)
	}()
	t.Cleanup(func() {
		c.Close()
		_ = b.Close()
	})
	return c, protocol.NewConn(b, 0), b, done
}

// write повертається, коли клієнт уже прочитав усі байти
func write(t *testing.T, peer *protocol.Conn, msgs ...protocol.Message) {
	t.Helper()
	if err := peer.WriteMessage(msgs...); err != nil {
		t.Fatal(err)
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop")
	}
}

// roundTrip шле PING і чекає відповідь. Обробники виконуються по черзі,
// тож після відповіді все, що було надіслано раніше, вже оброблено.
func roundTrip(t *testing.T, peer *protocol.Conn, token int64) {
	t.Helper()
	ping, _ := protocol.PingMessage("", protocol.PingRequest, token)
	write(t, peer, ping)
	m, err := peer.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	kind, got, err := protocol.ParsePing(m)
	if err != nil || m.Type != protocol.Ping || kind != protocol.PingReply || got != token {
		t.Fatalf("ping reply: %v kind=%d token=%d err=%v", m.Type, kind, got, err)
	}
}

func TestClient_PingThenDisconnect(t *testing.T) {
	_, peer, _, done := pipeClient(t, Options{})
	roundTrip(t, peer, 42)
	write(t, peer, protocol.Message{Type: protocol.Disconnect})
	waitDone(t, done)
}

func TestClient_ServerDisconnect(t *testing.T) {
	c, peer, _, done := pipeClient(t, Options{})
	c.SendDisconnect(chat.Text("server closed"))
	m, err := peer.ReadMessage()
	if err != nil || m.Type != protocol.Disconnect || string(m.Data) != "server closed" {
		t.Fatalf("got %v %q %v", m.Type, m.Data, err)
	}
	waitDone(t, done)
}

func TestClient_InputHandling(t *testing.T) {
	c, peer, _, _ := pipeClient(t, Options{InputLimiter: rate.NewLimiter(0, 1)})
	p := &world.Player{Object: &entity.Object{ID: "p1", Kind: entity.KindPlayer}}

	// до CONNECT ввід ігнорується
	c.SetPlayer(p)
	write(t, peer, protocol.Message{Type: protocol.PlayerInput, Data: []byte{protocol.InputLeft}})
	roundTrip(t, peer, 1)
	p.Inputs.Lock()
	if p.Inputs.Buttons != 0 {
		t.Error("input accepted before assignment")
	}
	p.Inputs.Unlock()

	_ = c.SetID("p1")
	write(t, peer,
		protocol.Message{Type: protocol.PlayerInput, Data: []byte{protocol.InputRight}},
		protocol.Message{Type: protocol.PlayerInput, Data: []byte{protocol.InputLeft}},
	)
	roundTrip(t, peer, 2)
	p.Inputs.Lock()
	buttons := p.Inputs.Buttons
	p.Inputs.Unlock()
	if buttons != protocol.InputRight {
		t.Errorf("buttons = %#x, want right only", buttons)
	}
	if c.metrics.RateLimited.Load() != 1 {
		t.Errorf("rate limited = %d", c.metrics.RateLimited.Load())
	}
}

func TestClient_MalformedIsSkipped(t *testing.T) {
	c, peer, raw, _ := pipeClient(t, Options{})
	if _, err := raw.Write([]byte{0, 0, 0, 3, byte(protocol.Chat), 9, 'x'}); err != nil {
		t.Fatal(err)
	}
	roundTrip(t, peer, 3)
	if c.metrics.Malformed.Load() != 1 {
		t.Errorf("malformed = %d", c.metrics.Malformed.Load())
	}
}

func TestClient_TooLargeCloses(t *testing.T) {
	_, _, raw, done := pipeClient(t, Options{})
	if _, err := raw.Write([]byte{0, 1, 0, 0}); err != nil {
		t.Fatal(err)
	}
	waitDone(t, done)
}

func TestParseClientInfo(t *testing.T) {
	for name, tc := range map[string]struct{ in, want string }{
		"plain":   {"alice", "alice"},
		"trimmed": {"  bob ", "bob"},
		"empty":   {"", "p1"},
		"control": {"a\x01b", "p1"},
		"long":    {"abcdefghijklmnopqrstuvwxyz0123456789", "p1"},
	} {
		m, _ := protocol.ConnectMessage(tc.in)
		info, err := ParseClientInfo(m, "p1")
		if err != nil || info.Name != tc.want {
			t.Errorf("%s: got %q, %v", name, info.Name, err)
		}
	}
}
