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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"SagaCore/protocol"
)

// wsPair піднімає /ws і повертає серверний WSConn та клієнтське з'єднання
func wsPair(t *testing.T, maxBody int) (*WSConn, *websocket.Conn) {
	t.Helper()
	accepted := make(chan *WSConn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		accepted <- NewWSConn(ws, maxBody)
	}))
	t.Cleanup(srv.Close)

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = peer.Close() })

	select {
	case c := <-accepted:
		t.Cleanup(func() { _ = c.Close() })
		return c, peer
	case <-time.After(2 * time.Second):
		t.Fatal("upgrade did not happen")
		return nil, nil
	}
}

func writeBody(t *testing.T, peer *websocket.Conn, m protocol.Message) {
	t.Helper()
	body, err := protocol.AppendBody(nil, m)
	if err != nil {
		t.Fatal(err)
	}
	if err := peer.WriteMessage(websocket.BinaryMessage, body); err != nil {
		t.Fatal(err)
	}
}

func TestWSConn_OneBodyPerMessage(t *testing.T) {
	c, peer := wsPair(t, 0)

	first := protocol.ChatText("p1", "hello")
	second := protocol.Message{Type: protocol.PlayerLeft, Sender: "p2"}
	if err := c.WriteMessage(first, second); err != nil {
		t.Fatal(err)
	}
	for _, want := range []protocol.Message{first, second} {
		mt, data, err := peer.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		if mt != websocket.BinaryMessage {
			t.Fatalf("frame type %d, want binary", mt)
		}
		got, err := protocol.DecodeBody(data)
		if err != nil {
			t.Fatal(err)
		}
		if got.Type != want.Type || got.Sender != want.Sender || string(got.Data) != string(want.Data) {
			t.Errorf("got %v/%q/%q, want %v/%q/%q", got.Type, got.Sender, got.Data, want.Type, want.Sender, want.Data)
		}
	}

	writeBody(t, peer, protocol.ChatText("p3", "hi"))
	m, err := c.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if m.Type != protocol.Chat || m.Sender != "p3" || string(m.Data) != "hi" {
		t.Errorf("read %v %q %q", m.Type, m.Sender, m.Data)
	}
}

func TestWSConn_TextFrameIsMalformed(t *testing.T) {
	c, peer := wsPair(t, 0)
	if err := peer.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	_, err := c.ReadMessage()
	if !errors.Is(err, protocol.ErrMalformed) || protocol.IsFatal(err) {
		t.Fatalf("text frame: %v", err)
	}

	// з'єднання живе далі
	writeBody(t, peer, protocol.Message{Type: protocol.Disconnect})
	if m, err := c.ReadMessage(); err != nil || m.Type != protocol.Disconnect {
		t.Errorf("after text frame: %v %v", m.Type, err)
	}
}

func TestWSConn_ReadLimit(t *testing.T) {
	c, peer := wsPair(t, 16)
	if err := peer.WriteMessage(websocket.BinaryMessage, make([]byte, 64)); err != nil {
		t.Fatal(err)
	}
	_, err := c.ReadMessage()
	if !errors.Is(err, protocol.ErrMessageTooLarge) || !protocol.IsFatal(err) {
		t.Fatalf("oversized frame: %v", err)
	}
}

func TestClient_OverWebSocket(t *testing.T) {
	conn, peer := wsPair(t, 64)
	c := New(zap.NewNop(), conn, Options{})
	done := make(chan struct{})
	go func() {
		c.Start()
		close(done)
	}()
	t.Cleanup(c.Close)

	if err := peer.WriteMessage(websocket.TextMessage, []byte("{}")); err != nil {
		t.Fatal(err)
	}
	ping, _ := protocol.PingMessage("", protocol.PingRequest, 7)
	writeBody(t, peer, ping)
	_ = peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := peer.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	reply, err := protocol.DecodeBody(data)
	if err != nil {
		t.Fatal(err)
	}
	if kind, token, err := protocol.ParsePing(reply); err != nil || kind != protocol.PingReply || token != 7 {
		t.Fatalf("ping reply: kind=%d token=%d err=%v", kind, token, err)
	}
	if c.metrics.Malformed.Load() != 1 {
		t.Errorf("malformed = %d", c.metrics.Malformed.Load())
	}

	// занадто велике повідомлення закриває сесію
	if err := peer.WriteMessage(websocket.BinaryMessage, make([]byte, 128)); err != nil {
		t.Fatal(err)
	}
	waitDone(t, done)
}
