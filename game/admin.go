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

package game

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"SagaCore/client"
)

// httpHandler - всі HTTP ручки сервера
func (g *Game) httpHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.handleWS)
	mux.HandleFunc("/metrics", g.handleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// handleWS приймає WebSocket клієнта. Далі він живе так само, як TCP.
func (g *Game) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := client.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Debug("WebSocket upgrade fail", zap.Error(err))
		return
	}
	conn := client.NewWSConn(ws, g.config.MaxMessageSize)
	conn.SetWriteTimeout(writeTimeout)
	if !g.track() {
		_ = conn.Close()
		return
	}
	defer g.sessionsWG.Done()
	g.AcceptConn(conn)
}

// handleMetrics віддає лічильники і список гравців
// GET /metrics
func (g *Game) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	payload := map[string]any{
		"players":  g.samples(),
		"sessions": g.sessions.Keys(),
		"objects":  len(g.world.Objects()),
		"metrics":  g.metrics.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
