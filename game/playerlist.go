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

// Йоу, чат! Зараз розберемо як працює список гравців на сервері!
// Це важлива частина серверу, яка відповідає за:
// - Ліміт гравців (хто не влазить - отримує "сервер повний")
// - Перевірку з'єднання (пінг)
// - Список гравців для /metrics

package game

import (
	"time"

	"github.com/Tnze/go-mc/chat"
	"github.com/Tnze/go-mc/server"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"SagaCore/client"
	"SagaCore/protocol"
)

// playerNamespace - простір імен для UUID гравців.
// Один і той самий id гравця завжди дає той самий UUID.
var playerNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("sagacore:player"))

// playerList керує списком гравців на сервері
type playerList struct {
	// keepAlive перевіряє чи гравці ще підключені. nil - вимкнено
	keepAlive *server.KeepAlive
	// pingList зберігає список всіх гравців і ліміт
	pingList *server.PlayerList
}

func newPlayerList(maxPlayers int, keepAlive bool) *playerList {
	pl := &playerList{pingList: server.NewPlayerList(maxPlayers)}
	if keepAlive {
		pl.keepAlive = server.NewKeepAlive()
		pl.keepAlive.AddPlayerDelayUpdateHandler(func(c server.KeepAliveClient, latency time.Duration) {
			pl.updateLatency(c.(*client.Client), latency)
		})
	}
	return pl
}

// checkPlayer перевіряє чи є місце для ще одного гравця
func (pl *playerList) checkPlayer(id, name string) (bool, chat.Message) {
	return pl.pingList.CheckPlayer(name, playerUUID(id), 0)
}

// addPlayer додає нового гравця до списку і до пінгу
func (pl *playerList) addPlayer(c *client.Client, name string) {
	pl.pingList.ClientJoin(c, server.PlayerSample{
		Name: name,
		ID:   playerUUID(c.ID()),
	})
	if pl.keepAlive != nil {
		pl.keepAlive.ClientJoin(c)
	}
}

// updateLatency записує пінг гравця, тік пише його в журнал
func (pl *playerList) updateLatency(c *client.Client, latency time.Duration) {
	if p := c.GetPlayer(); p != nil {
		p.Inputs.SetLatency(latency)
	}
	c.Logger().Debug("Latency update", zap.Duration("latency", latency))
}

// removePlayer видаляє гравця зі списку
func (pl *playerList) removePlayer(c *client.Client) {
	pl.pingList.ClientLeft(c)
	if pl.keepAlive != nil {
		pl.keepAlive.ClientLeft(c)
	}
}

// samples повертає ім'я і UUID кожного гравця
func (pl *playerList) samples() []server.PlayerSample {
	samples := make([]server.PlayerSample, 0, pl.pingList.Len())
	pl.pingList.Range(func(_ server.PlayerListClient, s server.PlayerSample) {
		samples = append(samples, s)
	})
	return samples
}

// keepAliveHandler створює обробник PING.
// Запит від клієнта - відповідаємо, відповідь на наш пінг - тікаємо keepAlive.
func keepAliveHandler(k *server.KeepAlive) client.PacketHandler {
	return func(m protocol.Message, c *client.Client) error {
		kind, _, err := protocol.ParsePing(m)
		if err != nil {
			c.Logger().Debug("Bad ping", zap.Error(err))
			return nil
		}
		if kind == protocol.PingRequest {
			return client.EchoPing(m, c)
		}
		// до CONNECT клієнта немає в keepAlive
		if c.GetPlayer() != nil {
			k.ClientTick(c)
		}
		return nil
	}
}

func playerUUID(id string) uuid.UUID {
	return uuid.NewSHA1(playerNamespace, []byte(id))
}
