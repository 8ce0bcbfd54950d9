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

// Йоу, чат! Зараз розберемо як працює чат!
// Гравець шле CHAT з текстом, сервер перевіряє його і розсилає всім
// іншим з id відправника. Системні повідомлення йдуть від "server".

package game

import (
	"unicode/utf8"

	"github.com/Tnze/go-mc/chat"
	"go.uber.org/zap"

	"SagaCore/client"
	"SagaCore/protocol"
)

// globalChat керує всім чатом на сервері
type globalChat struct {
	// Логер для запису подій чату
	log *zap.Logger
	// Всі підключені клієнти
	sessions *client.Registry
}

// broadcastSystemChat відправляє системне повідомлення всім гравцям
// Наприклад: "p3 joined the game"
func (g *globalChat) broadcastSystemChat(msg chat.Message) {
	g.log.Info(msg.ClearString())
	g.sessions.Broadcast(protocol.ChatText(protocol.ServerID, msg.ClearString()))
}

// Handle обробляє повідомлення від гравців
func (g *globalChat) Handle(m protocol.Message, c *client.Client) error {
	if !c.AllowChat() {
		g.log.Debug("Chat rate limited", zap.String("sender", c.ID()))
		c.SendSystemChat(chat.Text("You are sending messages too fast").SetColor(chat.Red))
		return nil
	}
	text := string(m.Data)
	logger := g.log.With(zap.String("sender", c.ID()))

	// Перевіряємо заборонені символи
	if !utf8.ValidString(text) || existInvalidCharacter(text) {
		c.SendDisconnect(chat.TranslateMsg("multiplayer.disconnect.illegal_characters"))
		return nil
	}
	if text == "" {
		return nil
	}
	if len(text) > protocol.MaxChatLength {
		logger.Warn("Player send too long message", zap.Int("len", len(text)))
		c.SendSystemChat(chat.Text("Message is too long").SetColor(chat.Red))
		return nil
	}

	logger.Info(text)
	// Відправнику не повертаємо - він і так бачить своє повідомлення
	g.sessions.BroadcastExcept(c.ID(), protocol.ChatText(c.ID(), text))
	return nil
}

// existInvalidCharacter перевіряє заборонені символи в повідомленні
func existInvalidCharacter(msg string) bool {
	for _, c := range msg {
		// § - символ форматування
		// < пробілу - керуючі символи
		// 0x7F - символ видалення
		if c == '§' || c < ' ' || c == '\x7F' {
			return true
		}
	}
	return false
}
