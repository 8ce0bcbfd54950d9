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
	"github.com/Tnze/go-mc/chat"
	"go.uber.org/zap"

	"SagaCore/protocol"
)

// SendPlayerAssign повідомляє клієнту його id
func (c *Client) SendPlayerAssign(id string) {
	m, err := protocol.PlayerAssignMessage(id)
	if err != nil {
		c.log.Panic("Marshal message error", zap.Error(err))
	}
	c.Send(m)
}

// SendSystemChat відправляє системне повідомлення
// Наприклад "p3 joined the game" або "Сервер перезавантажується"
func (c *Client) SendSystemChat(msg chat.Message) {
	c.Send(protocol.ChatText(protocol.ServerID, msg.ClearString()))
}
