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

// Йоу, чат! Зараз розберемо як приходить рух від гравця!
// Є два способи:
//  - PLAYER_INPUT: клієнт шле натиснуті кнопки, а рухає сервер
//  - PLAYER_POSITION: клієнт сам порахував позицію, сервер її перевіряє
// Обидва тільки записують дані в Inputs, а застосовує їх тік.

package client

import (
	"go.uber.org/zap"

	"SagaCore/protocol"
)

// clientInput обробляє кнопки гравця
func clientInput(m protocol.Message, c *Client) error {
	p := c.GetPlayer()
	if p == nil || !c.allowInput() {
		return nil
	}
	buttons, err := protocol.ParseInput(m)
	if err != nil {
		c.log.Debug("Bad input", zap.Error(err))
		return nil
	}
	p.Inputs.SetButtons(buttons)
	return nil
}

// clientPosition обробляє позицію від клієнта.
// NaN і занадто далекі стрибки перевіряє тік.
func clientPosition(m protocol.Message, c *Client) error {
	p := c.GetPlayer()
	if p == nil || !c.allowInput() {
		return nil
	}
	pos, err := protocol.ParsePosition(m)
	if err != nil {
		c.log.Debug("Bad position", zap.Error(err))
		return nil
	}
	p.Inputs.SetCorrection(pos)
	return nil
}

// clientDisconnect - клієнт виходить сам
func clientDisconnect(_ protocol.Message, _ *Client) error {
	return ErrClientDisconnect
}

// EchoPing відповідає на PING запит тим самим токеном.
// Відповіді на наші запити тут ігноруються, їх обробляє keep-alive.
func EchoPing(m protocol.Message, c *Client) error {
	kind, token, err := protocol.ParsePing(m)
	if err != nil {
		c.log.Debug("Bad ping", zap.Error(err))
		return nil
	}
	if kind != protocol.PingRequest {
		return nil
	}
	reply, err := protocol.PingMessage(protocol.ServerID, protocol.PingReply, token)
	if err != nil {
		return err
	}
	c.Send(reply)
	return nil
}
