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

// Йоу, чат! Зараз розберемо як клієнт передає інформацію про себе!
// Перше, що шле клієнт - CONNECT. В ньому може бути ім'я гравця.
// Ім'я показується в чаті і в /metrics, тому чистимо його тут.

package client

import (
	"strings"
	"unicode"

	"SagaCore/protocol"
)

// MaxNameLength - найдовше ім'я, яке ми приймаємо
const MaxNameLength = 32

// ClientInfo - те, що клієнт розповів про себе в CONNECT
type ClientInfo struct {
	Name string
}

// ParseClientInfo розбирає CONNECT. Порожнє або погане ім'я
// замінюється на fallback.
func ParseClientInfo(m protocol.Message, fallback string) (ClientInfo, error) {
	name, err := protocol.ParseConnect(m)
	if err != nil {
		return ClientInfo{Name: fallback}, err
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxNameLength || strings.IndexFunc(name, invalidNameRune) >= 0 {
		name = fallback
	}
	return ClientInfo{Name: name}, nil
}

func invalidNameRune(r rune) bool {
	return r == unicode.ReplacementChar || !unicode.IsPrint(r)
}
