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

// Йоу, чат! Зараз розберемо як виглядає одне повідомлення нашого протоколу!
// Кожне повідомлення в потоці TCP має такий вигляд (все big-endian):
//
//	[u32 bodySize]
//	  [u8  messageType]
//	  [u8  senderIdLength][senderId bytes]
//	  [u32 dataLength]
//	  [data bytes]
//
// bodySize рахує все що йде після нього.

package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	pk "github.com/Tnze/go-mc/net/packet"
)

// Type - тип повідомлення. Порядок значень зафіксований протоколом.
type Type uint8

const (
	PlayerPosition Type = iota
	PlayerAction
	PlayerInput
	GameState
	GameStateDelta
	GameStatePart
	ChatMessage
	Connect
	Disconnect
	Ping
	PlayerJoined
	PlayerLeft
	Chat
	EnemyStateUpdate
	PlayerAssign
	ObjectsRemoved
	// TypeGuard - кількість типів, використовується для таблиць обробників
	TypeGuard
)

var typeNames = [TypeGuard]string{
	PlayerPosition:   "PLAYER_POSITION",
	PlayerAction:     "PLAYER_ACTION",
	PlayerInput:      "PLAYER_INPUT",
	GameState:        "GAME_STATE",
	GameStateDelta:   "GAME_STATE_DELTA",
	GameStatePart:    "GAME_STATE_PART",
	ChatMessage:      "CHAT_MESSAGE",
	Connect:          "CONNECT",
	Disconnect:       "DISCONNECT",
	Ping:             "PING",
	PlayerJoined:     "PLAYER_JOINED",
	PlayerLeft:       "PLAYER_LEFT",
	Chat:             "CHAT",
	EnemyStateUpdate: "ENEMY_STATE_UPDATE",
	PlayerAssign:     "PLAYER_ASSIGN",
	ObjectsRemoved:   "OBJECTS_REMOVED",
}

func (t Type) String() string {
	if t < TypeGuard {
		return typeNames[t]
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
}

// Valid reports whether t is a known message type.
func (t Type) Valid() bool { return t < TypeGuard }

// ServerID - sender id повідомлень від сервера
const ServerID = "server"

const (
	// headerSize - мінімальний розмір тіла: тип, довжина sender і dataLength
	headerSize = 1 + 1 + 4
	// DefaultMaxBodySize обмежує вхідні повідомлення від клієнтів
	DefaultMaxBodySize = 1024
)

var (
	// ErrMessageTooLarge - заголовок оголошує тіло більше за ліміт.
	// Ресинхронізації немає, тому з'єднання треба закрити.
	ErrMessageTooLarge = errors.New("protocol: message body exceeds limit")
	// ErrMalformed - тіло прочитане повністю, але всередині нісенітниця.
	// Повідомлення відкидається, потік лишається узгодженим.
	ErrMalformed = errors.New("protocol: malformed message body")
)

// Message - одне логічне повідомлення протоколу.
// Target використовується тільки для маршрутизації і в мережу не пишеться.
type Message struct {
	Type   Type
	Sender string
	Target string
	Data   []byte
}

// NewMessage збирає повідомлення з полів, як pk.Marshal у go-mc
func NewMessage(t Type, sender string, fields ...pk.FieldEncoder) (Message, error) {
	var buf bytes.Buffer
	for _, f := range fields {
		if _, err := f.WriteTo(&buf); err != nil {
			return Message{}, fmt.Errorf("marshal %v: %w", t, err)
		}
	}
	return Message{Type: t, Sender: sender, Data: buf.Bytes()}, nil
}

// Scan розбирає Data у вказані поля по черзі
func (m Message) Scan(fields ...pk.FieldDecoder) error {
	r := bytes.NewReader(m.Data)
	for _, f := range fields {
		if _, err := f.ReadFrom(r); err != nil {
			return truncated(err)
		}
	}
	return nil
}

// BodySize повертає розмір тіла повідомлення на дроті
func (m Message) BodySize() int {
	return headerSize + len(m.Sender) + len(m.Data)
}

// AppendBody дописує тіло повідомлення (без u32 префікса) до buf
func AppendBody(buf []byte, m Message) ([]byte, error) {
	if len(m.Sender) > 0xFF {
		return buf, ErrFieldTooLong
	}
	buf = append(buf, byte(m.Type), byte(len(m.Sender)))
	buf = append(buf, m.Sender...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(m.Data)))
	return append(buf, m.Data...), nil
}

// AppendFrame дописує повне повідомлення з u32 префіксом розміру
func AppendFrame(buf []byte, m Message) ([]byte, error) {
	buf = binary.BigEndian.AppendUint32(buf, uint32(m.BodySize()))
	return AppendBody(buf, m)
}

// DecodeBody розбирає тіло повідомлення. Будь-яка розбіжність
// довжин дає ErrMalformed.
func DecodeBody(body []byte) (Message, error) {
	if len(body) < headerSize {
		return Message{}, fmt.Errorf("%w: body of %d bytes", ErrMalformed, len(body))
	}
	m := Message{Type: Type(body[0])}
	senderLen := int(body[1])
	rest := body[2:]
	if len(rest) < senderLen+4 {
		return Message{}, fmt.Errorf("%w: sender length %d overruns body", ErrMalformed, senderLen)
	}
	m.Sender = string(rest[:senderLen])
	rest = rest[senderLen:]
	dataLen := binary.BigEndian.Uint32(rest)
	rest = rest[4:]
	if uint64(dataLen) != uint64(len(rest)) {
		return Message{}, fmt.Errorf("%w: data length %d, %d bytes left", ErrMalformed, dataLen, len(rest))
	}
	if dataLen > 0 {
		m.Data = rest
	}
	return m, nil
}
