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

package protocol

import (
	"errors"
	"fmt"

	pk "github.com/Tnze/go-mc/net/packet"

	"SagaCore/world/entity"
)

// Біти PLAYER_INPUT
const (
	InputLeft   byte = 0x01
	InputRight  byte = 0x02
	InputUp     byte = 0x04
	InputDown   byte = 0x08
	InputJump   byte = 0x10
	InputAttack byte = 0x20
)

// Види PING
const (
	PingRequest byte = 0
	PingReply   byte = 1
)

// MaxChatLength - максимальна довжина CHAT в байтах
const MaxChatLength = 256

// ErrEmptyPayload - повідомлення без обов'язкових даних
var ErrEmptyPayload = errors.New("protocol: empty payload")

// PlayerAssignMessage - сервер повідомляє клієнту його id
func PlayerAssignMessage(id string) (Message, error) {
	m, err := NewMessage(PlayerAssign, ServerID, ShortString(id))
	m.Target = id
	return m, err
}

// ParsePlayerAssign повертає призначений id
func ParsePlayerAssign(m Message) (string, error) {
	var id ShortString
	err := m.Scan(&id)
	return string(id), err
}

// PlayerEventMessage будує PLAYER_JOINED або PLAYER_LEFT
func PlayerEventMessage(t Type, id string) (Message, error) {
	return NewMessage(t, id, ShortString(id))
}

// ParseConnect повертає ім'я з CONNECT. Ім'я необов'язкове.
func ParseConnect(m Message) (string, error) {
	if len(m.Data) == 0 {
		return "", nil
	}
	var name ShortString
	err := m.Scan(&name)
	return string(name), err
}

// ConnectMessage будує CONNECT з необов'язковим ім'ям
func ConnectMessage(name string) (Message, error) {
	if name == "" {
		return Message{Type: Connect}, nil
	}
	return NewMessage(Connect, "", ShortString(name))
}

// EnemyState - корисне навантаження ENEMY_STATE_UPDATE
type EnemyState struct {
	ID     string
	Dead   bool
	Health int16
}

// EnemyStateMessage будує ENEMY_STATE_UPDATE
func EnemyStateMessage(s EnemyState) (Message, error) {
	return NewMessage(EnemyStateUpdate, ServerID, ShortString(s.ID), pk.Boolean(s.Dead), pk.Short(s.Health))
}

// ParseEnemyState розбирає ENEMY_STATE_UPDATE
func ParseEnemyState(m Message) (EnemyState, error) {
	var (
		id     ShortString
		dead   pk.UnsignedByte
		health pk.Short
	)
	if err := m.Scan(&id, &dead, &health); err != nil {
		return EnemyState{}, err
	}
	return EnemyState{ID: string(id), Dead: dead != 0, Health: int16(health)}, nil
}

// PingMessage будує PING
func PingMessage(sender string, kind byte, token int64) (Message, error) {
	return NewMessage(Ping, sender, pk.UnsignedByte(kind), pk.Long(token))
}

// ParsePing розбирає PING
func ParsePing(m Message) (kind byte, token int64, err error) {
	var (
		k pk.UnsignedByte
		t pk.Long
	)
	if err := m.Scan(&k, &t); err != nil {
		return 0, 0, err
	}
	return byte(k), int64(t), nil
}

// ObjectsRemovedMessage будує OBJECTS_REMOVED: [count:2]([idLen:1][id])*
func ObjectsRemovedMessage(ids []string) (Message, error) {
	if len(ids) > maxCount {
		return Message{}, fmt.Errorf("%w: %d", ErrTooManyObjects, len(ids))
	}
	fields := make([]pk.FieldEncoder, 0, len(ids)+1)
	fields = append(fields, pk.UnsignedShort(len(ids)))
	for _, id := range ids {
		fields = append(fields, ShortString(id))
	}
	return NewMessage(ObjectsRemoved, ServerID, fields...)
}

// ParseObjectsRemoved розбирає OBJECTS_REMOVED
func ParseObjectsRemoved(m Message) ([]string, error) {
	count, rest, err := ParseCount(m.Data)
	if err != nil {
		return nil, err
	}
	ids := make([]string, count)
	fields := make([]pk.FieldDecoder, count)
	for i := range ids {
		fields[i] = (*ShortString)(&ids[i])
	}
	if err := (Message{Data: rest}).Scan(fields...); err != nil {
		return nil, err
	}
	return ids, nil
}

// ParseInput повертає біти PLAYER_INPUT
func ParseInput(m Message) (byte, error) {
	if len(m.Data) == 0 {
		return 0, ErrEmptyPayload
	}
	return m.Data[0], nil
}

// Position - корисне навантаження PLAYER_POSITION.
// Facing і Anim необов'язкові, HasState показує чи вони були.
type Position struct {
	Position entity.Vec2
	Velocity entity.Vec2
	HasState bool
	Facing   entity.Facing
	Anim     entity.AnimState
}

// ParsePosition розбирає PLAYER_POSITION
func ParsePosition(m Message) (Position, error) {
	var p Position
	err := m.Scan(
		(*pk.Float)(&p.Position[0]),
		(*pk.Float)(&p.Position[1]),
		(*pk.Float)(&p.Velocity[0]),
		(*pk.Float)(&p.Velocity[1]),
	)
	if err != nil {
		return p, err
	}
	if len(m.Data) >= 16+2 {
		p.HasState = true
		p.Facing = entity.Facing(m.Data[16])
		p.Anim = entity.AnimState(m.Data[17])
	}
	return p, nil
}

// PositionMessage будує PLAYER_POSITION
func PositionMessage(sender string, p Position) (Message, error) {
	fields := []pk.FieldEncoder{
		pk.Float(p.Position[0]), pk.Float(p.Position[1]),
		pk.Float(p.Velocity[0]), pk.Float(p.Velocity[1]),
	}
	if p.HasState {
		fields = append(fields, pk.UnsignedByte(p.Facing), pk.UnsignedByte(p.Anim))
	}
	return NewMessage(PlayerPosition, sender, fields...)
}

// ChatText будує CHAT. Текст іде в Data як є, в UTF-8.
func ChatText(sender, text string) Message {
	return Message{Type: Chat, Sender: sender, Data: []byte(text)}
}

// DisconnectMessage будує DISCONNECT з причиною в Data
func DisconnectMessage(reason string) Message {
	return Message{Type: Disconnect, Sender: ServerID, Data: []byte(reason)}
}
