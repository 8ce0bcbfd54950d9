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

// Йоу, чат! Зараз розберемо як великий стан світу ріжеться на шматки!
// Якщо всі змінені об'єкти влазять в бюджет (~1200 байт, щоб не
// перевищити MTU), відправляємо один пакет:
//
//	[objectCount:2][objects...]
//
// Інакше ріжемо на частини GAME_STATE_PART, кожна з заголовком:
//
//	[flags:1][totalCount:2][startIndex:2][countInPacket:2][objects...]
//
// Всі частини одного оновлення мають йти підряд по одному з'єднанню.

package protocol

import (
	"bytes"
	"errors"
	"fmt"

	pk "github.com/Tnze/go-mc/net/packet"
)

const (
	// DefaultPacketBudget - бюджет корисного навантаження одного пакета
	DefaultPacketBudget = 1200
	// SafetyMargin віднімається від бюджету перед розрахунком кількості
	// об'єктів на пакет, бо розмір береться середній
	SafetyMargin = 64

	PartFirst byte = 0x01
	PartLast  byte = 0x02

	countSize      = 2
	partHeaderSize = 1 + 2 + 2 + 2
	maxCount       = 0xFFFF
)

// ErrTooManyObjects - кількість об'єктів не влазить у u16
var ErrTooManyObjects = errors.New("protocol: more than 65535 objects in one update")

// PartHeader - заголовок однієї частини розрізаного оновлення
type PartHeader struct {
	Flags byte
	Total uint16
	Start uint16
	Count uint16
}

func (h PartHeader) First() bool { return h.Flags&PartFirst != 0 }
func (h PartHeader) Last() bool  { return h.Flags&PartLast != 0 }

// Pack пакує вже закодовані об'єкти в одне або кілька повідомлень.
// single - тип для випадку одного пакета (GameState або GameStateDelta).
// Порожній список дає одне повідомлення з нульовою кількістю (heartbeat).
func Pack(single Type, encoded [][]byte, budget int) ([]Message, error) {
	if len(encoded) > maxCount {
		return nil, fmt.Errorf("%w: %d", ErrTooManyObjects, len(encoded))
	}
	total := 0
	for _, e := range encoded {
		total += len(e)
	}
	if countSize+total <= budget || len(encoded) == 0 {
		data := make([]byte, 0, countSize+total)
		data = append(data, byte(len(encoded)>>8), byte(len(encoded)))
		for _, e := range encoded {
			data = append(data, e...)
		}
		return []Message{{Type: single, Sender: ServerID, Data: data}}, nil
	}

	per := ObjectsPerPacket(total, len(encoded), budget)
	parts := make([]Message, 0, (len(encoded)+per-1)/per)
	for start := 0; start < len(encoded); start += per {
		end := min(start+per, len(encoded))
		var flags byte
		if start == 0 {
			flags |= PartFirst
		}
		if end == len(encoded) {
			flags |= PartLast
		}
		var buf bytes.Buffer
		_, _ = pk.Tuple{
			pk.UnsignedByte(flags),
			pk.UnsignedShort(len(encoded)),
			pk.UnsignedShort(start),
			pk.UnsignedShort(end - start),
		}.WriteTo(&buf)
		for _, e := range encoded[start:end] {
			buf.Write(e)
		}
		parts = append(parts, Message{Type: GameStatePart, Sender: ServerID, Data: buf.Bytes()})
	}
	return parts, nil
}

// ObjectsPerPacket оцінює скільки об'єктів влізе в одну частину
// за середнім розміром. Завжди повертає щонайменше 1.
func ObjectsPerPacket(totalSize, count, budget int) int {
	if count == 0 {
		return 1
	}
	avg := (totalSize + count - 1) / count
	if avg <= 0 {
		avg = 1
	}
	return max(1, (budget-partHeaderSize-SafetyMargin)/avg)
}

// ParseCount розбирає заголовок одиночного пакета стану
func ParseCount(data []byte) (count int, rest []byte, err error) {
	var n pk.UnsignedShort
	if err := (Message{Data: data}).Scan(&n); err != nil {
		return 0, nil, err
	}
	return int(n), data[countSize:], nil
}

// ParsePartHeader розбирає заголовок частини GAME_STATE_PART
func ParsePartHeader(data []byte) (PartHeader, []byte, error) {
	var (
		h                   PartHeader
		flags               pk.UnsignedByte
		total, start, count pk.UnsignedShort
	)
	if err := (Message{Data: data}).Scan(&flags, &total, &start, &count); err != nil {
		return h, nil, err
	}
	h = PartHeader{Flags: byte(flags), Total: uint16(total), Start: uint16(start), Count: uint16(count)}
	return h, data[partHeaderSize:], nil
}
