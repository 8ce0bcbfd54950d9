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

// Йоу, чат! Зараз розберемо як один об'єкт світу перетворюється в байти!
// Формат фіксований:
//
//	[type:1][idLen:1][id][posX:4][posY:4][velX:4][velY:4][...]
//
// Далі йде хвіст, який залежить від типу:
//   - гравець і ворог: [animState:1][facingDir:1]
//   - тайл: [tileIndex:1][flags:4][tilemapNameLen:1][tilemapName]
//   - платформа: [width:4][height:4]
//
// Числа з плаваючою комою - IEEE-754 float32, big-endian, як pk.Float.

package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	pk "github.com/Tnze/go-mc/net/packet"

	"SagaCore/world/entity"
)

// ErrUnknownKind - байт типу не відповідає жодному відомому типу
var ErrUnknownKind = errors.New("protocol: unknown object kind")

// EncodeObject записує один об'єкт у w
func EncodeObject(w io.Writer, o *entity.Object) error {
	if !o.Kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, o.Kind)
	}
	fields := pk.Tuple{
		pk.UnsignedByte(o.Kind),
		ShortString(o.ID),
		pk.Float(o.Position[0]),
		pk.Float(o.Position[1]),
		pk.Float(o.Velocity[0]),
		pk.Float(o.Velocity[1]),
	}
	switch o.Kind {
	case entity.KindPlayer, entity.KindEnemy:
		fields = append(fields,
			pk.UnsignedByte(o.Actor.Anim),
			pk.UnsignedByte(o.Actor.Facing),
		)
	case entity.KindTile:
		fields = append(fields,
			pk.UnsignedByte(o.Tile.Index),
			pk.Int(o.Tile.Flags),
			ShortString(o.Tile.Tilemap),
		)
	case entity.KindPlatform:
		fields = append(fields,
			pk.Float(o.Size[0]),
			pk.Float(o.Size[1]),
		)
	}
	_, err := fields.WriteTo(w)
	return err
}

// AppendObject дописує закодований об'єкт до buf
func AppendObject(buf []byte, o *entity.Object) ([]byte, error) {
	b := bytes.NewBuffer(buf)
	if err := EncodeObject(b, o); err != nil {
		return buf, err
	}
	return b.Bytes(), nil
}

// DecodeObject читає один об'єкт з data починаючи з cursor і повертає
// нову позицію курсора. При помилці курсор не рухається.
func DecodeObject(data []byte, cursor int) (entity.Object, int, error) {
	if cursor < 0 || cursor > len(data) {
		return entity.Object{}, cursor, ErrTruncated
	}
	r := bytes.NewReader(data[cursor:])
	o, err := readObject(r)
	if err != nil {
		return entity.Object{}, cursor, err
	}
	return o, len(data) - r.Len(), nil
}

func readObject(r *bytes.Reader) (o entity.Object, err error) {
	var kind pk.UnsignedByte
	if _, err = kind.ReadFrom(r); err != nil {
		return o, truncated(err)
	}
	o.Kind = entity.Kind(kind)
	if !o.Kind.Valid() {
		return o, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	var id ShortString
	_, err = pk.Tuple{
		&id,
		(*pk.Float)(&o.Position[0]),
		(*pk.Float)(&o.Position[1]),
		(*pk.Float)(&o.Velocity[0]),
		(*pk.Float)(&o.Velocity[1]),
	}.ReadFrom(r)
	if err != nil {
		return o, truncated(err)
	}
	o.ID = string(id)

	switch o.Kind {
	case entity.KindPlayer, entity.KindEnemy:
		_, err = pk.Tuple{
			(*pk.UnsignedByte)(&o.Actor.Anim),
			(*pk.UnsignedByte)(&o.Actor.Facing),
		}.ReadFrom(r)
	case entity.KindTile:
		var flags pk.Int
		var tilemap ShortString
		_, err = pk.Tuple{
			(*pk.UnsignedByte)(&o.Tile.Index),
			&flags,
			&tilemap,
		}.ReadFrom(r)
		o.Tile.Flags = entity.TileFlags(uint32(flags))
		o.Tile.Tilemap = string(tilemap)
	case entity.KindPlatform:
		_, err = pk.Tuple{
			(*pk.Float)(&o.Size[0]),
			(*pk.Float)(&o.Size[1]),
		}.ReadFrom(r)
	}
	if err != nil {
		return o, truncated(err)
	}
	return o, nil
}

// DecodeObjects читає count об'єктів підряд.
// Об'єкт з NaN/Inf пропускається, решта читається далі, бо межі
// об'єкта відомі. Обрізаний об'єкт або невідомий тип ламають розмітку,
// тож повертаємо вже прочитане разом з помилкою і пакет треба відкинути.
func DecodeObjects(data []byte, count int) (objs []entity.Object, skipped int, err error) {
	objs = make([]entity.Object, 0, count)
	cursor := 0
	for i := 0; i < count; i++ {
		var o entity.Object
		o, cursor, err = DecodeObject(data, cursor)
		if err != nil {
			return objs, skipped, fmt.Errorf("object %d of %d: %w", i, count, err)
		}
		if !o.Position.IsValid() || !o.Velocity.IsValid() {
			skipped++
			continue
		}
		objs = append(objs, o)
	}
	return objs, skipped, nil
}
