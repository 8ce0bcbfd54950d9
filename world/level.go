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

// Йоу, чат! Тут розберемо звідки береться рівень!
// Рівень - це початковий набір об'єктів: тайли підлоги, платформи,
// вороги, плюс точка спавну гравців. Його дає LevelProvider,
// за замовчуванням вбудований DefaultLevel.

package world

import (
	"errors"

	"SagaCore/world/entity"
)

// LevelProvider дає світу початкові об'єкти і точку спавну
type LevelProvider interface {
	Objects() ([]entity.Object, error)
	PlayerSpawn() entity.Vec2
}

// ErrBadLevel повертається коли рівень містить некоректний об'єкт
var ErrBadLevel = errors.New("world: bad level")

// Level - рівень, що вже лежить у пам'яті
type Level struct {
	Spawn entity.Vec2
	Items []entity.Object
}

// Objects повертає копію об'єктів рівня
func (l Level) Objects() ([]entity.Object, error) {
	return append([]entity.Object(nil), l.Items...), nil
}

// PlayerSpawn повертає точку спавну
func (l Level) PlayerSpawn() entity.Vec2 { return l.Spawn }

// DefaultLevel - невелика арена: підлога з тайлів, три платформи і ворог
func DefaultLevel() Level {
	l := Level{Spawn: entity.Vec2{500, 100}}
	for i := 0; i < 20; i++ {
		l.Items = append(l.Items, entity.Object{
			Kind:     entity.KindTile,
			Position: entity.Vec2{float32(i) * 64, 600},
			Size:     entity.Vec2{64, 16},
			Tile:     entity.Tile{Index: uint8(i % 4), Tilemap: "ground"},
		})
	}
	for _, x := range []float32{200, 400, 600} {
		l.Items = append(l.Items, entity.Object{
			Kind:     entity.KindPlatform,
			Position: entity.Vec2{x, 500},
			Size:     entity.Vec2{128, 16},
		})
	}
	l.Items = append(l.Items, entity.Object{
		Kind:     entity.KindEnemy,
		Position: entity.Vec2{700, 568},
		Size:     entity.Vec2{32, 32},
		Actor:    entity.Actor{Facing: entity.FacingWest},
	})
	return l
}
