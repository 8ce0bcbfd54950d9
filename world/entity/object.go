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

package entity

import "SagaCore/world/internal/spatial"

// Vec2 - позиція, швидкість або розмір у світових одиницях
type Vec2 = spatial.Vec2[float32]

// AABB - прямокутник зіткнень
type AABB = spatial.AABB[float32]

// Object is one simulated world entity. Kind selects which payload is
// meaningful: Actor for players and enemies, Tile for tiles. Platforms use
// only the common fields.
type Object struct {
	ID   string
	Kind Kind

	// Position - лівий верхній кут AABB
	Position Vec2
	Velocity Vec2
	Size     Vec2

	Actor Actor
	Tile  Tile
}

// Actor - дані гравців і ворогів
type Actor struct {
	Anim     AnimState
	Facing   Facing
	Health   int16
	Grounded bool
	Dead     bool
}

// Tile - дані статичних тайлів
type Tile struct {
	Index   uint8
	Flags   TileFlags
	Tilemap string
}

// Bounds повертає AABB об'єкта на поточній позиції
func (o *Object) Bounds() AABB {
	return spatial.Box(o.Position, o.Size)
}

// Center повертає центр AABB
func (o *Object) Center() Vec2 {
	return o.Bounds().Center()
}

// Clone повертає незалежну копію. Object не містить вказівників,
// тож звичайного присвоєння достатньо.
func (o *Object) Clone() Object { return *o }
