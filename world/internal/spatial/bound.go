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

// Йоу, чат! Тут у нас AABB - прямокутник, вирівняний по осях.
// Кожен об'єкт світу має такий прямокутник, і саме по ним
// ми шукаємо зіткнення.

package spatial

import "golang.org/x/exp/constraints"

// AABB - прямокутник вирівняний по осях координат.
// Lower - лівий верхній кут (мінімальні x та y), Upper - правий нижній.
// Вісь Y дивиться вниз, як на екрані.
type AABB[I constraints.Signed | constraints.Float] struct {
	Lower, Upper Vec2[I]
}

// Box будує AABB з позиції лівого верхнього кута і розміру
func Box[I constraints.Signed | constraints.Float](pos, size Vec2[I]) AABB[I] {
	return AABB[I]{Lower: pos, Upper: pos.Add(size)}
}

// Size повертає ширину і висоту
func (b AABB[I]) Size() Vec2[I] { return b.Upper.Sub(b.Lower) }

// Center повертає центр прямокутника
func (b AABB[I]) Center() Vec2[I] {
	return Vec2[I]{b.Lower[0] + (b.Upper[0]-b.Lower[0])/2, b.Lower[1] + (b.Upper[1]-b.Lower[1])/2}
}

// Empty reports whether the box has no area. Empty boxes never overlap anything.
func (b AABB[I]) Empty() bool {
	return b.Upper[0] <= b.Lower[0] || b.Upper[1] <= b.Lower[1]
}

// WithIn перевіряє чи точка знаходиться всередині AABB (межі включно)
func (b AABB[I]) WithIn(point Vec2[I]) bool {
	return b.Lower[0] <= point[0] && point[0] <= b.Upper[0] &&
		b.Lower[1] <= point[1] && point[1] <= b.Upper[1]
}

// Overlaps - класичний тест перетину. Дотик краями теж рахується.
func (b AABB[I]) Overlaps(other AABB[I]) bool {
	if b.Empty() || other.Empty() {
		return false
	}
	return b.Lower[0] <= other.Upper[0] && b.Upper[0] >= other.Lower[0] &&
		b.Lower[1] <= other.Upper[1] && b.Upper[1] >= other.Lower[1]
}

// Overlap повертає глибину перетину по кожній осі.
// Має сенс тільки коли Overlaps повернув true.
func (b AABB[I]) Overlap(other AABB[I]) Vec2[I] {
	return b.Upper.Min(other.Upper).Sub(b.Lower.Max(other.Lower))
}

// Union повертає найменший AABB, що містить обидва вхідні AABB
func (b AABB[I]) Union(other AABB[I]) AABB[I] {
	return AABB[I]{
		Upper: b.Upper.Max(other.Upper),
		Lower: b.Lower.Min(other.Lower),
	}
}
