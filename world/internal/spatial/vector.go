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

// Йоу, чат! Тут живуть двовимірні вектори нашого світу.
// Позиції, швидкості і розміри об'єктів - це все Vec2.

package spatial

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Vec2 - двовимірний вектор
// I може бути будь-яким числовим типом (int, float32 тощо)
type Vec2[I constraints.Signed | constraints.Float] [2]I

// Add додає інший вектор до поточного
func (v Vec2[I]) Add(other Vec2[I]) Vec2[I] { return Vec2[I]{v[0] + other[0], v[1] + other[1]} }

// Sub віднімає інший вектор від поточного
func (v Vec2[I]) Sub(other Vec2[I]) Vec2[I] { return Vec2[I]{v[0] - other[0], v[1] - other[1]} }

// Mul множить вектор на скаляр
func (v Vec2[I]) Mul(i I) Vec2[I] { return Vec2[I]{v[0] * i, v[1] * i} }

// Neg повертає протилежний вектор
func (v Vec2[I]) Neg() Vec2[I] { return Vec2[I]{-v[0], -v[1]} }

// Max повертає вектор з максимальними координатами
func (v Vec2[I]) Max(other Vec2[I]) Vec2[I] { return Vec2[I]{max(v[0], other[0]), max(v[1], other[1])} }

// Min повертає вектор з мінімальними координатами
func (v Vec2[I]) Min(other Vec2[I]) Vec2[I] { return Vec2[I]{min(v[0], other[0]), min(v[1], other[1])} }

// Dot - скалярний добуток
func (v Vec2[I]) Dot(other Vec2[I]) I { return v[0]*other[0] + v[1]*other[1] }

// Norm повертає довжину вектора
func (v Vec2[I]) Norm() float64 { return sqrt(v.Dot(v)) }

// IsValid перевіряє що в векторі немає NaN чи нескінченностей
func (v Vec2[I]) IsValid() bool {
	for _, c := range v {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Near reports whether every component differs by at most eps.
func (v Vec2[I]) Near(other Vec2[I], eps I) bool {
	return abs(v[0]-other[0]) <= eps && abs(v[1]-other[1]) <= eps
}

func abs[T constraints.Signed | constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// sqrt обчислює квадратний корінь з числа
// конвертує вхідне число у float64 для обчислення
func sqrt[T constraints.Signed | constraints.Float](v T) float64 {
	return math.Sqrt(float64(v))
}
