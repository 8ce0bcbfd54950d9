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

// Йоу, чат! Зараз розберемо рівномірну сітку для broad-phase!
// Світ ділиться на квадратні клітинки. Кожен об'єкт потрапляє в усі
// клітинки, які перекриває його AABB. Щоб знайти сусідів об'єкта,
// дивимось тільки в його клітинки, а не перебираємо всі пари.

package spatial

import (
	"math"

	"golang.org/x/exp/slices"
)

// DefaultCellSize відповідає відстані broad-phase відсічення
const DefaultCellSize = 200

// Grid - індекс об'єктів по клітинках. Зберігає номери (id), а не вказівники.
type Grid struct {
	cellSize float32
	cells    map[int64][]int

	// seen використовується Query для дедуплікації без алокацій
	seen map[int]struct{}
}

// NewGrid створює сітку з розміром клітинки cellSize.
// Непозитивний розмір замінюється на DefaultCellSize.
func NewGrid(cellSize float32) *Grid {
	if !(cellSize > 0) {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[int64][]int),
		seen:     make(map[int]struct{}),
	}
}

// CellSize повертає розмір клітинки
func (g *Grid) CellSize() float32 { return g.cellSize }

// CellKey пакує координати клітинки в одне число: старші 32 біти - x, молодші - y.
func CellKey(cx, cy int32) int64 {
	return int64(cx)<<32 | int64(uint32(cy))
}

func (g *Grid) cell(v float32) int32 {
	return int32(math.Floor(float64(v / g.cellSize)))
}

// cellRange returns the inclusive cell bounds of box. ok is false for boxes
// with negative extents or non-finite coordinates.
func (g *Grid) cellRange(box AABB[float32]) (x0, y0, x1, y1 int32, ok bool) {
	if !box.Lower.IsValid() || !box.Upper.IsValid() {
		return 0, 0, 0, 0, false
	}
	if box.Upper[0] < box.Lower[0] || box.Upper[1] < box.Lower[1] {
		return 0, 0, 0, 0, false
	}
	return g.cell(box.Lower[0]), g.cell(box.Lower[1]), g.cell(box.Upper[0]), g.cell(box.Upper[1]), true
}

// Insert кладе id в кожну клітинку, яку перекриває box
func (g *Grid) Insert(id int, box AABB[float32]) {
	x0, y0, x1, y1, ok := g.cellRange(box)
	if !ok {
		return
	}
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			key := CellKey(cx, cy)
			g.cells[key] = append(g.cells[key], id)
		}
	}
}

// Clear очищає всі клітинки, але залишає виділену пам'ять для наступного тіку
func (g *Grid) Clear() {
	for key, ids := range g.cells {
		if len(ids) == 0 {
			// клітинка не використовувалась цілий тік - звільняємо
			delete(g.cells, key)
			continue
		}
		g.cells[key] = ids[:0]
	}
}

// Query повертає відсортований список унікальних id, які ділять хоча б одну
// клітинку з box. Сам id до результату не потрапляє.
func (g *Grid) Query(id int, box AABB[float32]) []int {
	x0, y0, x1, y1, ok := g.cellRange(box)
	if !ok {
		return nil
	}
	var result []int
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			for _, other := range g.cells[CellKey(cx, cy)] {
				if other == id {
					continue
				}
				if _, dup := g.seen[other]; dup {
					continue
				}
				g.seen[other] = struct{}{}
				result = append(result, other)
			}
		}
	}
	for _, other := range result {
		delete(g.seen, other)
	}
	slices.Sort(result)
	return result
}

// Len повертає кількість непорожніх клітинок
func (g *Grid) Len() (n int) {
	for _, ids := range g.cells {
		if len(ids) > 0 {
			n++
		}
	}
	return
}
