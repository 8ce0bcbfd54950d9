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

package spatial

import (
	"math/rand"
	"testing"
)

type vec = Vec2[float32]

func TestCellKey(t *testing.T) {
	keys := map[int64][2]int32{}
	for _, c := range [][2]int32{{0, 0}, {1, 0}, {0, 1}, {-1, 0}, {0, -1}, {-1, -1}, {1 << 20, -(1 << 20)}} {
		k := CellKey(c[0], c[1])
		if prev, ok := keys[k]; ok {
			t.Errorf("cell %v collides with %v", c, prev)
		}
		keys[k] = c
	}
}

func TestGrid_QueryEmpty(t *testing.T) {
	g := NewGrid(200)
	if got := g.Query(0, Box(vec{0, 0}, vec{10, 10})); len(got) != 0 {
		t.Errorf("empty grid returned %v", got)
	}
}

func TestGrid_InsertQuery(t *testing.T) {
	g := NewGrid(100)
	g.Insert(0, Box(vec{10, 10}, vec{20, 20}))
	g.Insert(1, Box(vec{50, 50}, vec{100, 20})) // cells (0,0) and (1,0)
	g.Insert(2, Box(vec{150, 10}, vec{10, 10})) // cell (1,0)
	g.Insert(3, Box(vec{-50, -50}, vec{10, 10}))

	if got := g.Query(0, Box(vec{10, 10}, vec{20, 20})); !equal(got, []int{1}) {
		t.Errorf("query 0: got %v, want [1]", got)
	}
	if got := g.Query(1, Box(vec{50, 50}, vec{100, 20})); !equal(got, []int{0, 2}) {
		t.Errorf("query 1: got %v, want [0 2]", got)
	}
	if got := g.Query(3, Box(vec{-50, -50}, vec{10, 10})); len(got) != 0 {
		t.Errorf("query 3: got %v, want none", got)
	}
}

func TestGrid_QueryDeduplicates(t *testing.T) {
	g := NewGrid(10)
	// обидва об'єкти накривають по 9+ клітинок
	g.Insert(0, Box(vec{0, 0}, vec{25, 25}))
	g.Insert(1, Box(vec{5, 5}, vec{25, 25}))
	got := g.Query(0, Box(vec{0, 0}, vec{25, 25}))
	if !equal(got, []int{1}) {
		t.Errorf("got %v, want [1]", got)
	}
	// повторний запит не повинен бачити залишків від попереднього
	got = g.Query(0, Box(vec{0, 0}, vec{25, 25}))
	if !equal(got, []int{1}) {
		t.Errorf("second query: got %v, want [1]", got)
	}
}

func TestGrid_Clear(t *testing.T) {
	g := NewGrid(50)
	g.Insert(0, Box(vec{0, 0}, vec{10, 10}))
	g.Insert(1, Box(vec{0, 0}, vec{10, 10}))
	g.Clear()
	if got := g.Query(0, Box(vec{0, 0}, vec{10, 10})); len(got) != 0 {
		t.Errorf("after clear got %v", got)
	}
	if g.Len() != 0 {
		t.Errorf("after clear %d cells are non-empty", g.Len())
	}
}

func TestGrid_MalformedBoxes(t *testing.T) {
	g := NewGrid(100)
	g.Insert(0, Box(vec{10, 10}, vec{-5, -5}))
	g.Insert(1, Box(vec{10, 10}, vec{0, 0}))
	g.Insert(2, Box(vec{10, 10}, vec{5, 5}))
	if got := g.Query(2, Box(vec{10, 10}, vec{5, 5})); !equal(got, []int{1}) {
		t.Errorf("got %v, want [1]", got)
	}
}

// Будь-які два id, що ділять клітинку, повинні знаходити один одного.
func TestGrid_Symmetric(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	g := NewGrid(64)
	boxes := make([]AABB[float32], 100)
	for i := range boxes {
		boxes[i] = Box(vec{rnd.Float32()*1000 - 500, rnd.Float32()*1000 - 500}, vec{rnd.Float32() * 150, rnd.Float32() * 150})
		g.Insert(i, boxes[i])
	}
	found := make(map[[2]int]bool)
	for i, b := range boxes {
		for _, j := range g.Query(i, b) {
			if j == i {
				t.Fatalf("query %d returned itself", i)
			}
			found[[2]int{i, j}] = true
		}
	}
	for pair := range found {
		if !found[[2]int{pair[1], pair[0]}] {
			t.Errorf("pair %v found only one way", pair)
		}
	}
	// перетин прямокутників завжди означає спільну клітинку
	for i := range boxes {
		for j := range boxes {
			if i != j && boxes[i].Overlaps(boxes[j]) && !found[[2]int{i, j}] {
				t.Errorf("overlapping boxes %d and %d not reported", i, j)
			}
		}
	}
}

func TestAABB_Overlaps(t *testing.T) {
	a := Box(vec{0, 0}, vec{10, 10})
	for _, tc := range []struct {
		b    AABB[float32]
		want bool
	}{
		{Box(vec{5, 5}, vec{10, 10}), true},
		{Box(vec{10, 0}, vec{10, 10}), true}, // дотик краєм
		{Box(vec{11, 0}, vec{10, 10}), false},
		{Box(vec{5, 5}, vec{0, 0}), false},
		{Box(vec{5, 5}, vec{-3, 4}), false},
	} {
		if got := a.Overlaps(tc.b); got != tc.want {
			t.Errorf("Overlaps(%v) = %v, want %v", tc.b, got, tc.want)
		}
	}
	if got := a.Overlap(Box(vec{7, 5}, vec{10, 10})); got != (vec{3, 5}) {
		t.Errorf("Overlap = %v, want [3 5]", got)
	}
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
