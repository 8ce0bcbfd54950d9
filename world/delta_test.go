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

package world

import (
	"math/rand"
	"testing"

	"SagaCore/world/entity"
)

func TestDeltaTracker_FirstUpdateReportsAll(t *testing.T) {
	d := NewDeltaTracker(0)
	if d.Primed() {
		t.Fatal("fresh tracker is primed")
	}
	objs := []*entity.Object{
		{ID: "e1", Kind: entity.KindEnemy},
		{ID: "t1", Kind: entity.KindTile},
	}
	if got := d.Update(objs); len(got) != 2 {
		t.Errorf("first update reported %d objects", len(got))
	}
	if !d.Primed() {
		t.Error("tracker not primed after update")
	}
	if got := d.Update(objs); len(got) != 0 {
		t.Errorf("unchanged objects reported: %d", len(got))
	}
}

func TestDeltaTracker_Epsilon(t *testing.T) {
	d := NewDeltaTracker(0.001)
	o := &entity.Object{ID: "e1", Kind: entity.KindEnemy, Position: entity.Vec2{10, 10}}
	d.Update([]*entity.Object{o})

	o.Position[0] += 0.0005
	if got := d.Update([]*entity.Object{o}); len(got) != 0 {
		t.Errorf("sub-epsilon move reported")
	}
	o.Velocity[1] = 0.01
	if got := d.Update([]*entity.Object{o}); len(got) != 1 {
		t.Errorf("velocity change not reported")
	}
	o.Actor.Anim = entity.AnimHurt
	if got := d.Update([]*entity.Object{o}); len(got) != 1 {
		t.Errorf("anim change not reported")
	}
	// Health не йде в мережу
	o.Actor.Health = 5
	if got := d.Update([]*entity.Object{o}); len(got) != 0 {
		t.Errorf("health change reported")
	}
}

func TestDeltaTracker_TypeSpecificFields(t *testing.T) {
	d := NewDeltaTracker(0)
	tile := &entity.Object{ID: "t1", Kind: entity.KindTile, Tile: entity.Tile{Index: 1}}
	pl := &entity.Object{ID: "pl1", Kind: entity.KindPlatform, Size: entity.Vec2{64, 16}}
	d.Update([]*entity.Object{tile, pl})

	tile.Tile.Flags = entity.TileBlocksTop
	pl.Size[0] = 128
	got := d.Update([]*entity.Object{tile, pl})
	if len(got) != 2 {
		t.Errorf("got %d changed, want 2", len(got))
	}
}

// Змінені об'єкти - рівно ті, що зсунулись більше ніж на epsilon
// від знімка попередньої розсилки, плюс нові.
func TestDeltaTracker_ChangedSetMatchesMoves(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	const eps = 0.001
	d := NewDeltaTracker(eps)
	objs := make([]*entity.Object, 50)
	for i := range objs {
		objs[i] = &entity.Object{ID: NewObjectID(entity.KindEnemy), Kind: entity.KindEnemy}
	}
	d.Update(objs)

	for round := 0; round < 20; round++ {
		want := map[string]bool{}
		for _, o := range objs {
			if rnd.Intn(3) == 0 {
				o.Position[rnd.Intn(2)] += 0.5
				want[o.ID] = true
			}
		}
		got := d.Update(objs)
		if len(got) != len(want) {
			t.Fatalf("round %d: %d changed, want %d", round, len(got), len(want))
		}
		for _, o := range got {
			if !want[o.ID] {
				t.Fatalf("round %d: %s reported without moving", round, o.ID)
			}
		}
	}
}

func TestDeltaTracker_ForgetsRemoved(t *testing.T) {
	d := NewDeltaTracker(0)
	a := &entity.Object{ID: "e1", Kind: entity.KindEnemy}
	b := &entity.Object{ID: "e2", Kind: entity.KindEnemy}
	d.Update([]*entity.Object{a, b})
	d.Update([]*entity.Object{a})
	if d.Len() != 1 {
		t.Errorf("tracker keeps %d snapshots", d.Len())
	}
}

func TestDeltaTracker_ForgetReportsReturningObject(t *testing.T) {
	d := NewDeltaTracker(0)
	a := &entity.Object{ID: "e1", Kind: entity.KindEnemy, Position: entity.Vec2{5, 5}}
	d.Update([]*entity.Object{a})

	d.Forget("e1")
	d.Forget("missing")
	if d.Len() != 0 {
		t.Fatalf("tracker keeps %d snapshots after Forget", d.Len())
	}
	// той самий стан, але після Forget це новий об'єкт
	if got := d.Update([]*entity.Object{a}); len(got) != 1 || got[0] != a {
		t.Errorf("returning object not reported: %v", got)
	}
}
