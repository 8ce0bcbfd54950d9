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
	"testing"

	"SagaCore/world/entity"
)

func TestResolve_PlayerLandsOnTile(t *testing.T) {
	player := &entity.Object{
		ID: "p1", Kind: entity.KindPlayer,
		Position: entity.Vec2{100, 132}, Velocity: entity.Vec2{0, 50}, Size: entity.Vec2{32, 32},
	}
	tile := &entity.Object{
		ID: "t1", Kind: entity.KindTile,
		Position: entity.Vec2{100, 150}, Size: entity.Vec2{64, 16},
	}
	r := NewResolver(200, 200)
	pairs := r.Resolve([]*entity.Object{player, tile})

	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if pairs[0].A != "p1" || pairs[0].B != "t1" || pairs[0].Penetration != (entity.Vec2{0, 14}) {
		t.Errorf("pair = %+v", pairs[0])
	}
	if player.Position[1] != 118 || player.Velocity[1] != 0 || !player.Actor.Grounded {
		t.Errorf("player after landing: pos=%v vel=%v grounded=%v", player.Position, player.Velocity, player.Actor.Grounded)
	}
	if tile.Position != (entity.Vec2{100, 150}) {
		t.Errorf("tile moved to %v", tile.Position)
	}
}

func TestResolve_MinimumAxis(t *testing.T) {
	a := &entity.Object{ID: "e1", Kind: entity.KindEnemy, Position: entity.Vec2{0, 0}, Size: entity.Vec2{10, 10}}
	b := &entity.Object{ID: "e2", Kind: entity.KindEnemy, Position: entity.Vec2{7, 5}, Size: entity.Vec2{10, 10}}
	pairs := NewResolver(200, 200).Resolve([]*entity.Object{a, b})
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs", len(pairs))
	}
	if pen := pairs[0].Penetration; pen != (entity.Vec2{3, 0}) {
		t.Errorf("penetration = %v, want (3, 0)", pen)
	}
	// кожен відходить на половину
	if a.Position[0] != -1.5 || b.Position[0] != 8.5 {
		t.Errorf("separation: a=%v b=%v", a.Position, b.Position)
	}
}

func TestResolve_CutoffSkipsFarCenters(t *testing.T) {
	a := &entity.Object{ID: "e1", Kind: entity.KindEnemy, Position: entity.Vec2{0, 0}, Size: entity.Vec2{1000, 1000}}
	b := &entity.Object{ID: "e2", Kind: entity.KindEnemy, Position: entity.Vec2{250, 0}, Size: entity.Vec2{1000, 1000}}
	if pairs := NewResolver(200, 200).Resolve([]*entity.Object{a, b}); len(pairs) != 0 {
		t.Errorf("got %d pairs for centers 250 apart", len(pairs))
	}
}

func TestResolve_DynamicPairOnce(t *testing.T) {
	objs := []*entity.Object{
		{ID: "p1", Kind: entity.KindPlayer, Position: entity.Vec2{0, 0}, Size: entity.Vec2{32, 32}},
		{ID: "p2", Kind: entity.KindPlayer, Position: entity.Vec2{10, 30}, Size: entity.Vec2{32, 32}},
		{ID: "e1", Kind: entity.KindEnemy, Position: entity.Vec2{20, 5}, Size: entity.Vec2{32, 32}},
	}
	pairs := NewResolver(200, 200).Resolve(objs)
	seen := map[[2]string]int{}
	for _, p := range pairs {
		k := [2]string{p.A, p.B}
		if p.B < p.A {
			k = [2]string{p.B, p.A}
		}
		seen[k]++
	}
	for k, n := range seen {
		if n != 1 {
			t.Errorf("pair %v reported %d times", k, n)
		}
	}
	if len(seen) != 3 {
		t.Errorf("got %d distinct pairs, want 3", len(seen))
	}
}

func TestResolve_EnemyTurnsAtPlatform(t *testing.T) {
	enemy := &entity.Object{
		ID: "e1", Kind: entity.KindEnemy,
		Position: entity.Vec2{0, 0}, Velocity: entity.Vec2{60, 0}, Size: entity.Vec2{32, 32},
		Actor: entity.Actor{Facing: entity.FacingEast},
	}
	platform := &entity.Object{
		ID: "pl1", Kind: entity.KindPlatform,
		Position: entity.Vec2{30, -40}, Size: entity.Vec2{128, 100},
	}
	pairs := NewResolver(200, 200).Resolve([]*entity.Object{enemy, platform})
	if len(pairs) != 1 || pairs[0].Penetration != (entity.Vec2{2, 0}) {
		t.Fatalf("pairs = %+v", pairs)
	}
	if enemy.Position[0] != -2 {
		t.Errorf("enemy x = %v, want -2", enemy.Position[0])
	}
	if enemy.Velocity[0] != -60 || enemy.Actor.Facing != entity.FacingWest {
		t.Errorf("enemy did not turn: vel=%v facing=%v", enemy.Velocity, enemy.Actor.Facing)
	}
	if platform.Position != (entity.Vec2{30, -40}) {
		t.Errorf("platform moved to %v", platform.Position)
	}
}

func TestResolve_EnemyRestingOnTileKeepsDirection(t *testing.T) {
	// низ ворога рівно на верху тайла: 568+32 == 600
	enemy := &entity.Object{
		ID: "e1", Kind: entity.KindEnemy,
		Position: entity.Vec2{700, 568}, Velocity: entity.Vec2{-60, 0}, Size: entity.Vec2{32, 32},
		Actor: entity.Actor{Facing: entity.FacingWest},
	}
	floor := &entity.Object{
		ID: "t1", Kind: entity.KindTile,
		Position: entity.Vec2{640, 600}, Size: entity.Vec2{64, 16},
	}
	NewResolver(200, 200).Resolve([]*entity.Object{enemy, floor})

	if enemy.Velocity[0] != -60 || enemy.Actor.Facing != entity.FacingWest {
		t.Errorf("enemy turned on a zero-depth contact: vel=%v facing=%v", enemy.Velocity, enemy.Actor.Facing)
	}
	if enemy.Position != (entity.Vec2{700, 568}) {
		t.Errorf("enemy moved to %v", enemy.Position)
	}
}

func TestResolve_OneWayTile(t *testing.T) {
	oneWay := entity.Tile{Flags: entity.TileBlocksTop}

	// стрибок знизу крізь тайл
	jumper := &entity.Object{
		ID: "p1", Kind: entity.KindPlayer,
		Position: entity.Vec2{100, 160}, Velocity: entity.Vec2{0, -300}, Size: entity.Vec2{32, 32},
	}
	tile := &entity.Object{ID: "t1", Kind: entity.KindTile, Position: entity.Vec2{100, 150}, Size: entity.Vec2{64, 16}, Tile: oneWay}
	NewResolver(200, 200).Resolve([]*entity.Object{jumper, tile})
	if jumper.Position[1] != 160 || jumper.Velocity[1] != -300 {
		t.Errorf("one-way tile blocked from below: pos=%v vel=%v", jumper.Position, jumper.Velocity)
	}

	// падіння згори
	faller := &entity.Object{
		ID: "p2", Kind: entity.KindPlayer,
		Position: entity.Vec2{100, 130}, Velocity: entity.Vec2{0, 100}, Size: entity.Vec2{32, 32},
	}
	NewResolver(200, 200).Resolve([]*entity.Object{faller, tile})
	if faller.Position[1] != 118 || !faller.Actor.Grounded {
		t.Errorf("one-way tile did not hold from above: pos=%v", faller.Position)
	}
}

func TestResolve_SlowTile(t *testing.T) {
	p := &entity.Object{
		ID: "p1", Kind: entity.KindPlayer,
		Position: entity.Vec2{100, 132}, Velocity: entity.Vec2{200, 10}, Size: entity.Vec2{32, 32},
	}
	mud := &entity.Object{
		ID: "t1", Kind: entity.KindTile, Position: entity.Vec2{90, 150}, Size: entity.Vec2{64, 16},
		Tile: entity.Tile{Flags: entity.TileReducesSpeed},
	}
	NewResolver(200, 200).Resolve([]*entity.Object{p, mud})
	if p.Velocity[0] != 100 {
		t.Errorf("velocity.x = %v, want 100", p.Velocity[0])
	}
}

func TestResolve_EmptyBoxNeverCollides(t *testing.T) {
	a := &entity.Object{ID: "e1", Kind: entity.KindEnemy, Position: entity.Vec2{0, 0}, Size: entity.Vec2{0, 10}}
	b := &entity.Object{ID: "t1", Kind: entity.KindTile, Position: entity.Vec2{0, 0}, Size: entity.Vec2{10, 10}}
	if pairs := NewResolver(200, 200).Resolve([]*entity.Object{a, b}); len(pairs) != 0 {
		t.Errorf("zero-width box collided: %+v", pairs)
	}
}
