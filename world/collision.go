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

// Йоу, чат! Зараз розберемо як працюють зіткнення!
// Все йде в три кроки:
//  1. Broad-phase: кладемо всі об'єкти в сітку і для кожного динамічного
//     беремо тільки сусідів по клітинках. Далекі пари відкидаємо по
//     відстані між центрами.
//  2. Narrow-phase: точна перевірка перетину AABB.
//  3. Вирішення: вибираємо вісь з меншим перетином і розсилаємо обом
//     учасникам контакт. Що робити з контактом - вирішує таблиця по
//     парі (хто отримує, з ким зіткнувся).

package world

import (
	"SagaCore/world/entity"
	"SagaCore/world/internal/spatial"
)

// Collision - одна пара, що зіткнулась за тік.
// Penetration вказує від A до B вздовж осі найменшого перетину.
type Collision struct {
	A, B        string
	Penetration entity.Vec2
}

// contact - те, що отримує кожен учасник зіткнення.
// Penetration вказує від отримувача до other; щоб розійтись,
// отримувач віднімає її від своєї позиції.
type contact struct {
	other       *entity.Object
	penetration entity.Vec2
}

type interaction func(self *entity.Object, c contact)

// kindGuard - розмір таблиці взаємодій
const kindGuard = entity.KindPlatform + 1

// interactions[отримувач][інший]. nil означає "нічого не робити".
var interactions = [kindGuard][kindGuard]interaction{
	entity.KindPlayer: {
		entity.KindPlayer:   actorHitsActor,
		entity.KindEnemy:    playerHitsEnemy,
		entity.KindTile:     actorHitsSolid,
		entity.KindPlatform: actorHitsSolid,
	},
	entity.KindEnemy: {
		entity.KindPlayer:   actorHitsActor,
		entity.KindEnemy:    actorHitsActor,
		entity.KindTile:     actorHitsSolid,
		entity.KindPlatform: actorHitsSolid,
	},
	// тайли і платформи не зсуваються від зіткнень
}

// Resolver шукає і вирішує зіткнення. Не потокобезпечний,
// викликається тільки з тіку під tickLock.
type Resolver struct {
	grid   *spatial.Grid
	cutoff float32
}

// NewResolver створює резолвер з розміром клітинки і відсіченням по відстані
func NewResolver(cellSize, cutoff float32) *Resolver {
	if !(cutoff > 0) {
		cutoff = spatial.DefaultCellSize
	}
	return &Resolver{grid: spatial.NewGrid(cellSize), cutoff: cutoff}
}

// Resolve перебудовує сітку, знаходить всі зіткнення серед objs,
// застосовує корекції позицій і швидкостей і повертає пари в порядку
// знаходження.
func (r *Resolver) Resolve(objs []*entity.Object) []Collision {
	r.grid.Clear()
	for i, o := range objs {
		r.grid.Insert(i, o.Bounds())
	}

	var result []Collision
	cutoff2 := r.cutoff * r.cutoff
	for i, a := range objs {
		if a.Kind.Static() {
			continue
		}
		for _, j := range r.grid.Query(i, a.Bounds()) {
			b := objs[j]
			// пару двох динамічних об'єктів обробляє той, у кого менший індекс
			if !b.Kind.Static() && j < i {
				continue
			}
			d := b.Center().Sub(a.Center())
			if d.Dot(d) > cutoff2 {
				continue
			}
			boxA, boxB := a.Bounds(), b.Bounds()
			if !boxA.Overlaps(boxB) {
				continue
			}
			pen := penetration(boxA.Overlap(boxB), d)
			dispatch(b, contact{other: a, penetration: pen.Neg()})
			dispatch(a, contact{other: b, penetration: pen})
			result = append(result, Collision{A: a.ID, B: b.ID, Penetration: pen})
		}
	}
	return result
}

// penetration вибирає вісь з меншим перетином (при рівності - X)
// і направляє вектор від A до B
func penetration(overlap, d entity.Vec2) (pen entity.Vec2) {
	axis := 1
	if overlap[0] <= overlap[1] {
		axis = 0
	}
	pen[axis] = overlap[axis]
	if d[axis] < 0 {
		pen[axis] = -overlap[axis]
	}
	return
}

func dispatch(self *entity.Object, c contact) {
	if self.Kind >= kindGuard || c.other.Kind >= kindGuard {
		return
	}
	if f := interactions[self.Kind][c.other.Kind]; f != nil {
		f(self, c)
	}
}

// actorHitsSolid - гравець або ворог вдарився в тайл чи платформу
func actorHitsSolid(self *entity.Object, c contact) {
	var flags entity.TileFlags // у платформ прапорців немає, вони тверді
	if c.other.Kind == entity.KindTile {
		flags = c.other.Tile.Flags
	}
	pen := c.penetration

	if pen[1] != 0 {
		if pen[1] > 0 {
			// стоїмо зверху
			if !flags.BlocksTop() || (!flags.Solid() && self.Velocity[1] < 0) {
				return
			}
			self.Position[1] -= pen[1]
			if self.Velocity[1] > 0 {
				self.Velocity[1] = 0
			}
			self.Actor.Grounded = true
			if flags.Has(entity.TileReducesSpeed) {
				self.Velocity[0] /= 2
			}
		} else {
			// вдарились головою знизу
			if !flags.BlocksBottom() {
				return
			}
			self.Position[1] -= pen[1]
			if self.Velocity[1] < 0 {
				self.Velocity[1] = 0
			}
		}
		return
	}

	// збоку: pen[0] > 0 означає що перешкода праворуч.
	// Дотик краями без глибини нічого не змінює.
	if pen[0] == 0 || !flags.BlocksSide(pen[0] < 0) {
		return
	}
	self.Position[0] -= pen[0]
	if self.Kind == entity.KindEnemy {
		turnAround(self, pen[0] > 0)
	}
}

// turnAround розвертає ворога від перешкоди
func turnAround(self *entity.Object, obstacleRight bool) {
	speed := self.Velocity[0]
	if speed < 0 {
		speed = -speed
	}
	if obstacleRight {
		speed = -speed
	}
	self.Velocity[0] = speed
	self.Actor.Facing = entity.FacingFromVelocity(speed, 0, self.Actor.Facing.Mirror())
}

// actorHitsActor - два актори розштовхуються, кожен на половину
func actorHitsActor(self *entity.Object, c contact) {
	self.Position = self.Position.Sub(c.penetration.Mul(0.5))
}

func playerHitsEnemy(self *entity.Object, c contact) {
	actorHitsActor(self, c)
	if !c.other.Actor.Dead {
		self.Actor.Anim = entity.AnimHurt
	}
}
