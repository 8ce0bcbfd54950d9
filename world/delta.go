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

import "SagaCore/world/entity"

// DefaultDeltaEpsilon - зсув, менший за який не вважається зміною
const DefaultDeltaEpsilon float32 = 0.001

// snapshot - те, що клієнт вже бачив про об'єкт
type snapshot struct {
	kind     entity.Kind
	position entity.Vec2
	velocity entity.Vec2
	size     entity.Vec2
	anim     entity.AnimState
	facing   entity.Facing
	tile     entity.Tile
}

func takeSnapshot(o *entity.Object) snapshot {
	s := snapshot{kind: o.Kind, position: o.Position, velocity: o.Velocity}
	switch o.Kind {
	case entity.KindPlayer, entity.KindEnemy:
		s.anim, s.facing = o.Actor.Anim, o.Actor.Facing
	case entity.KindTile:
		s.tile = o.Tile
	case entity.KindPlatform:
		s.size = o.Size
	}
	return s
}

func (s snapshot) changed(n snapshot, eps float32) bool {
	return s.kind != n.kind ||
		!s.position.Near(n.position, eps) ||
		!s.velocity.Near(n.velocity, eps) ||
		s.size != n.size ||
		s.anim != n.anim ||
		s.facing != n.facing ||
		s.tile != n.tile
}

// DeltaTracker пам'ятає стан об'єктів на момент останньої розсилки
// і знаходить ті, що змінились відтоді.
type DeltaTracker struct {
	epsilon   float32
	snapshots map[string]snapshot
	primed    bool
}

// NewDeltaTracker створює трекер. eps <= 0 означає DefaultDeltaEpsilon.
func NewDeltaTracker(eps float32) *DeltaTracker {
	if !(eps > 0) {
		eps = DefaultDeltaEpsilon
	}
	return &DeltaTracker{epsilon: eps, snapshots: make(map[string]snapshot)}
}

// Update повертає об'єкти з live, що з'явились або змінились з
// попереднього виклику, і замінює збережені знімки поточним станом.
// Об'єкти, яких більше немає в live, просто забуваються.
func (t *DeltaTracker) Update(live []*entity.Object) []*entity.Object {
	var changed []*entity.Object
	next := make(map[string]snapshot, len(live))
	for _, o := range live {
		s := takeSnapshot(o)
		if prev, ok := t.snapshots[o.ID]; !ok || prev.changed(s, t.epsilon) {
			changed = append(changed, o)
		}
		next[o.ID] = s
	}
	t.snapshots = next
	t.primed = true
	return changed
}

// Forget прибирає знімок видаленого об'єкта. Якщо id з'явиться
// знову, наступний Update повідомить про нього як про новий.
func (t *DeltaTracker) Forget(id string) { delete(t.snapshots, id) }

// Primed - чи був хоч один Update. До першого Update heartbeat не шлеться.
func (t *DeltaTracker) Primed() bool { return t.primed }

// Len - кількість збережених знімків
func (t *DeltaTracker) Len() int { return len(t.snapshots) }
