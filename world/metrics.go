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

import "sync/atomic"

// Metrics - лічильники сервера для /metrics. Всі поля атомарні,
// тож їх можна інкрементувати з тіку і з горутин клієнтів.
type Metrics struct {
	Ticks        atomic.Int64 // виконані тіки
	IdleTicks    atomic.Int64 // тіки без жодного гравця
	Overruns     atomic.Int64 // тіки, що не влізли в період
	Panics       atomic.Int64 // тіки, що впали з панікою
	TotalTickNs  atomic.Int64 // сумарний час тіків
	Collisions   atomic.Int64 // пари зіткнень
	ObjectsSent  atomic.Int64 // об'єкти в GAME_STATE_DELTA
	StateBatches atomic.Int64 // розіслані пакети стану

	MessagesIn    atomic.Int64 // прийняті повідомлення
	MessagesOut   atomic.Int64 // записані повідомлення
	Malformed     atomic.Int64 // відкинуті криві повідомлення
	RateLimited   atomic.Int64 // відкинуті лімітером
	SlowConsumers atomic.Int64 // клієнти, відключені через повну чергу
	Sessions      atomic.Int64 // відкриті з'єднання зараз
}

// AddTick записує тривалість одного тіку
func (m *Metrics) AddTick(ns int64) {
	m.Ticks.Add(1)
	m.TotalTickNs.Add(ns)
}

// Snapshot повертає копію для HTTP виводу
func (m *Metrics) Snapshot() map[string]any {
	ticks := m.Ticks.Load()
	var avgMs float64
	if ticks > 0 {
		avgMs = float64(m.TotalTickNs.Load()) / float64(ticks) / 1e6
	}
	return map[string]any{
		"ticks":          ticks,
		"idle_ticks":     m.IdleTicks.Load(),
		"overruns":       m.Overruns.Load(),
		"panics":         m.Panics.Load(),
		"avg_tick_ms":    avgMs,
		"collisions":     m.Collisions.Load(),
		"objects_sent":   m.ObjectsSent.Load(),
		"state_batches":  m.StateBatches.Load(),
		"messages_in":    m.MessagesIn.Load(),
		"messages_out":   m.MessagesOut.Load(),
		"malformed":      m.Malformed.Load(),
		"rate_limited":   m.RateLimited.Load(),
		"slow_consumers": m.SlowConsumers.Load(),
		"sessions":       m.Sessions.Load(),
	}
}
