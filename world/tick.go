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

// Йоу, чат! Сьогодні ми розберемо як працює система тіків у нашому сервері!
// Тік - це основна одиниця часу: за замовчуванням 60 разів на секунду.
// За один тік сервер:
//  1. забирає ввід гравців
//  2. рухає всі об'єкти
//  3. вирішує зіткнення
//  4. розсилає зміни (кожен BroadcastEvery-й тік)
// Все це під одним tickLock.

package world

import (
	"context"
	"time"

	"github.com/Tnze/go-mc/chat"
	"go.uber.org/zap"

	"SagaCore/protocol"
	"SagaCore/world/entity"
)

// TickRecord - підсумок одного активного тіку для журналу
type TickRecord struct {
	Tick       uint64   `json:"tick"`
	Objects    int      `json:"objects"`
	Players    int      `json:"players"`
	Collisions int      `json:"collisions"`
	Changed    int      `json:"changed"`
	Removed    []string `json:"removed,omitempty"`
	Messages   int      `json:"messages"`
	DurationUS int64    `json:"duration_us"`
}

// Journal отримує записи тіків. Викликається вже після tickLock.
type Journal interface {
	WriteTick(rec TickRecord) error
}

// Run крутить тіки з фіксованим періодом поки ctx не скасовано.
// Якщо тік не вклався в період, наступний стартує одразу.
func (w *World) Run(ctx context.Context) {
	period := time.Second / time.Duration(w.config.TickRate)
	timer := time.NewTimer(period)
	defer timer.Stop()

	for n := uint64(0); ; n++ {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		w.safeTick(n)
		elapsed := time.Since(start)

		sleep := period - elapsed
		if sleep < 0 {
			w.metrics.Overruns.Add(1)
			w.log.Warn("Tick overrun", zap.Uint64("tick", n), zap.Duration("elapsed", elapsed), zap.Duration("period", period))
			sleep = 0
		}
		timer.Reset(sleep)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// safeTick виконує тік і не дає паніці вбити цикл
func (w *World) safeTick(n uint64) {
	defer func() {
		if r := recover(); r != nil {
			w.metrics.Panics.Add(1)
			w.log.Error("Tick panic", zap.Uint64("tick", n), zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	start := time.Now()
	rec, active := w.tick(n)
	w.metrics.AddTick(time.Since(start).Nanoseconds())
	if !active || w.journal == nil {
		return
	}
	rec.DurationUS = time.Since(start).Microseconds()
	if err := w.journal.WriteTick(rec); err != nil {
		w.log.Warn("Journal write", zap.Uint64("tick", n), zap.Error(err))
	}
}

// tick виконує одне оновлення світу.
// Без жодного гравця тік пропускається, а накопичені видалення
// скидаються: новий гравець все одно отримає повний стан.
func (w *World) tick(n uint64) (rec TickRecord, active bool) {
	w.tickLock.Lock()
	defer w.tickLock.Unlock()

	if w.out.Len() == 0 {
		w.removed = w.removed[:0]
		w.metrics.IdleTicks.Add(1)
		return rec, false
	}

	dt := 1 / float32(w.config.TickRate)
	w.subtickInputs()
	w.subtickSimulate(dt)
	pairs := w.resolver.Resolve(w.objects.all())
	w.metrics.Collisions.Add(int64(len(pairs)))

	rec = TickRecord{
		Tick:       n,
		Objects:    w.objects.len(),
		Players:    len(w.players),
		Collisions: len(pairs),
	}
	if n%uint64(w.config.BroadcastEvery) == 0 {
		w.subtickBroadcast(&rec)
	}
	return rec, true
}

// subtickInputs забирає ввід гравців. Якщо обробник пакета зараз
// тримає Inputs, гравець пропускається і дорухається на старому вводі.
func (w *World) subtickInputs() {
	for id, p := range w.players {
		if !p.Inputs.TryLock() {
			continue
		}
		inputs := &p.Inputs
		buttons, driven := inputs.Buttons, inputs.driven
		corr, hasCorr := inputs.Correction, inputs.HasCorrection
		inputs.HasCorrection = false
		p.Inputs.Unlock()

		if hasCorr && !w.applyCorrection(id, p, corr) {
			continue
		}
		if driven {
			w.applyButtons(p, buttons)
		}
	}
}

// applyCorrection приймає позицію від клієнта, якщо вона близька до
// серверної. Повертає false якщо гравця відключено.
func (w *World) applyCorrection(id string, p *Player, corr protocol.Position) bool {
	o := p.Object
	if !corr.Position.IsValid() || !corr.Velocity.IsValid() {
		w.log.Info("Player move invalid",
			zap.String("player", id),
			zap.Float32("x", corr.Position[0]),
			zap.Float32("y", corr.Position[1]),
		)
		p.viewer.SendDisconnect(chat.TranslateMsg("multiplayer.disconnect.invalid_player_movement"))
		return false
	}
	if dist := corr.Position.Sub(o.Position).Norm(); dist > float64(w.tuning.MaxCorrection) {
		// Завелика відстань - можливий чіт. Клієнт отримає серверну
		// позицію з наступною дельтою.
		w.log.Debug("Player correction ignored", zap.String("player", id), zap.Float64("distance", dist))
		return true
	}
	o.Position = corr.Position
	o.Velocity = corr.Velocity
	if corr.HasState {
		o.Actor.Facing = corr.Facing
	}
	return true
}

func (w *World) applyButtons(p *Player, buttons byte) {
	o := p.Object
	topDown := w.tuning.Gravity == 0
	dir := direction(buttons, topDown)
	o.Velocity[0] = dir[0] * w.tuning.PlayerSpeed
	if topDown {
		o.Velocity[1] = dir[1] * w.tuning.PlayerSpeed
	} else if buttons&protocol.InputJump != 0 && o.Actor.Grounded {
		o.Velocity[1] = -w.tuning.JumpSpeed
	}
	if buttons&protocol.InputAttack != 0 && p.attackLeft <= 0 {
		p.attackLeft = time.Duration(w.tuning.AttackMs) * time.Millisecond
	}
}

// subtickSimulate рухає об'єкти на dt секунд
func (w *World) subtickSimulate(dt float32) {
	step := time.Duration(float64(dt) * float64(time.Second))
	for _, o := range w.objects.all() {
		switch o.Kind {
		case entity.KindPlayer:
			p := w.players[o.ID]
			attacking := p != nil && p.attackLeft > 0
			if p != nil {
				p.attackLeft -= step
			}
			w.animate(o, attacking)
			w.integrate(o, dt)
		case entity.KindEnemy:
			if o.Actor.Dead {
				continue
			}
			if o.Velocity[0] == 0 {
				o.Velocity[0] = -w.tuning.EnemySpeed
				if o.Actor.Facing == entity.FacingEast {
					o.Velocity[0] = w.tuning.EnemySpeed
				}
			}
			w.animate(o, false)
			w.integrate(o, dt)
		case entity.KindPlatform:
			o.Position = o.Position.Add(o.Velocity.Mul(dt))
		}
	}
}

// integrate застосовує гравітацію і швидкість. Grounded скидається,
// і знову стане true тільки якщо резолвер поставить актора на опору.
func (w *World) integrate(o *entity.Object, dt float32) {
	if w.tuning.Gravity > 0 {
		o.Velocity[1] += w.tuning.Gravity * dt
	}
	o.Actor.Grounded = false
	o.Position = o.Position.Add(o.Velocity.Mul(dt))
	o.Actor.Facing = entity.FacingFromVelocity(o.Velocity[0], o.Velocity[1], o.Actor.Facing)
}

func (w *World) animate(o *entity.Object, attacking bool) {
	speed := o.Velocity.Norm()
	switch {
	case attacking:
		o.Actor.Anim = entity.AnimAttacking
	case w.tuning.Gravity > 0 && !o.Actor.Grounded:
		if o.Velocity[1] < 0 {
			o.Actor.Anim = entity.AnimJumping
		} else {
			o.Actor.Anim = entity.AnimFalling
		}
	case speed > 1.5*float64(w.tuning.PlayerSpeed):
		o.Actor.Anim = entity.AnimRunning
	case speed > 0:
		o.Actor.Anim = entity.AnimWalking
	default:
		o.Actor.Anim = entity.AnimIdle
	}
}

// subtickBroadcast розсилає видалення і дельту одним пакетом.
// Якщо нічого не змінилось, йде heartbeat з нульовою кількістю.
func (w *World) subtickBroadcast(rec *TickRecord) {
	var batch []protocol.Message
	if len(w.removed) > 0 {
		m, err := protocol.ObjectsRemovedMessage(w.removed)
		if err != nil {
			w.log.Error("Encode removed objects", zap.Int("count", len(w.removed)), zap.Error(err))
		} else {
			batch = append(batch, m)
		}
		rec.Removed = append([]string(nil), w.removed...)
		w.removed = w.removed[:0]
	}

	primed := w.tracker.Primed()
	changed := w.tracker.Update(w.objects.all())
	rec.Changed = len(changed)
	if len(changed) > 0 || primed {
		msgs, err := w.encodeState(protocol.GameStateDelta, changed)
		if err != nil {
			w.log.Error("Encode delta", zap.Int("changed", len(changed)), zap.Error(err))
		} else {
			batch = append(batch, msgs...)
		}
	}
	if len(batch) == 0 {
		return
	}
	rec.Messages = len(batch)
	w.metrics.ObjectsSent.Add(int64(len(changed)))
	w.metrics.StateBatches.Add(1)
	w.out.Broadcast(batch...)
}
