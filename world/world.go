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

// Йоу, чат! Сьогодні ми розберемо як влаштований світ у нашому сервері!
// Це центральний файл, який тримає всі об'єкти, гравців і все,
// що потрібно тіку: резолвер зіткнень, трекер дельт і чергу видалень.
// Все змінюється тільки під tickLock, тож тік і підключення гравців
// ніколи не бачать світ наполовину оновленим.

package world

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"SagaCore/protocol"
	"SagaCore/world/entity"
)

// World - головна структура, що представляє ігровий світ
type World struct {
	log     *zap.Logger
	config  Config
	tuning  Tuning
	level   LevelProvider
	out     Broadcaster
	journal Journal
	metrics *Metrics

	tickLock sync.Mutex // м'ютекс для синхронізації тіків
	objects  *objectTable
	players  map[string]*Player
	resolver *Resolver
	tracker  *DeltaTracker
	removed  []string // id, видалені з часу останньої розсилки
}

// Config - налаштування світу
type Config struct {
	TickRate       int // тіків на секунду
	BroadcastEvery int // розсилка дельти кожен N-й тік
	PacketBudget   int // максимальний розмір даних одного пакета стану
	Tuning         Tuning

	Journal Journal  // може бути nil
	Metrics *Metrics // може бути nil
}

// ErrBadConfig повертається з New при некоректних налаштуваннях
var ErrBadConfig = errors.New("world: bad config")

// New створює світ і заповнює його об'єктами рівня.
// Тік не запускається, для цього є Run.
func New(logger *zap.Logger, level LevelProvider, out Broadcaster, config Config) (*World, error) {
	if config.TickRate <= 0 {
		return nil, fmt.Errorf("%w: tick rate %d", ErrBadConfig, config.TickRate)
	}
	if config.BroadcastEvery <= 0 {
		config.BroadcastEvery = 1
	}
	if config.PacketBudget <= 0 {
		config.PacketBudget = protocol.DefaultPacketBudget
	}
	if config.Metrics == nil {
		config.Metrics = new(Metrics)
	}
	t := config.Tuning
	w := &World{
		log:      logger,
		config:   config,
		tuning:   t,
		level:    level,
		out:      out,
		journal:  config.Journal,
		metrics:  config.Metrics,
		objects:  newObjectTable(),
		players:  make(map[string]*Player),
		resolver: NewResolver(t.CellSize, t.BroadPhaseCutoff),
		tracker:  NewDeltaTracker(t.DeltaEpsilon),
	}

	objs, err := level.Objects()
	if err != nil {
		return nil, fmt.Errorf("load level: %w", err)
	}
	for i := range objs {
		o := objs[i]
		if !o.Kind.Valid() || o.Kind == entity.KindPlayer {
			return nil, fmt.Errorf("%w: level object %d has kind %v", ErrBadLevel, i, o.Kind)
		}
		if o.ID == "" {
			o.ID = NewObjectID(o.Kind)
		}
		if o.Kind == entity.KindEnemy && o.Actor.Health == 0 {
			o.Actor.Health = t.EnemyHealth
		}
		if err := w.objects.add(&o); err != nil {
			return nil, fmt.Errorf("level object %q: %w", o.ID, err)
		}
	}
	logger.Info("World created",
		zap.Int("objects", w.objects.len()),
		zap.Int("tick rate", config.TickRate),
		zap.Int("broadcast every", config.BroadcastEvery),
	)
	return w, nil
}

// Metrics повертає лічильники світу
func (w *World) Metrics() *Metrics { return w.metrics }

// AddPlayer додає гравця зі спавну і одразу відправляє йому повний
// стан світу. Все під tickLock, тож повний стан і наступна дельта
// не можуть розминутись.
func (w *World) AddPlayer(v Viewer, name string) (*Player, error) {
	w.tickLock.Lock()
	defer w.tickLock.Unlock()

	id := v.ID()
	if _, ok := w.players[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	o := &entity.Object{
		ID:       id,
		Kind:     entity.KindPlayer,
		Position: w.level.PlayerSpawn(),
		Size:     w.tuning.PlayerSize,
		Actor:    entity.Actor{Facing: entity.FacingEast, Health: 100},
	}
	if err := w.objects.add(o); err != nil {
		return nil, fmt.Errorf("%w: %s", err, id)
	}
	p := &Player{Object: o, Name: name, viewer: v}
	w.players[id] = p

	msgs, err := w.encodeState(protocol.GameState, w.objects.all())
	if err != nil {
		w.log.Error("Encode full state", zap.String("player", id), zap.Error(err))
	} else {
		v.Send(msgs...)
	}
	w.log.Debug("Add Player", zap.String("player", id), zap.String("name", name), zap.Int("parts", len(msgs)))
	return p, nil
}

// RemovePlayer видаляє гравця зі світу. Решта клієнтів дізнається
// про це з OBJECTS_REMOVED на наступній розсилці.
func (w *World) RemovePlayer(id string) {
	w.tickLock.Lock()
	defer w.tickLock.Unlock()
	if _, ok := w.players[id]; !ok {
		return
	}
	delete(w.players, id)
	w.removeObject(id)
	w.log.Debug("Remove Player", zap.String("player", id), zap.Int("players", len(w.players)))
}

func (w *World) removeObject(id string) {
	if w.objects.remove(id) {
		w.tracker.Forget(id)
		w.removed = append(w.removed, id)
	}
}

// ApplyEnemyState застосовує ENEMY_STATE_UPDATE від клієнта і
// розсилає його всім. Мертвий ворог видаляється зі світу.
func (w *World) ApplyEnemyState(s protocol.EnemyState) error {
	w.tickLock.Lock()
	defer w.tickLock.Unlock()

	o := w.objects.get(s.ID)
	if o == nil || o.Kind != entity.KindEnemy {
		return fmt.Errorf("%w: %s", ErrUnknownObject, s.ID)
	}
	o.Actor.Health = s.Health
	if s.Dead || s.Health <= 0 {
		o.Actor.Dead = true
		o.Actor.Anim = entity.AnimDying
		o.Velocity = entity.Vec2{}
		w.removeObject(o.ID)
	}
	m, err := protocol.EnemyStateMessage(s)
	if err != nil {
		return err
	}
	w.out.Broadcast(m)
	return nil
}

// Objects повертає копію всіх об'єктів у порядку таблиці
func (w *World) Objects() []entity.Object {
	w.tickLock.Lock()
	defer w.tickLock.Unlock()
	out := make([]entity.Object, 0, w.objects.len())
	for _, o := range w.objects.all() {
		out = append(out, o.Clone())
	}
	return out
}

// Object повертає копію об'єкта за id
func (w *World) Object(id string) (entity.Object, bool) {
	w.tickLock.Lock()
	defer w.tickLock.Unlock()
	if o := w.objects.get(id); o != nil {
		return o.Clone(), true
	}
	return entity.Object{}, false
}

// PlayerCount - кількість гравців у світі
func (w *World) PlayerCount() int {
	w.tickLock.Lock()
	defer w.tickLock.Unlock()
	return len(w.players)
}

// encodeState кодує об'єкти і ділить їх на пакети по бюджету.
// Об'єкт, який не вдалось закодувати, пропускається з логом.
func (w *World) encodeState(t protocol.Type, objs []*entity.Object) ([]protocol.Message, error) {
	encoded := make([][]byte, 0, len(objs))
	for _, o := range objs {
		b, err := protocol.AppendObject(nil, o)
		if err != nil {
			w.log.Warn("Skip object", zap.String("id", o.ID), zap.Stringer("kind", o.Kind), zap.Error(err))
			continue
		}
		encoded = append(encoded, b)
	}
	return protocol.Pack(t, encoded, w.config.PacketBudget)
}
