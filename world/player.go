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

// Йоу, чат! Сьогодні ми розберемо як влаштований гравець у нашому сервері!
// Гравець - це об'єкт світу (entity.Object з типом KindPlayer) плюс
// все, що сервер знає про підключення: ім'я, затримку і останній ввід.
// Ввід пишуть горутини клієнта, а читає тільки тік.

package world

import (
	"sync"
	"time"

	"SagaCore/protocol"
	"SagaCore/world/entity"
)

// Player - гравець у світі
type Player struct {
	Object *entity.Object // об'єкт гравця в таблиці світу
	Name   string         // ім'я з CONNECT
	viewer Viewer

	attackLeft time.Duration // скільки ще грати анімацію атаки

	Inputs Inputs // поточний стан вводу від клієнта
}

// ID повертає id гравця
func (p *Player) ID() string { return p.Object.ID }

// Inputs - структура для зберігання стану вводу від клієнта
// Захищена мютексом: пишуть обробники пакетів, читає тік через TryLock
type Inputs struct {
	sync.Mutex
	Buttons byte          // біти PLAYER_INPUT
	Latency time.Duration // затримка з keep-alive
	driven  bool          // клієнт хоч раз присилав PLAYER_INPUT

	// Correction - останній PLAYER_POSITION, ще не застосований тіком
	Correction    protocol.Position
	HasCorrection bool
}

// SetButtons записує стан кнопок
func (i *Inputs) SetButtons(b byte) {
	i.Lock()
	i.Buttons = b
	i.driven = true
	i.Unlock()
}

// SetCorrection записує позицію, яку прислав клієнт
func (i *Inputs) SetCorrection(p protocol.Position) {
	i.Lock()
	i.Correction = p
	i.HasCorrection = true
	i.Unlock()
}

// SetLatency записує виміряну затримку
func (i *Inputs) SetLatency(d time.Duration) {
	i.Lock()
	i.Latency = d
	i.Unlock()
}

// direction перетворює біти кнопок на вектор напрямку
func direction(buttons byte, vertical bool) (d entity.Vec2) {
	if buttons&protocol.InputLeft != 0 {
		d[0]--
	}
	if buttons&protocol.InputRight != 0 {
		d[0]++
	}
	if vertical {
		if buttons&protocol.InputUp != 0 {
			d[1]--
		}
		if buttons&protocol.InputDown != 0 {
			d[1]++
		}
	}
	if d[0] != 0 && d[1] != 0 {
		// по діагоналі не швидше ніж по прямій
		d = d.Mul(float32(1 / d.Norm()))
	}
	return
}
