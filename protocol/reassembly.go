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

package protocol

import (
	"errors"
	"fmt"

	"SagaCore/world/entity"
)

// ErrOutOfOrder - частина прийшла не в тій послідовності.
// Номерів поколінь у протоколі немає, тому це означає що два оновлення
// переплелися на дроті, і зібране треба викинути.
var ErrOutOfOrder = errors.New("protocol: state part out of order")

// Update - повністю зібране оновлення стану
type Update struct {
	// Full - прийшов GAME_STATE. Зібране з GAME_STATE_PART завжди має
	// Full == false: на дроті частини повного стану і дельти однакові.
	// Клієнт, якому це важливо, вважає повним перше оновлення після
	// PLAYER_ASSIGN.
	Full    bool
	Objects []entity.Object
	Skipped int // об'єкти з NaN/Inf, які довелось пропустити
}

// Reassembler збирає GAME_STATE_PART назад в одне оновлення.
// Використовується клієнтом (tools/bot) і тестами.
type Reassembler struct {
	active  bool
	total   uint16
	next    uint16
	objs    []entity.Object
	skipped int
}

// Push приймає одне повідомлення стану. ok стає true коли оновлення
// завершене. Повідомлення інших типів ігноруються.
func (r *Reassembler) Push(m Message) (u Update, ok bool, err error) {
	switch m.Type {
	case GameState, GameStateDelta:
		if r.active {
			r.reset()
			return u, false, fmt.Errorf("%w: %v inside a split update", ErrOutOfOrder, m.Type)
		}
		count, rest, err := ParseCount(m.Data)
		if err != nil {
			return u, false, err
		}
		objs, skipped, err := DecodeObjects(rest, count)
		if err != nil {
			return u, false, err
		}
		return Update{Full: m.Type == GameState, Objects: objs, Skipped: skipped}, true, nil
	case GameStatePart:
		return r.pushPart(m.Data)
	}
	return u, false, nil
}

func (r *Reassembler) pushPart(data []byte) (u Update, ok bool, err error) {
	h, rest, err := ParsePartHeader(data)
	if err != nil {
		r.reset()
		return u, false, err
	}
	if h.First() {
		if r.active {
			r.reset()
			return u, false, fmt.Errorf("%w: new update started before the previous one ended", ErrOutOfOrder)
		}
		if h.Start != 0 {
			return u, false, fmt.Errorf("%w: first part starts at %d", ErrOutOfOrder, h.Start)
		}
		r.active, r.total, r.next = true, h.Total, 0
		r.objs = make([]entity.Object, 0, h.Total)
	}
	if !r.active || h.Start != r.next || h.Total != r.total {
		r.reset()
		return u, false, fmt.Errorf("%w: part %d/%d", ErrOutOfOrder, h.Start, h.Total)
	}
	objs, skipped, err := DecodeObjects(rest, int(h.Count))
	if err != nil {
		r.reset()
		return u, false, err
	}
	r.objs = append(r.objs, objs...)
	r.skipped += skipped
	r.next += h.Count
	if !h.Last() {
		return u, false, nil
	}
	if r.next != r.total {
		r.reset()
		return u, false, fmt.Errorf("%w: last part ends at %d of %d", ErrOutOfOrder, r.next, r.total)
	}
	u = Update{Objects: r.objs, Skipped: r.skipped}
	r.reset()
	return u, true, nil
}

func (r *Reassembler) reset() {
	r.active, r.total, r.next, r.objs, r.skipped = false, 0, 0, nil, 0
}
