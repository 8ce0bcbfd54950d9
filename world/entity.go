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

// Йоу, чат! Тут живуть всі об'єкти світу і видаються їм id.
// Id - це префікс типу плюс номер з атомарного лічильника:
// "p1", "e2", "pl3", "t4". Номери ніколи не повторюються.

package world

import (
	"errors"
	"strconv"
	"sync/atomic"

	"golang.org/x/exp/slices"

	"SagaCore/world/entity"
)

// objectCounter - атомарний лічильник для генерації унікальних id
var objectCounter atomic.Int64

// NewObjectID генерує новий унікальний id для об'єкта типу k
func NewObjectID(k entity.Kind) string {
	return k.Prefix() + strconv.FormatInt(objectCounter.Add(1), 10)
}

var (
	ErrDuplicateID   = errors.New("world: duplicate object id")
	ErrUnknownObject = errors.New("world: unknown object")
)

// objectTable - об'єкти в порядку додавання плюс індекс по id.
// Порядок важливий: від нього залежить порядок пар зіткнень.
type objectTable struct {
	objs []*entity.Object
	byID map[string]int
}

func newObjectTable() *objectTable {
	return &objectTable{byID: make(map[string]int)}
}

func (t *objectTable) add(o *entity.Object) error {
	if _, ok := t.byID[o.ID]; ok {
		return ErrDuplicateID
	}
	t.byID[o.ID] = len(t.objs)
	t.objs = append(t.objs, o)
	return nil
}

func (t *objectTable) get(id string) *entity.Object {
	if i, ok := t.byID[id]; ok {
		return t.objs[i]
	}
	return nil
}

// remove видаляє об'єкт зі збереженням порядку решти
func (t *objectTable) remove(id string) bool {
	i, ok := t.byID[id]
	if !ok {
		return false
	}
	t.objs = slices.Delete(t.objs, i, i+1)
	delete(t.byID, id)
	for j := i; j < len(t.objs); j++ {
		t.byID[t.objs[j].ID] = j
	}
	return true
}

func (t *objectTable) all() []*entity.Object { return t.objs }

func (t *objectTable) len() int { return len(t.objs) }
