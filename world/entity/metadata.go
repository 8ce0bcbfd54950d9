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

// Йоу, чат! Зараз розберемо метадані об'єктів нашого світу!
// Метадані - це додаткова інформація, яку клієнт використовує для
// відображення об'єкта:
// - Який це об'єкт (гравець, ворог, тайл, платформа)
// - Куди він дивиться
// - Яку анімацію програвати
// - Як тайл поводиться при зіткненні

package entity

import "fmt"

// Kind - тег типу об'єкта. Значення йдуть у мережу як один байт.
type Kind uint8

const (
	KindPlayer   Kind = 1 // гравець
	KindEnemy    Kind = 2 // ворог (мінотавр і т.д.)
	KindTile     Kind = 3 // статичний тайл рівня
	KindPlatform Kind = 4 // кінематична платформа
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return k >= KindPlayer && k <= KindPlatform }

// Static - тайли ніколи не рухаються і не ініціюють зіткнень
func (k Kind) Static() bool { return k == KindTile }

// Actor - об'єкти з анімацією, напрямком і здоров'ям
func (k Kind) Actor() bool { return k == KindPlayer || k == KindEnemy }

// Prefix - префікс id для об'єктів цього типу
func (k Kind) Prefix() string {
	switch k {
	case KindPlayer:
		return "p"
	case KindEnemy:
		return "e"
	case KindPlatform:
		return "pl"
	default:
		return "t"
	}
}

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindEnemy:
		return "enemy"
	case KindTile:
		return "tile"
	case KindPlatform:
		return "platform"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// AnimState - стан анімації, клієнт сам вирішує які кадри показувати
type AnimState uint8

const (
	AnimIdle AnimState = iota
	AnimWalking
	AnimRunning
	AnimJumping
	AnimFalling
	AnimAttacking
	AnimHurt
	AnimDying
	AnimCustom
)

// Facing - куди дивиться актор
type Facing uint8

const (
	FacingWest Facing = iota
	FacingEast
	FacingNorth
	FacingSouth
	FacingNorthWest
	FacingNorthEast
	FacingSouthWest
	FacingSouthEast
)

// FacingFromVelocity вибирає напрямок по знаку швидкості.
// Вісь Y дивиться вниз, тому від'ємна y - це північ.
// При нульовій швидкості повертає fallback.
func FacingFromVelocity(vx, vy float32, fallback Facing) Facing {
	switch {
	case vx < 0 && vy < 0:
		return FacingNorthWest
	case vx > 0 && vy < 0:
		return FacingNorthEast
	case vx < 0 && vy > 0:
		return FacingSouthWest
	case vx > 0 && vy > 0:
		return FacingSouthEast
	case vx < 0:
		return FacingWest
	case vx > 0:
		return FacingEast
	case vy < 0:
		return FacingNorth
	case vy > 0:
		return FacingSouth
	}
	return fallback
}

// Mirror повертає протилежний горизонтальний напрямок
func (f Facing) Mirror() Facing {
	switch f {
	case FacingWest:
		return FacingEast
	case FacingEast:
		return FacingWest
	case FacingNorthWest:
		return FacingNorthEast
	case FacingNorthEast:
		return FacingNorthWest
	case FacingSouthWest:
		return FacingSouthEast
	case FacingSouthEast:
		return FacingSouthWest
	}
	return f
}

// TileFlags - бітові прапорці поведінки тайла
type TileFlags uint32

const (
	TileBlocksLeft        TileFlags = 0x01 // блокує рух зліва
	TileBlocksTop         TileFlags = 0x02 // на ньому можна стояти
	TileReducesSpeed      TileFlags = 0x04 // сповільнює (болото, вода)
	TileAllowsClimbing    TileFlags = 0x08 // драбина
	TileBlocksProjectiles TileFlags = 0x10
	TileBlocksRight       TileFlags = 0x20 // блокує рух справа

	tileBlocking = TileBlocksLeft | TileBlocksTop | TileBlocksRight
)

// Has reports whether every bit of mask is set.
func (f TileFlags) Has(mask TileFlags) bool { return f&mask == mask }

// Solid - тайл без жодного блокуючого прапорця вважається повністю твердим
func (f TileFlags) Solid() bool { return f&tileBlocking == 0 }

// BlocksTop reports whether an actor can stand on the tile.
func (f TileFlags) BlocksTop() bool { return f.Solid() || f.Has(TileBlocksTop) }

// BlocksSide reports whether the tile stops an actor moving horizontally.
// pushRight is true when the actor is being pushed back to the right,
// i.e. it hit the tile's right face.
func (f TileFlags) BlocksSide(pushRight bool) bool {
	if f.Solid() {
		return true
	}
	if pushRight {
		return f.Has(TileBlocksRight)
	}
	return f.Has(TileBlocksLeft)
}

// BlocksBottom - лише повністю тверді тайли б'ють по голові знизу
func (f TileFlags) BlocksBottom() bool { return f.Solid() }
