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

// Йоу, чат! Тут інтерфейси, через які світ говорить з клієнтами.
// Світ не знає нічого про сокети: він тільки кладе повідомлення
// в черги, а відправкою займається пакет client.

package world

import (
	"github.com/Tnze/go-mc/chat"

	"SagaCore/protocol"
)

// Viewer - один підключений гравець з точки зору світу
type Viewer interface {
	ID() string                         // id гравця, наприклад "p7"
	Send(msgs ...protocol.Message)      // поставити пакет повідомлень у чергу
	SendDisconnect(reason chat.Message) // відправити DISCONNECT і закрити
}

// Broadcaster - всі підключені гравці разом
type Broadcaster interface {
	// Len - кількість гравців, що отримують розсилку
	Len() int
	// Broadcast ставить повідомлення в чергу кожного гравця одним пакетом,
	// щоб частини одного оновлення не перемішались з іншими
	Broadcast(msgs ...protocol.Message)
}
