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

// Йоу, чат! Зараз розберемо конфігурацію нашого сервера!
// Тут зберігаються всі налаштування які можна змінити в config.toml

package game

import (
	"time"

	"golang.org/x/time/rate"
)

// Config - головна структура з налаштуваннями сервера
// Поля з тегом `toml` читаються з конфіг файлу
type Config struct {
	// IP адреса і порт TCP сервера, наприклад "0.0.0.0:8282"
	ListenAddress string `toml:"listen-address"`
	// Адреса HTTP: /ws, /metrics, /healthz. Порожня - HTTP вимкнено
	HTTPAddress string `toml:"http-address"`

	// Максимальна кількість гравців на сервері
	MaxPlayers int `toml:"max-players"`

	// Тіків на секунду і як часто розсилати дельту
	TickRate       int `toml:"tick-rate"`
	BroadcastEvery int `toml:"broadcast-every"`

	// Найбільше тіло вхідного повідомлення
	MaxMessageSize int `toml:"max-message-size"`
	// Скільки даних влазить в один пакет стану
	PacketBudget int `toml:"packet-budget"`
	// Довжина черги відправки одного клієнта
	SendQueueSize int `toml:"send-queue-size"`

	// Чи пінгувати клієнтів і відключати тих, хто мовчить
	KeepAlive bool `toml:"keep-alive"`
	// Скільки чекати завершення всіх горутин при зупинці
	ShutdownTimeout duration `toml:"shutdown-timeout"`

	// Файл з фізикою (tuning.yaml). Порожній - значення за замовчуванням
	TuningFile string `toml:"tuning-file"`
	// Папка для журналу тіків. Порожня - журнал вимкнено
	JournalDir string `toml:"journal-dir"`

	Log LogConfig `toml:"log"`

	// Обмежувачі навантаження:
	// InputLimiter - скільки PLAYER_INPUT/PLAYER_POSITION може слати один гравець
	InputLimiter Limiter `toml:"input-limiter"`
	// ChatLimiter - скільки повідомлень в чат
	ChatLimiter Limiter `toml:"chat-limiter"`
	// AcceptLimiter - скільки нових з'єднань приймаємо
	AcceptLimiter Limiter `toml:"accept-limiter"`
}

// LogConfig - куди і як писати логи
type LogConfig struct {
	Debug bool `toml:"debug"`
	// Файл з ротацією. Порожній - тільки консоль
	File       string `toml:"file"`
	MaxSize    int    `toml:"max-size"` // МБ
	MaxBackups int    `toml:"max-backups"`
	MaxAge     int    `toml:"max-age"` // дні
	Compress   bool   `toml:"compress"`
}

// DefaultConfig повертає налаштування за замовчуванням.
// config.toml читається поверх них.
func DefaultConfig() Config {
	return Config{
		ListenAddress:   "0.0.0.0:8282",
		HTTPAddress:     "",
		MaxPlayers:      4,
		TickRate:        60,
		BroadcastEvery:  1,
		MaxMessageSize:  1024,
		PacketBudget:    1200,
		SendQueueSize:   256,
		KeepAlive:       true,
		ShutdownTimeout: duration{5 * time.Second},
		Log: LogConfig{
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
		InputLimiter:  Limiter{Every: duration{time.Second / 120}, N: 16},
		ChatLimiter:   Limiter{Every: duration{time.Second}, N: 5},
		AcceptLimiter: Limiter{Every: duration{time.Second / 20}, N: 10},
	}
}

// Limiter - структура для обмеження частоти дій
// Наприклад: не більше 5 повідомлень кожну секунду
type Limiter struct {
	// Як часто можна виконувати дію
	// Наприклад "5s" = кожні 5 секунд
	Every duration `toml:"every"`

	// Скільки разів можна виконати дію за цей період
	N int
}

// Limiter перетворює наші налаштування в готовий rate.Limiter.
// Нульовий Every означає "без обмежень".
func (l *Limiter) Limiter() *rate.Limiter {
	if l.Every.Duration <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(l.Every.Duration), l.N)
}

// duration - обгортка навколо time.Duration
// Потрібна щоб читати тривалість з конфіг файлу
type duration struct {
	time.Duration
}

// UnmarshalText перетворює текст з конфігу в time.Duration
// Наприклад "5s" -> 5 секунд
func (d *duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return
}

// MarshalText потрібен щоб DefaultConfig можна було записати в toml
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
