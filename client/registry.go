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

// Йоу, чат! Реєстр - це всі живі з'єднання сервера.
// До CONNECT клієнт лежить під тимчасовим ключем "addr:port",
// після призначення id - під своїм id ("p7").
// Розсилки бачать тільки клієнтів з id.

package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Tnze/go-mc/chat"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"SagaCore/protocol"
)

var (
	ErrDuplicateSession = errors.New("client: duplicate session key")
	ErrNoSession        = errors.New("client: no such session")
)

// Registry - потокобезпечна мапа ключ -> клієнт
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Client
}

// NewRegistry створює порожній реєстр
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Client)}
}

// Add реєструє клієнта під ключем
func (r *Registry) Add(key string, c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSession, key)
	}
	r.sessions[key] = c
	return nil
}

// Get шукає клієнта за ключем
func (r *Registry) Get(key string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.sessions[key]
	return c, ok
}

// Remove видаляє ключ і повертає клієнта, що там був
func (r *Registry) Remove(key string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[key]
	delete(r.sessions, key)
	return c, ok
}

// Rekey переносить клієнта з тимчасового ключа на id гравця
func (r *Registry) Rekey(temp, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[temp]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSession, temp)
	}
	if _, taken := r.sessions[id]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateSession, id)
	}
	delete(r.sessions, temp)
	r.sessions[id] = c
	return nil
}

// Broadcast ставить msgs у чергу кожного клієнта з id
func (r *Registry) Broadcast(msgs ...protocol.Message) {
	r.BroadcastExcept("", msgs...)
}

// BroadcastExcept - як Broadcast, але без клієнта excluded
func (r *Registry) BroadcastExcept(excluded string, msgs ...protocol.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for key, c := range r.sessions {
		if key == excluded || c.ID() == "" {
			continue
		}
		c.Send(msgs...)
	}
}

// SendTo відправляє msgs одному клієнту
func (r *Registry) SendTo(id string, msgs ...protocol.Message) error {
	c, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	c.Send(msgs...)
	return nil
}

// Len - кількість клієнтів з id, тобто тих, хто отримує розсилку
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, c := range r.sessions {
		if c.ID() != "" {
			n++
		}
	}
	return n
}

// Keys повертає всі ключі, відсортовані
func (r *Registry) Keys() []string {
	r.mu.RLock()
	keys := maps.Keys(r.sessions)
	r.mu.RUnlock()
	slices.Sort(keys)
	return keys
}

// CloseAll відправляє всім DISCONNECT з причиною reason
func (r *Registry) CloseAll(reason chat.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.sessions {
		c.SendDisconnect(reason)
	}
}
