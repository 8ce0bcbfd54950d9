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

// Йоу, чат! Тут живуть поля протоколу, яких немає в go-mc.
// Всі числа ми пишемо через типи pk (UnsignedByte, Float, Int...),
// а от рядок з довжиною в один байт доводиться описати самим.

package protocol

import (
	"errors"
	"io"

	pk "github.com/Tnze/go-mc/net/packet"
)

var (
	// ErrFieldTooLong - рядок не влазить у префікс довжини в один байт
	ErrFieldTooLong = errors.New("protocol: field longer than 255 bytes")
	// ErrTruncated - даних менше ніж обіцяє формат
	ErrTruncated = errors.New("protocol: truncated data")
)

// ShortString - рядок з префіксом довжини u8: [len:1][bytes]
type ShortString string

// WriteTo записує довжину і байти рядка
func (s ShortString) WriteTo(w io.Writer) (n int64, err error) {
	if len(s) > 0xFF {
		return 0, ErrFieldTooLong
	}
	n1, err := pk.UnsignedByte(len(s)).WriteTo(w)
	if err != nil {
		return n1, err
	}
	n2, err := io.WriteString(w, string(s))
	return n1 + int64(n2), err
}

// ReadFrom читає довжину, а потім рівно стільки байтів
func (s *ShortString) ReadFrom(r io.Reader) (n int64, err error) {
	var size pk.UnsignedByte
	n1, err := size.ReadFrom(r)
	if err != nil {
		return n1, truncated(err)
	}
	buf := make([]byte, size)
	n2, err := io.ReadFull(r, buf)
	if err != nil {
		return n1 + int64(n2), truncated(err)
	}
	*s = ShortString(buf)
	return n1 + int64(n2), nil
}

// truncated maps the io end-of-data errors to ErrTruncated.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
