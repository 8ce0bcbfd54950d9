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

package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning - фізичні константи світу. Читаються з tuning.yaml,
// відсутні ключі беруть значення з DefaultTuning.
type Tuning struct {
	// Gravity в одиницях/с². 0 - вид зверху, вертикаль керується кнопками.
	Gravity     float32 `yaml:"gravity"`
	PlayerSpeed float32 `yaml:"player_speed"`
	JumpSpeed   float32 `yaml:"jump_speed"`
	EnemySpeed  float32 `yaml:"enemy_speed"`

	PlayerSize [2]float32 `yaml:"player_size"`
	EnemyHealth int16     `yaml:"enemy_health"`

	CellSize         float32 `yaml:"cell_size"`
	BroadPhaseCutoff float32 `yaml:"broad_phase_cutoff"`
	DeltaEpsilon     float32 `yaml:"delta_epsilon"`

	AttackMs int `yaml:"attack_ms"`
	// MaxCorrection - наскільки далеко PLAYER_POSITION може відійти від
	// серверної позиції, щоб його ще прийняли
	MaxCorrection float32 `yaml:"max_correction"`
}

// DefaultTuning повертає значення за замовчуванням
func DefaultTuning() Tuning {
	return Tuning{
		Gravity:          0,
		PlayerSpeed:      200,
		JumpSpeed:        420,
		EnemySpeed:       60,
		PlayerSize:       [2]float32{32, 32},
		EnemyHealth:      100,
		CellSize:         200,
		BroadPhaseCutoff: 200,
		DeltaEpsilon:     0.001,
		AttackMs:         400,
		MaxCorrection:    100,
	}
}

// LoadTuning читає tuning.yaml поверх значень за замовчуванням
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
