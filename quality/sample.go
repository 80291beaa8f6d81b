// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package quality 是食品品質推論的領域外觀層：
// 把型別化的 Sample 轉成推論輸入，並把 crisp 分數歸類成等級（Label）與結論（Verdict）。
package quality

import (
	"strconv"
	"strings"

	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/fuzzy"
)

// 預設系統的變數名稱。
const (
	VarTemperature = "temperature"
	VarHumidity    = "humidity"
	VarFoodType    = "food_type"
	VarTimeOnShelf = "time_on_shelf"
	OutQuality     = "quality"
)

// FoodType 食品種類：0 乾貨，1 生鮮。
type FoodType int

const (
	Dry   FoodType = 0
	Fresh FoodType = 1
)

func (f FoodType) String() string {
	switch f {
	case Dry:
		return "dry"
	case Fresh:
		return "fresh"
	default:
		return "food_type(" + strconv.Itoa(int(f)) + ")"
	}
}

// ParseFoodType 接受 dry / fresh / 0 / 1（不分大小寫）。
func ParseFoodType(s string) (FoodType, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	switch t {
	case "dry":
		return Dry, nil
	case "fresh":
		return Fresh, nil
	}
	// 數值形式（0、1、1.0、1e0）只接受剛好 0 或 1
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		switch f {
		case 0:
			return Dry, nil
		case 1:
			return Fresh, nil
		}
	}
	return 0, errs.Validationf(VarFoodType, "food_type must be dry/fresh or 0/1, got %q", s)
}

// Sample 是一筆食品量測。
type Sample struct {
	Temperature float64  `json:"temperature"   yaml:"temperature"`
	Humidity    float64  `json:"humidity"      yaml:"humidity"`
	FoodType    FoodType `json:"food_type"     yaml:"food_type"`
	TimeOnShelf float64  `json:"time_on_shelf" yaml:"time_on_shelf"`
}

// Inputs 轉成推論引擎的輸入；範圍檢查交給引擎。
func (s Sample) Inputs() fuzzy.Inputs {
	return fuzzy.Inputs{
		VarTemperature: s.Temperature,
		VarHumidity:    s.Humidity,
		VarFoodType:    float64(s.FoodType),
		VarTimeOnShelf: s.TimeOnShelf,
	}
}
