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

// Package presets 提供內建的食品品質系統與其常用組裝。
package presets

import (
	"io/fs"

	"github.com/zintix-labs/lifespan"
	"github.com/zintix-labs/lifespan/catalog"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/presets/configs"
	"github.com/zintix-labs/lifespan/quality"
	"github.com/zintix-labs/lifespan/server/logger"
	"github.com/zintix-labs/lifespan/server/svrcfg"
	"github.com/zintix-labs/lifespan/spec"
)

// FoodQualityID 是內建食品品質系統的 system_id。
const FoodQualityID spec.SID = 1

// 預設曲面的取樣點數（每軸）。
const DefaultSurfaceN = 100

func New() (*catalog.Catalog, error) {
	return catalog.New(configs.FS)
}

// NewLab 以內建設定加上額外來源組出 Lab（已註冊並凍結）。
func NewLab(extra ...fs.FS) (*lifespan.Lab, error) {
	return lifespan.NewAuto(lifespan.Configs(append([]fs.FS{configs.FS}, extra...)...))
}

func NewRuntime(extra ...fs.FS) (*lifespan.Runtime, error) {
	lab, err := NewLab(extra...)
	if err != nil {
		return nil, err
	}
	return lab.BuildRuntime()
}

func NewServerConfig() (*svrcfg.SvrCfg, error) {
	lab, err := NewLab()
	if err != nil {
		return nil, errs.Wrap(err, "new lab failed")
	}
	plan := DefaultSurface()
	scfg := &svrcfg.SvrCfg{
		Log:      logger.NewDefaultAsyncLogger(logger.ModeDev),
		Lab:      lab,
		SystemID: FoodQualityID,
		Surface:  &plan,
	}
	return scfg, nil
}

// DefaultSurface 是品質對溫度 × 濕度的曲面：乾貨、上架第 10 天、每軸 100 點。
func DefaultSurface() lifespan.SurfacePlan {
	return lifespan.SurfacePlan{
		X: quality.VarTemperature,
		Y: quality.VarHumidity,
		N: DefaultSurfaceN,
		Fixed: map[string]float64{
			quality.VarFoodType:    float64(quality.Dry),
			quality.VarTimeOnShelf: 10,
		},
		Output: quality.OutQuality,
	}
}
