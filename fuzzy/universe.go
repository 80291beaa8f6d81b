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

// Package fuzzy 是 Mamdani 模糊推論的核心：
//
//	crisp inputs -> Fuzzify -> RuleBase.Evaluate (min) -> implication (min) -> aggregation (max) -> defuzzify
//
// 生命週期分兩段：
//   - 建構期：建立 Universe / Variable、註冊 term、加入規則，最後 Freeze。任何不合法的設定都在這裡以
//     errs.KindConfiguration 失敗。
//   - 執行期：Engine.Compute 是純函數，不持有任何可變狀態，可被多個 goroutine 同時呼叫（無鎖）。
//
// 本包不做任何 I/O 與 log。
package fuzzy

import (
	"math"

	"github.com/zintix-labs/lifespan/errs"
)

// 離散點數上限，避免設定檔寫錯 step 造成巨量配置。
const maxUniversePoints = 1 << 20

const eps = 1e-9

// Universe 是離散化的論域：由 min 開始、以固定 step 取樣直到 max。
//
// 取樣點以 min + i*step 計算（不做累加），避免浮點誤差逐步放大；
// 若 (max-min)/step 為整數，最後一點強制為 max。
type Universe struct {
	min    float64
	max    float64
	step   float64
	points []float64
}

// NewUniverse 建立論域。min >= max、step <= 0 或任何參數非有限數值都會回傳設定錯誤。
func NewUniverse(min, max, step float64) (*Universe, error) {
	if !finite(min) || !finite(max) || !finite(step) {
		return nil, errs.Configf("universe bounds must be finite: min=%v max=%v step=%v", min, max, step)
	}
	if min >= max {
		return nil, errs.Configf("universe min must be < max: min=%v max=%v", min, max)
	}
	if step <= 0 {
		return nil, errs.Configf("universe step must be > 0: step=%v", step)
	}
	span := (max - min) / step
	if span > maxUniversePoints {
		return nil, errs.Configf("universe too dense: %.0f points (limit %d)", span, maxUniversePoints)
	}
	n := int(math.Floor(span + eps))
	pts := make([]float64, n+1)
	for i := range pts {
		pts[i] = min + float64(i)*step
	}
	if math.Abs(span-float64(n)) < eps {
		pts[n] = max
	}
	return &Universe{min: min, max: max, step: step, points: pts}, nil
}

func (u *Universe) Min() float64  { return u.min }
func (u *Universe) Max() float64  { return u.max }
func (u *Universe) Step() float64 { return u.step }
func (u *Universe) Len() int      { return len(u.points) }

// At 回傳第 i 個取樣點。
func (u *Universe) At(i int) float64 { return u.points[i] }

// Points 回傳取樣點的副本。
func (u *Universe) Points() []float64 {
	return append([]float64(nil), u.points...)
}

// Contains 回報 x 是否落在 [min, max] 內。
func (u *Universe) Contains(x float64) bool {
	return finite(x) && x >= u.min && x <= u.max
}

// Sample 在每個取樣點上評估 mf，回傳新配置的曲線。
func (u *Universe) Sample(mf MembershipFunc) []float64 {
	curve := make([]float64, len(u.points))
	for i, x := range u.points {
		curve[i] = mf.Degree(x)
	}
	return curve
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
