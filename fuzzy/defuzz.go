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

package fuzzy

import (
	"sort"
	"strings"

	"github.com/zintix-labs/lifespan/errs"
	"gonum.org/v1/gonum/floats"
)

// Defuzzifier 把聚合曲線化約成一個 crisp 值。
// 曲線總激活為 0 時必須回傳 KindDefuzzification 錯誤，不可回傳 NaN 或 0。
type Defuzzifier interface {
	Name() string
	Defuzzify(curve []float64, u *Universe) (float64, error)
}

const (
	DefuzzCentroid      = "centroid"
	DefuzzBisector      = "bisector"
	DefuzzMeanOfMaximum = "mom"
)

var defuzzifiers = map[string]Defuzzifier{
	DefuzzCentroid:      Centroid{},
	DefuzzBisector:      Bisector{},
	DefuzzMeanOfMaximum: MeanOfMaximum{},
}

// DefuzzifierByName 依名稱取得內建的 Defuzzifier；空字串視為 centroid。
func DefuzzifierByName(name string) (Defuzzifier, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Centroid{}, nil
	}
	d, ok := defuzzifiers[name]
	if !ok {
		return nil, errs.Configf("unknown defuzzifier %q (valid: %s)", name, strings.Join(DefuzzifierNames(), ", "))
	}
	return d, nil
}

// DefuzzifierNames 回傳所有內建方法名稱（已排序）。
func DefuzzifierNames() []string {
	names := make([]string, 0, len(defuzzifiers))
	for k := range defuzzifiers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func checkCurve(curve []float64, u *Universe) error {
	if u == nil || len(curve) != len(u.points) {
		return errs.Fatalf("curve length %d does not match universe", len(curve))
	}
	return nil
}

// Centroid 為離散重心法：Σ x_i·μ_i / Σ μ_i。
type Centroid struct{}

func (Centroid) Name() string { return DefuzzCentroid }

func (Centroid) Defuzzify(curve []float64, u *Universe) (float64, error) {
	if err := checkCurve(curve, u); err != nil {
		return 0, err
	}
	total := floats.Sum(curve)
	if total <= 0 {
		return 0, errs.Defuzzf("", "zero total activation")
	}
	return floats.Dot(u.points, curve) / total, nil
}

// Bisector 回傳累積面積第一次達到一半的取樣點。
type Bisector struct{}

func (Bisector) Name() string { return DefuzzBisector }

func (Bisector) Defuzzify(curve []float64, u *Universe) (float64, error) {
	if err := checkCurve(curve, u); err != nil {
		return 0, err
	}
	cum := floats.CumSum(make([]float64, len(curve)), curve)
	total := cum[len(cum)-1]
	if total <= 0 {
		return 0, errs.Defuzzf("", "zero total activation")
	}
	half := total / 2
	i := sort.SearchFloat64s(cum, half-eps)
	if i >= len(cum) {
		i = len(cum) - 1
	}
	return u.points[i], nil
}

// MeanOfMaximum 回傳所有達到最大隸屬度之取樣點的平均。
type MeanOfMaximum struct{}

func (MeanOfMaximum) Name() string { return DefuzzMeanOfMaximum }

func (MeanOfMaximum) Defuzzify(curve []float64, u *Universe) (float64, error) {
	if err := checkCurve(curve, u); err != nil {
		return 0, err
	}
	peak := floats.Max(curve)
	if peak <= 0 {
		return 0, errs.Defuzzf("", "zero total activation")
	}
	sum, n := 0.0, 0
	for i, m := range curve {
		if m >= peak-eps {
			sum += u.points[i]
			n++
		}
	}
	return sum / float64(n), nil
}
