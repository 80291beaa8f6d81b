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

package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"lo"`
	Hi float64 `json:"Hi" yaml:"hi"`
}

// Estimate 是點估計 + 信賴區間。
type Estimate struct {
	Hat float64 `json:"Hat" yaml:"hat"`
	CI  CI      `json:"CI"  yaml:"ci"`
}

const confidence = 0.95

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) Estimate {
	if n == 0 {
		return Estimate{Hat: 0, CI: CI{0, 1}}
	}
	alpha := 1 - confidence
	est := Estimate{Hat: float64(k) / float64(n)}

	// Beta PPF 映射，處理邊界
	if k == 0 {
		est.CI.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		est.CI.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		est.CI.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		est.CI.Hi = b.Quantile(1 - alpha/2)
	}
	return est
}

// quantileEstimate 估計已排序樣本第 q 分位：點估計用 gonum 的經驗分位數，
// 區間把 order statistic 的秩視為二項，以 Beta 反推 p 範圍後轉回樣本索引。
// 點估計與區間都取 sorted 的索引，區間一定包含點估計。
func quantileEstimate(sorted []float64, q, confidence float64) Estimate {
	n := len(sorted)
	if n == 0 {
		return Estimate{}
	}
	est := Estimate{Hat: stat.Quantile(q, stat.Empirical, sorted, nil)}
	if n < 2 {
		est.CI = CI{sorted[0], sorted[0]}
		return est
	}

	alpha := 1 - confidence
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}
	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	li := clampIdx(int(bLo.Quantile(alpha/2)*float64(n)), n)
	ui := clampIdx(int(bHi.Quantile(1-alpha/2)*float64(n))-1, n)
	h := clampIdx(int(math.Ceil(q*float64(n)))-1, n)
	est.CI = CI{sorted[min(li, h)], sorted[max(ui, h)]}
	est.Hat = max(est.CI.Lo, min(est.Hat, est.CI.Hi))
	return est
}

// meanStd 是樣本平均與標準差；少於 2 個樣本時標準差為 0。
func meanStd(xs []float64) (mean, std float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

func sortedCopy(data []float64) []float64 {
	cp := append([]float64(nil), data...)
	sort.Float64s(cp)
	return cp
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(e Estimate) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(e.Hat), fmtPct01(e.CI.Lo), fmtPct01(e.CI.Hi))
}

func fmtHatCI(e Estimate) string {
	return fmt.Sprintf("%.2f [%.2f, %.2f]", e.Hat, e.CI.Lo, e.CI.Hi)
}
