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
	"fmt"

	"github.com/zintix-labs/lifespan/errs"
)

// MembershipFunc 把 crisp 值映射到 [0,1] 的隸屬度。
// Support 回傳隸屬度可能大於 0 的閉區間，用於建構期檢查是否落在論域內。
type MembershipFunc interface {
	Degree(x float64) float64
	Support() (lo, hi float64)
}

// Triangle 是三角形隸屬函數 (a, b, c)，a <= b <= c，峰值 1 在 b。
// a == b 或 b == c 為合法的直角三角形（左/右邊界）。
type Triangle struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
	C float64 `json:"c" yaml:"c"`
}

// NewTriangle 檢查參數順序後建立 Triangle。
func NewTriangle(a, b, c float64) (Triangle, error) {
	if !finite(a) || !finite(b) || !finite(c) {
		return Triangle{}, errs.Configf("triangle params must be finite: (%v, %v, %v)", a, b, c)
	}
	if a > b || b > c {
		return Triangle{}, errs.Configf("triangle params must satisfy a <= b <= c: (%v, %v, %v)", a, b, c)
	}
	return Triangle{A: a, B: b, C: c}, nil
}

// Degree 為分段線性函數。x == b 的判斷放在最前面，
// 所以退化的左/右邊 (a == b / b == c) 在該點剛好為 1。
func (t Triangle) Degree(x float64) float64 {
	switch {
	case x == t.B:
		return 1
	case x <= t.A || x >= t.C:
		return 0
	case x < t.B:
		return (x - t.A) / (t.B - t.A)
	default:
		return (t.C - x) / (t.C - t.B)
	}
}

func (t Triangle) Support() (float64, float64) { return t.A, t.C }

// Centroid 為三角形的解析重心 (a+b+c)/3。
func (t Triangle) Centroid() float64 { return (t.A + t.B + t.C) / 3 }

func (t Triangle) String() string {
	return fmt.Sprintf("trimf(%g, %g, %g)", t.A, t.B, t.C)
}
