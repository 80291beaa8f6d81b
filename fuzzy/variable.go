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
	"strings"

	"github.com/zintix-labs/lifespan/errs"
)

// TermID 是 term 在所屬 Variable 內的索引（依註冊順序，從 0 開始）。
type TermID int

// Term 是一個語言項：名稱 + 隸屬函數 + 在論域上預先取樣好的曲線。
//
// curve 在註冊時計算一次，推論時的 implication 直接對 curve 做 min，不再呼叫 Degree。
type Term struct {
	Name  string
	MF    MembershipFunc
	curve []float64
}

// Curve 回傳取樣曲線的副本（給繪圖用）。
func (t *Term) Curve() []float64 {
	return append([]float64(nil), t.curve...)
}

// Variable 是語言變數：一個論域 + 一組 term。
// 同一個 Variable 可以當前件（吃 crisp 輸入）或後件（產生聚合曲線），角色由 RuleBase 決定。
type Variable struct {
	name   string
	unit   string
	u      *Universe
	terms  []*Term
	index  map[string]TermID
	frozen bool
}

// NewVariable 建立沒有任何 term 的語言變數。
func NewVariable(name string, u *Universe) (*Variable, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Configf("variable name required")
	}
	if u == nil {
		return nil, errs.Configf("variable %s: universe required", name)
	}
	return &Variable{
		name:  name,
		u:     u,
		terms: make([]*Term, 0, 4),
		index: make(map[string]TermID, 4),
	}, nil
}

// SetUnit 設定顯示用單位（例如 °C、%）。
func (v *Variable) SetUnit(unit string) { v.unit = unit }

func (v *Variable) Name() string        { return v.name }
func (v *Variable) Unit() string        { return v.unit }
func (v *Variable) Universe() *Universe { return v.u }
func (v *Variable) TermCount() int      { return len(v.terms) }

// RegisterTerm 註冊一個 term。
// 名稱重複、變數已凍結、或 mf 的 support 超出論域都會回傳設定錯誤。
func (v *Variable) RegisterTerm(name string, mf MembershipFunc) (TermID, error) {
	if v.frozen {
		return -1, errs.Configf("variable %s is frozen: can not register term %q", v.name, name)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return -1, errs.Configf("variable %s: term name required", v.name)
	}
	if mf == nil {
		return -1, errs.Configf("variable %s: term %s has nil membership function", v.name, name)
	}
	if _, ok := v.index[name]; ok {
		return -1, errs.Configf("variable %s: duplicate term %q", v.name, name)
	}
	lo, hi := mf.Support()
	if lo < v.u.min-eps || hi > v.u.max+eps {
		return -1, errs.Configf("variable %s: term %s support [%g,%g] outside universe [%g,%g]",
			v.name, name, lo, hi, v.u.min, v.u.max)
	}
	id := TermID(len(v.terms))
	v.terms = append(v.terms, &Term{Name: name, MF: mf, curve: v.u.Sample(mf)})
	v.index[name] = id
	return id, nil
}

// TermID 以名稱查 term 索引。只應在建構期使用。
func (v *Variable) TermID(name string) (TermID, bool) {
	id, ok := v.index[name]
	return id, ok
}

// Term 以索引取 term；索引超出範圍回傳 nil。
func (v *Variable) Term(id TermID) *Term {
	if id < 0 || int(id) >= len(v.terms) {
		return nil
	}
	return v.terms[id]
}

// TermNames 依註冊順序回傳所有 term 名稱。
func (v *Variable) TermNames() []string {
	names := make([]string, len(v.terms))
	for i, t := range v.terms {
		names[i] = t.Name
	}
	return names
}

// Validate 檢查 crisp 值是否可被模糊化：必須是有限數值且落在 [min, max]。
// 超出範圍一律拒絕，不做 clamp。
func (v *Variable) Validate(x float64) error {
	if !finite(x) {
		return errs.Validationf(v.name, "%s must be numeric, got %v (valid range [%g,%g])", v.name, x, v.u.min, v.u.max)
	}
	if x < v.u.min || x > v.u.max {
		return errs.Validationf(v.name, "%s=%g out of range [%g,%g]", v.name, x, v.u.min, v.u.max)
	}
	return nil
}

// Fuzzify 對每個 term 求隸屬度。
func (v *Variable) Fuzzify(x float64) (Degrees, error) {
	if err := v.Validate(x); err != nil {
		return Degrees{}, err
	}
	return Degrees{v: v, d: v.degrees(x, nil)}, nil
}

func (v *Variable) degrees(x float64, dst []float64) []float64 {
	if cap(dst) < len(v.terms) {
		dst = make([]float64, len(v.terms))
	}
	dst = dst[:len(v.terms)]
	for i, t := range v.terms {
		dst[i] = t.MF.Degree(x)
	}
	return dst
}

func (v *Variable) freeze() { v.frozen = true }

// Degrees 是某個 crisp 值在一個變數上的模糊化結果，依 TermID 索引。
type Degrees struct {
	v *Variable
	d []float64
}

// At 以 TermID 取隸屬度。
func (d Degrees) At(id TermID) float64 { return d.d[id] }

// Get 以 term 名稱取隸屬度。
func (d Degrees) Get(term string) (float64, bool) {
	if d.v == nil {
		return 0, false
	}
	id, ok := d.v.index[term]
	if !ok {
		return 0, false
	}
	return d.d[id], true
}

// Map 轉成 term -> degree，方便輸出。
func (d Degrees) Map() map[string]float64 {
	m := make(map[string]float64, len(d.d))
	if d.v == nil {
		return m
	}
	for i, t := range d.v.terms {
		m[t.Name] = d.d[i]
	}
	return m
}
