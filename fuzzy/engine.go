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

// Engine 綁定一個已凍結的 RuleBase 與解模糊方法。
// Engine 本身沒有可變狀態，Compute 可以被任意多個 goroutine 同時呼叫。
type Engine struct {
	rb      *RuleBase
	defuzz  Defuzzifier
	targets [][]target // targets[k]：指向第 k 個後件變數的 (rule, term)
}

type target struct {
	rule int
	term TermID
}

// Option 設定 Engine。
type Option func(*Engine)

// WithDefuzzifier 指定解模糊方法，nil 會被忽略。
func WithDefuzzifier(d Defuzzifier) Option {
	return func(e *Engine) {
		if d != nil {
			e.defuzz = d
		}
	}
}

// NewEngine 建立推論引擎。RuleBase 必須已經 Freeze 且至少有一條規則。
func NewEngine(rb *RuleBase, opts ...Option) (*Engine, error) {
	if rb == nil {
		return nil, errs.Configf("nil rule base")
	}
	if !rb.frozen {
		return nil, errs.Configf("rule base must be frozen before building an engine")
	}
	if len(rb.rules) == 0 {
		return nil, errs.Configf("rule base has no rules")
	}
	e := &Engine{rb: rb, defuzz: Centroid{}}
	for _, opt := range opts {
		opt(e)
	}
	nOut := len(rb.vars) - rb.nIn
	e.targets = make([][]target, nOut)
	for i, r := range rb.rules {
		for _, c := range r.Consequent {
			k := int(c.Var) - rb.nIn
			e.targets[k] = append(e.targets[k], target{rule: i, term: c.Term})
		}
	}
	for k, ts := range e.targets {
		if len(ts) == 0 {
			return nil, errs.Configf("output variable %s is not targeted by any rule", rb.vars[rb.nIn+k].name)
		}
	}
	return e, nil
}

func (e *Engine) RuleBase() *RuleBase      { return e.rb }
func (e *Engine) Defuzzifier() Defuzzifier { return e.defuzz }
func (e *Engine) Inputs() []*Variable      { return e.rb.Inputs() }
func (e *Engine) Outputs() []*Variable     { return e.rb.Outputs() }

// Compute 執行完整的推論流程：
//
//	Inputs -> Firings -> implicated curves -> aggregated curve -> crisp score
//
// 錯誤：輸入不合法回傳 KindValidation（不會評估任何規則）；任一輸出變數總激活為 0 回傳 KindDefuzzification。
func (e *Engine) Compute(in Inputs) (*Result, error) {
	firings, err := e.rb.Evaluate(in)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Outputs: make([]Output, len(e.targets)),
		Firings: firings,
		rb:      e.rb,
	}
	for k, ts := range e.targets {
		v := e.rb.vars[e.rb.nIn+k]
		agg := make([]float64, len(v.u.points))
		for _, t := range ts {
			s := firings[t.rule].Strength
			if s <= 0 {
				continue
			}
			Aggregate(agg, v.terms[t.term].curve, s)
		}
		score, err := e.defuzz.Defuzzify(agg, v.u)
		if err != nil {
			w := errs.Wrap(err, fmt.Sprintf("defuzzify %s with %s", v.name, e.defuzz.Name()))
			w.Field = v.name
			return nil, w
		}
		res.Outputs[k] = Output{
			Variable: v.name,
			Score:    score,
			Curve:    agg,
			v:        v,
			id:       VarID(e.rb.nIn + k),
		}
	}
	return res, nil
}

// Implicate 以 min 截斷 term 曲線：dst[i] = min(s, curve[i])。dst 容量不足時會重新配置。
func Implicate(dst, curve []float64, s float64) []float64 {
	if cap(dst) < len(curve) {
		dst = make([]float64, len(curve))
	}
	dst = dst[:len(curve)]
	for i, m := range curve {
		if m < s {
			dst[i] = m
		} else {
			dst[i] = s
		}
	}
	return dst
}

// Aggregate 把以 s 截斷後的 curve 以 max 併入 agg（就地修改），等同
// max(agg, Implicate(curve, s)) 但不需要中間緩衝區。
func Aggregate(agg, curve []float64, s float64) {
	for i, m := range curve {
		if m > s {
			m = s
		}
		if m > agg[i] {
			agg[i] = m
		}
	}
}

// Output 是單一後件變數的推論結果：聚合曲線 + crisp 分數。
type Output struct {
	Variable string    `json:"variable"`
	Score    float64   `json:"score"`
	Curve    []float64 `json:"-"`
	v        *Variable
	id       VarID
}

// Universe 回傳聚合曲線所在的論域。
func (o Output) Universe() *Universe { return o.v.u }

// Var 回傳輸出變數本身（唯讀使用）。
func (o Output) Var() *Variable { return o.v }

// TermActivation 描述後件 term 在這次推論中的狀態：
// Strength 為所有指向該 term 的規則中最大的啟動強度（截斷高度），Membership 為 crisp 分數在該 term 的隸屬度。
type TermActivation struct {
	Term       string  `json:"term"`
	Strength   float64 `json:"strength"`
	Membership float64 `json:"membership"`
}

// Result 是一次 Compute 的結果，由呼叫端擁有。
type Result struct {
	Outputs []Output
	Firings []Firing
	rb      *RuleBase
}

// Output 以名稱取輸出。
func (r *Result) Output(name string) (Output, bool) {
	for _, o := range r.Outputs {
		if o.Variable == name {
			return o, true
		}
	}
	return Output{}, false
}

// Score 以名稱取 crisp 分數。
func (r *Result) Score(name string) (float64, bool) {
	o, ok := r.Output(name)
	return o.Score, ok
}

// Dominant 回傳指向 output 的規則中啟動強度最大者；同強度取索引最小的規則。
// 沒有任何規則啟動時 ok 為 false。
func (r *Result) Dominant(output string) (Firing, bool) {
	o, ok := r.Output(output)
	if !ok {
		return Firing{}, false
	}
	best, found := Firing{Rule: -1}, false
	for _, f := range r.Firings {
		if f.Strength <= 0 || !r.targets(f.Rule, o.id) {
			continue
		}
		if !found || f.Strength > best.Strength {
			best, found = f, true
		}
	}
	return best, found
}

// Describe 回傳規則的可讀字串。
func (r *Result) Describe(rule int) string { return r.rb.Describe(rule) }

// Activations 回傳 output 每個 term 的截斷高度與 crisp 分數在該 term 的隸屬度（依註冊順序）。
func (r *Result) Activations(output string) ([]TermActivation, bool) {
	o, ok := r.Output(output)
	if !ok {
		return nil, false
	}
	acts := make([]TermActivation, len(o.v.terms))
	for i, t := range o.v.terms {
		acts[i] = TermActivation{Term: t.Name, Membership: t.MF.Degree(o.Score)}
	}
	for _, f := range r.Firings {
		if f.Strength <= 0 {
			continue
		}
		for _, c := range r.rb.rules[f.Rule].Consequent {
			if c.Var == o.id && f.Strength > acts[c.Term].Strength {
				acts[c.Term].Strength = f.Strength
			}
		}
	}
	return acts, true
}

func (r *Result) targets(rule int, id VarID) bool {
	for _, c := range r.rb.rules[rule].Consequent {
		if c.Var == id {
			return true
		}
	}
	return false
}
