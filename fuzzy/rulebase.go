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
)

// VarID 是變數在 RuleBase 內的索引：前件 [0, nIn)，後件 [nIn, nIn+nOut)。
type VarID int

// Clause 是已解析成索引的 (variable, term)。
type Clause struct {
	Var  VarID
	Term TermID
}

// ClauseRef 是以名稱表示的 (variable, term)，只在 AddRule 時使用。
type ClauseRef struct {
	Var  string
	Term string
}

// Ref 是 ClauseRef 的語法糖。
func Ref(variable, term string) ClauseRef { return ClauseRef{Var: variable, Term: term} }

func (c ClauseRef) String() string { return c.Var + "." + c.Term }

// Rule：前件為 AND 連接的子句，後件可以同時指向多個輸出變數。
type Rule struct {
	Antecedent []Clause
	Consequent []Clause
}

// Firing 是一條規則在某組輸入下的啟動強度，Rule 為規則在 RuleBase 內的索引。
type Firing struct {
	Rule     int     `json:"rule"`
	Strength float64 `json:"strength"`
}

// Inputs 是以變數名稱為 key 的 crisp 輸入。
type Inputs map[string]float64

// RuleBase 持有前件/後件變數與有序的規則表。
//
// 建構期呼叫 AddRule，完成後 Freeze；凍結後 RuleBase 與其變數都不可再變更，
// 因此可以在多個 goroutine 之間共享而不需要鎖。
type RuleBase struct {
	vars   []*Variable
	nIn    int
	byName map[string]VarID
	rules  []Rule
	frozen bool
}

// NewRuleBase 建立 RuleBase。前件與後件都不能為空，變數名稱在整個 RuleBase 內唯一。
func NewRuleBase(inputs, outputs []*Variable) (*RuleBase, error) {
	if len(inputs) == 0 {
		return nil, errs.Configf("rule base requires at least one input variable")
	}
	if len(outputs) == 0 {
		return nil, errs.Configf("rule base requires at least one output variable")
	}
	rb := &RuleBase{
		vars:   make([]*Variable, 0, len(inputs)+len(outputs)),
		nIn:    len(inputs),
		byName: make(map[string]VarID, len(inputs)+len(outputs)),
		rules:  make([]Rule, 0, 64),
	}
	for _, v := range append(append([]*Variable{}, inputs...), outputs...) {
		if v == nil {
			return nil, errs.Configf("nil variable")
		}
		if _, ok := rb.byName[v.name]; ok {
			return nil, errs.Configf("duplicate variable %q", v.name)
		}
		if len(v.terms) == 0 {
			return nil, errs.Configf("variable %s has no terms", v.name)
		}
		rb.byName[v.name] = VarID(len(rb.vars))
		rb.vars = append(rb.vars, v)
	}
	return rb, nil
}

// AddRule 解析子句並加入規則。任何未註冊的變數/term 都在這裡失敗，不會延遲到推論期。
func (rb *RuleBase) AddRule(antecedent, consequent []ClauseRef) error {
	if rb.frozen {
		return errs.Configf("rule base is frozen")
	}
	if len(antecedent) == 0 {
		return errs.Configf("rule %d: empty antecedent", len(rb.rules))
	}
	if len(consequent) == 0 {
		return errs.Configf("rule %d: empty consequent", len(rb.rules))
	}
	r := Rule{
		Antecedent: make([]Clause, 0, len(antecedent)),
		Consequent: make([]Clause, 0, len(consequent)),
	}
	seen := make(map[VarID]struct{}, len(antecedent))
	for _, ref := range antecedent {
		c, err := rb.resolve(ref)
		if err != nil {
			return err
		}
		if !rb.IsInput(c.Var) {
			return errs.Configf("rule %d: %s is an output variable and can not be used in antecedent", len(rb.rules), ref)
		}
		if _, dup := seen[c.Var]; dup {
			return errs.Configf("rule %d: variable %s appears twice in antecedent", len(rb.rules), ref.Var)
		}
		seen[c.Var] = struct{}{}
		r.Antecedent = append(r.Antecedent, c)
	}
	for _, ref := range consequent {
		c, err := rb.resolve(ref)
		if err != nil {
			return err
		}
		if rb.IsInput(c.Var) {
			return errs.Configf("rule %d: %s is an input variable and can not be used in consequent", len(rb.rules), ref)
		}
		r.Consequent = append(r.Consequent, c)
	}
	rb.rules = append(rb.rules, r)
	return nil
}

func (rb *RuleBase) resolve(ref ClauseRef) (Clause, error) {
	vid, ok := rb.byName[strings.TrimSpace(ref.Var)]
	if !ok {
		return Clause{}, errs.Configf("rule %d: unknown variable %q", len(rb.rules), ref.Var)
	}
	tid, ok := rb.vars[vid].TermID(strings.TrimSpace(ref.Term))
	if !ok {
		return Clause{}, errs.Configf("rule %d: variable %s has no term %q", len(rb.rules), ref.Var, ref.Term)
	}
	return Clause{Var: vid, Term: tid}, nil
}

// Freeze 凍結 RuleBase 及其所有變數。可重複呼叫。
func (rb *RuleBase) Freeze() {
	rb.frozen = true
	for _, v := range rb.vars {
		v.freeze()
	}
}

func (rb *RuleBase) Frozen() bool { return rb.frozen }
func (rb *RuleBase) Len() int     { return len(rb.rules) }

// IsInput 回報 id 是否為前件變數。
func (rb *RuleBase) IsInput(id VarID) bool { return int(id) < rb.nIn }

// Var 以索引取變數。
func (rb *RuleBase) Var(id VarID) *Variable { return rb.vars[id] }

// Lookup 以名稱取變數。
func (rb *RuleBase) Lookup(name string) (*Variable, VarID, bool) {
	id, ok := rb.byName[name]
	if !ok {
		return nil, -1, false
	}
	return rb.vars[id], id, true
}

// Inputs 回傳前件變數（依建構順序）。
func (rb *RuleBase) Inputs() []*Variable {
	return append([]*Variable(nil), rb.vars[:rb.nIn]...)
}

// Outputs 回傳後件變數（依建構順序）。
func (rb *RuleBase) Outputs() []*Variable {
	return append([]*Variable(nil), rb.vars[rb.nIn:]...)
}

// Describe 把規則還原成可讀字串，例如：
//
//	temperature.cold & humidity.low -> quality.excellent
func (rb *RuleBase) Describe(i int) string {
	r := rb.rules[i]
	var sb strings.Builder
	for k, c := range r.Antecedent {
		if k > 0 {
			sb.WriteString(" & ")
		}
		sb.WriteString(rb.clauseString(c))
	}
	sb.WriteString(" -> ")
	for k, c := range r.Consequent {
		if k > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(rb.clauseString(c))
	}
	return sb.String()
}

func (rb *RuleBase) clauseString(c Clause) string {
	v := rb.vars[c.Var]
	return v.name + "." + v.terms[c.Term].Name
}

// Evaluate 模糊化所有輸入並依序計算每條規則的啟動強度（前件取 min）。
// 強度為 0 的規則也會出現在結果內。
//
// 所有輸入都先檢查完才開始評估規則：缺少輸入、未知變數、超出範圍都以 KindValidation 回傳。
func (rb *RuleBase) Evaluate(in Inputs) ([]Firing, error) {
	deg, err := rb.fuzzifyAll(in)
	if err != nil {
		return nil, err
	}
	firings := make([]Firing, len(rb.rules))
	rb.fire(deg, firings)
	return firings, nil
}

// Fuzzify 只做模糊化，回傳每個前件變數的隸屬度。
func (rb *RuleBase) Fuzzify(in Inputs) (map[string]Degrees, error) {
	deg, err := rb.fuzzifyAll(in)
	if err != nil {
		return nil, err
	}
	m := make(map[string]Degrees, rb.nIn)
	for i := 0; i < rb.nIn; i++ {
		m[rb.vars[i].name] = Degrees{v: rb.vars[i], d: deg[i]}
	}
	return m, nil
}

func (rb *RuleBase) fuzzifyAll(in Inputs) ([][]float64, error) {
	if len(in) > rb.nIn {
		if err := rb.unknownInput(in); err != nil {
			return nil, err
		}
	}
	deg := make([][]float64, rb.nIn)
	for i := 0; i < rb.nIn; i++ {
		v := rb.vars[i]
		x, ok := in[v.name]
		if !ok {
			return nil, errs.Validationf(v.name, "missing input %s (valid range [%g,%g])", v.name, v.u.min, v.u.max)
		}
		if err := v.Validate(x); err != nil {
			return nil, err
		}
		deg[i] = v.degrees(x, nil)
	}
	if len(in) != rb.nIn {
		return nil, rb.unknownInput(in)
	}
	return deg, nil
}

// unknownInput 回報第一個（依名稱排序）不屬於前件的輸入。
func (rb *RuleBase) unknownInput(in Inputs) error {
	bad := make([]string, 0, 2)
	for name := range in {
		if id, ok := rb.byName[name]; !ok || !rb.IsInput(id) {
			bad = append(bad, name)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return errs.Validationf(bad[0], "unknown input variable %q", bad[0])
}

func (rb *RuleBase) fire(deg [][]float64, dst []Firing) {
	for i, r := range rb.rules {
		s := 1.0
		for _, c := range r.Antecedent {
			if d := deg[c.Var][c.Term]; d < s {
				s = d
			}
		}
		dst[i] = Firing{Rule: i, Strength: s}
	}
}
