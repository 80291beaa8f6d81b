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

package dto

import (
	"encoding/json"

	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/fuzzy"
	"github.com/zintix-labs/lifespan/quality"
	"github.com/zintix-labs/lifespan/spec"
)

// ComputeResult 是 /v1/compute 的回應。
type ComputeResult struct {
	SystemID spec.SID       `json:"system_id"`
	Outputs  []OutputResult `json:"outputs"`
	Fired    []RuleFiring   `json:"fired"` // 只列出強度 > 0 的規則
}

// OutputResult 為單一後件變數的結果。
type OutputResult struct {
	Variable    string                 `json:"variable"`
	Score       float64                `json:"score"`
	Dominant    *quality.RuleRef       `json:"dominant_rule,omitempty"`
	Activations []fuzzy.TermActivation `json:"activations"`
	Curve       *quality.Curve         `json:"curve,omitempty"`
}

type RuleFiring struct {
	Index    int     `json:"index"`
	Rule     string  `json:"rule"`
	Strength float64 `json:"strength"`
}

func NewComputeResult(id spec.SID, res *fuzzy.Result, withCurve bool) (ComputeResult, error) {
	if res == nil {
		return ComputeResult{}, errs.NewFatal("nil result")
	}
	cr := ComputeResult{
		SystemID: id,
		Outputs:  make([]OutputResult, 0, len(res.Outputs)),
		Fired:    make([]RuleFiring, 0, 8),
	}
	for _, o := range res.Outputs {
		or := OutputResult{Variable: o.Variable, Score: o.Score}
		if f, ok := res.Dominant(o.Variable); ok {
			or.Dominant = &quality.RuleRef{Index: f.Rule, Rule: res.Describe(f.Rule), Strength: f.Strength}
		}
		or.Activations, _ = res.Activations(o.Variable)
		if withCurve {
			or.Curve = quality.CurveOf(o)
		}
		cr.Outputs = append(cr.Outputs, or)
	}
	for _, f := range res.Firings {
		if f.Strength > 0 {
			cr.Fired = append(cr.Fired, RuleFiring{Index: f.Rule, Rule: res.Describe(f.Rule), Strength: f.Strength})
		}
	}
	return cr, nil
}

// Variables 是 /v1/variables 的回應：每個變數的論域與 term 曲線（給前端畫隸屬函數）。
type Variables struct {
	SystemID spec.SID      `json:"system_id"`
	Inputs   []VariableDTO `json:"inputs"`
	Outputs  []VariableDTO `json:"outputs"`
	Rules    []string      `json:"rules"`
}

type VariableDTO struct {
	Name  string    `json:"name"`
	Unit  string    `json:"unit,omitempty"`
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	Step  float64   `json:"step"`
	X     []float64 `json:"x,omitempty"`
	Terms []TermDTO `json:"terms"`
}

type TermDTO struct {
	Name  string    `json:"name"`
	MF    string    `json:"mf"`
	Curve []float64 `json:"curve,omitempty"`
}

// NewVariables 由引擎產生變數描述；withCurve 為 false 時省略取樣點與曲線。
func NewVariables(id spec.SID, e *fuzzy.Engine, withCurve bool) (Variables, error) {
	if e == nil {
		return Variables{}, errs.NewFatal("nil engine")
	}
	rb := e.RuleBase()
	vs := Variables{
		SystemID: id,
		Inputs:   varDTOs(rb.Inputs(), withCurve),
		Outputs:  varDTOs(rb.Outputs(), withCurve),
		Rules:    make([]string, rb.Len()),
	}
	for i := range rb.Len() {
		vs.Rules[i] = rb.Describe(i)
	}
	return vs, nil
}

func varDTOs(vars []*fuzzy.Variable, withCurve bool) []VariableDTO {
	out := make([]VariableDTO, len(vars))
	for i, v := range vars {
		u := v.Universe()
		d := VariableDTO{
			Name:  v.Name(),
			Unit:  v.Unit(),
			Min:   u.Min(),
			Max:   u.Max(),
			Step:  u.Step(),
			Terms: make([]TermDTO, v.TermCount()),
		}
		if withCurve {
			d.X = u.Points()
		}
		for k := range v.TermCount() {
			t := v.Term(fuzzy.TermID(k))
			d.Terms[k] = TermDTO{Name: t.Name, MF: mfString(t.MF)}
			if withCurve {
				d.Terms[k].Curve = t.Curve()
			}
		}
		out[i] = d
	}
	return out
}

func mfString(mf fuzzy.MembershipFunc) string {
	if s, ok := mf.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

// ErrorBody 是錯誤回應的 JSON 結構。
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

func NewErrorBody(err error) ErrorBody {
	b := ErrorBody{Error: err.Error()}
	if e, ok := errs.AsErr(err); ok {
		b.Error = e.Message
		b.Kind = e.Kind.String()
		b.Field = e.Field
		if e.Cause != nil {
			b.Error += ": " + e.Cause.Error()
		}
	}
	return b
}

func (b ErrorBody) JSON() []byte {
	data, _ := json.Marshal(b)
	return data
}
