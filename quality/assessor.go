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

package quality

import (
	"context"

	"github.com/google/uuid"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/fuzzy"
)

// Computer 是已綁定單一系統的推論入口（例如 lifespan.System）。
type Computer interface {
	Compute(ctx context.Context, in fuzzy.Inputs) (*fuzzy.Result, error)
}

// EngineComputer 讓裸的 *fuzzy.Engine 也能當 Computer 使用。
type EngineComputer struct {
	Engine *fuzzy.Engine
}

func (c EngineComputer) Compute(ctx context.Context, in fuzzy.Inputs) (*fuzzy.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "compute canceled/timeout")
	}
	return c.Engine.Compute(in)
}

// RuleRef 指出一條規則與它的啟動強度。
type RuleRef struct {
	Index    int     `json:"index"`
	Rule     string  `json:"rule"`
	Strength float64 `json:"strength"`
}

// Curve 是輸出論域上的聚合曲線與各 term 的原始曲線。
type Curve struct {
	Unit       string               `json:"unit,omitempty"`
	X          []float64            `json:"x"`
	Aggregated []float64            `json:"aggregated"`
	Terms      map[string][]float64 `json:"terms"`
}

// Assessment 是一次品質評估的結果。
type Assessment struct {
	ID           uuid.UUID              `json:"id"`
	Sample       Sample                 `json:"sample"`
	Score        float64                `json:"score"`
	Label        Label                  `json:"label"`
	Verdict      Verdict                `json:"verdict"`
	DominantRule *RuleRef               `json:"dominant_rule,omitempty"`
	Activations  []fuzzy.TermActivation `json:"activations"`
	Curve        *Curve                 `json:"curve,omitempty"`
}

type Assessor struct {
	c      Computer
	output string
}

// NewAssessor 以 output 作為品質分數的輸出變數；空字串使用 quality。
func NewAssessor(c Computer, output string) (*Assessor, error) {
	if c == nil {
		return nil, errs.NewFatal("assessor requires a computer")
	}
	if output == "" {
		output = OutQuality
	}
	return &Assessor{c: c, output: output}, nil
}

func (a *Assessor) Output() string { return a.output }

// Assess 推論一筆樣本。withCurve 為 true 時附上聚合曲線（供繪圖）。
func (a *Assessor) Assess(ctx context.Context, s Sample, withCurve bool) (*Assessment, error) {
	res, err := a.c.Compute(ctx, s.Inputs())
	if err != nil {
		return nil, err
	}
	out, ok := res.Output(a.output)
	if !ok {
		return nil, errs.Configf("system has no output variable %q", a.output)
	}
	as := &Assessment{
		ID:      uuid.New(),
		Sample:  s,
		Score:   out.Score,
		Label:   Classify(out.Score),
		Verdict: VerdictOf(out.Score),
	}
	if f, ok := res.Dominant(a.output); ok {
		as.DominantRule = &RuleRef{Index: f.Rule, Rule: res.Describe(f.Rule), Strength: f.Strength}
	}
	as.Activations, _ = res.Activations(a.output)
	if withCurve {
		as.Curve = CurveOf(out)
	}
	return as, nil
}

// CurveOf 取出輸出的論域、聚合曲線與各 term 曲線。
func CurveOf(out fuzzy.Output) *Curve {
	v := out.Var()
	c := &Curve{
		Unit:       v.Unit(),
		X:          out.Universe().Points(),
		Aggregated: append([]float64(nil), out.Curve...),
		Terms:      make(map[string][]float64, v.TermCount()),
	}
	for i := 0; i < v.TermCount(); i++ {
		t := v.Term(fuzzy.TermID(i))
		c.Terms[t.Name] = t.Curve()
	}
	return c
}
