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

package lifespan

import (
	"context"
	"io"
	"maps"
	"runtime"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/fuzzy"
	"github.com/zintix-labs/lifespan/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// 單軸取樣點上限，避免 HTTP 端一次要求過大的曲面。
const MaxSurfaceN = 500

// SurfacePlan 描述一次曲面掃描：X/Y 兩個前件變數各取 N 個等距點（含端點），
// 其餘前件變數固定在 Fixed 給的值。Output 為空時取第一個後件變數。
type SurfacePlan struct {
	X      string             `json:"x"`
	Y      string             `json:"y"`
	N      int                `json:"n"`
	Fixed  map[string]float64 `json:"fixed"`
	Output string             `json:"output,omitempty"`
}

// DefaultPlan 以前兩個前件變數為軸，其餘前件固定在論域中點，輸出取第一個後件變數。
func DefaultPlan(e *fuzzy.Engine, n int) (SurfacePlan, error) {
	if e == nil {
		return SurfacePlan{}, errs.NewFatal("nil engine")
	}
	ins := e.Inputs()
	if len(ins) < 2 {
		return SurfacePlan{}, errs.Validationf("x", "surface needs at least 2 input variables, system has %d", len(ins))
	}
	p := SurfacePlan{
		X:      ins[0].Name(),
		Y:      ins[1].Name(),
		N:      n,
		Fixed:  make(map[string]float64, len(ins)-2),
		Output: e.Outputs()[0].Name(),
	}
	for _, v := range ins[2:] {
		u := v.Universe()
		p.Fixed[v.Name()] = u.At(u.Len() / 2)
	}
	return p, nil
}

// Sweeper 在兩個輸入軸上掃描輸出分數。共用的 Engine 本身是只讀的，可同時被多個 worker 使用。
type Sweeper struct {
	name string
	e    *fuzzy.Engine
}

func NewSweeper(name string, e *fuzzy.Engine) (*Sweeper, error) {
	if e == nil {
		return nil, errs.NewFatal("sweeper requires an engine")
	}
	return &Sweeper{name: name, e: e}, nil
}

// Sweep 以 workers 個 goroutine 逐列計算曲面；workers <= 0 時使用 GOMAXPROCS。
// 任一點推論失敗（例如規則未覆蓋）即中止並回傳錯誤。
func (s *Sweeper) Sweep(ctx context.Context, plan SurfacePlan, workers int, showpb bool) (*stats.SurfaceReport, time.Duration, error) {
	xv, yv, out, err := s.check(&plan)
	if err != nil {
		return nil, 0, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	xs := floats.Span(make([]float64, plan.N), xv.Universe().Min(), xv.Universe().Max())
	ys := floats.Span(make([]float64, plan.N), yv.Universe().Min(), yv.Universe().Max())
	rep := stats.NewSurfaceReport(s.name, out,
		stats.Axis{Name: plan.X, Unit: xv.Unit(), Values: xs},
		stats.Axis{Name: plan.Y, Unit: yv.Unit(), Values: ys},
		maps.Clone(plan.Fixed))

	bar := pb.StartNew(len(ys))
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range ys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			in := make(fuzzy.Inputs, len(plan.Fixed)+2)
			maps.Copy(in, plan.Fixed)
			in[plan.Y] = ys[i]
			row := rep.Z[i]
			for j, x := range xs {
				in[plan.X] = x
				res, err := s.e.Compute(in)
				if err != nil {
					return errs.Wrap(err, "surface sweep failed")
				}
				row[j], _ = res.Score(out)
			}
			bar.Increment()
			return nil
		})
	}
	err = g.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	if err != nil {
		return nil, used, err
	}
	rep.Done()
	return rep, used, nil
}

func (s *Sweeper) check(plan *SurfacePlan) (xv, yv *fuzzy.Variable, out string, err error) {
	rb := s.e.RuleBase()
	if plan.N < 2 || plan.N > MaxSurfaceN {
		return nil, nil, "", errs.Validationf("n", "n must be in [2,%d], got %d", MaxSurfaceN, plan.N)
	}
	if plan.X == plan.Y {
		return nil, nil, "", errs.Validationf("y", "x and y must be different variables, both %q", plan.X)
	}
	var id fuzzy.VarID
	var ok bool
	if xv, id, ok = rb.Lookup(plan.X); !ok || !rb.IsInput(id) {
		return nil, nil, "", errs.Validationf("x", "x=%q is not an input variable", plan.X)
	}
	if yv, id, ok = rb.Lookup(plan.Y); !ok || !rb.IsInput(id) {
		return nil, nil, "", errs.Validationf("y", "y=%q is not an input variable", plan.Y)
	}
	for _, v := range rb.Inputs() {
		name := v.Name()
		_, fixed := plan.Fixed[name]
		switch {
		case name == plan.X || name == plan.Y:
			if fixed {
				return nil, nil, "", errs.Validationf(name, "%s is an axis and can not be fixed", name)
			}
		case !fixed:
			return nil, nil, "", errs.Validationf(name, "%s must be fixed", name)
		default:
			if err := v.Validate(plan.Fixed[name]); err != nil {
				return nil, nil, "", err
			}
		}
	}
	if len(plan.Fixed) != len(rb.Inputs())-2 {
		for name := range plan.Fixed {
			if _, id, ok := rb.Lookup(name); !ok || !rb.IsInput(id) {
				return nil, nil, "", errs.Validationf(name, "unknown input %q", name)
			}
		}
	}
	out = plan.Output
	if out == "" {
		out = rb.Outputs()[0].Name()
	} else if _, id, ok := rb.Lookup(out); !ok || rb.IsInput(id) {
		return nil, nil, "", errs.Validationf("output", "output=%q is not an output variable", out)
	}
	return xv, yv, out, nil
}
