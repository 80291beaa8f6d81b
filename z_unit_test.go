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

package lifespan_test

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/lifespan"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/fuzzy"
	"github.com/zintix-labs/lifespan/presets/configs"
	"github.com/zintix-labs/lifespan/spec"
	"github.com/zintix-labs/lifespan/stats"
)

// tiny 是只有一個前件、一個後件的最小系統。
const tiny = `
system_name: Tiny
system_id: 7
defuzz: mom
inputs:
  - name: x
    universe: {min: 0, max: 10, step: 1}
    terms:
      - {name: lo, abc: [0, 0, 10]}
      - {name: hi, abc: [0, 10, 10]}
  - name: y
    universe: {min: 0, max: 1, step: 0.5}
    terms:
      - {name: any, abc: [0, 0.5, 1]}
outputs:
  - name: z
    universe: {min: 0, max: 100, step: 1}
    terms:
      - {name: low, abc: [0, 0, 50]}
      - {name: high, abc: [50, 100, 100]}
rules:
  - {when: [x.lo], then: [z.low]}
  - {when: [x.hi], then: [z.high]}
`

var scenarioA = fuzzy.Inputs{"temperature": 5, "humidity": 20, "food_type": 0, "time_on_shelf": 1}

func newLab(t *testing.T, extra ...fs.FS) *lifespan.Lab {
	t.Helper()
	lab, err := lifespan.NewAuto(lifespan.Configs(append([]fs.FS{configs.FS}, extra...)...))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	return lab
}

func TestLabRegisterAll(t *testing.T) {
	lab := newLab(t, fstest.MapFS{"tiny.yaml": {Data: []byte(tiny)}})
	ids := lab.IDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 7 {
		t.Fatalf("ids=%v want [1 7]", ids)
	}
	ent, ok := lab.EntryByName("TINY")
	if !ok || ent.SID != 7 || ent.ConfigName != "tiny.yaml" {
		t.Fatalf("entry=%+v ok=%v", ent, ok)
	}
	sum, err := lab.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum[0].Name != "food_quality" || sum[0].Rules != 54 || len(sum[0].Inputs) != 4 {
		t.Fatalf("food summary=%+v", sum[0])
	}
	if sum[1].Defuzz != fuzzy.DefuzzMeanOfMaximum {
		t.Fatalf("tiny defuzz=%q", sum[1].Defuzz)
	}
}

func TestLabRejects(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"duplicate id":   {"a.yaml": {Data: []byte(strings.Replace(tiny, "system_id: 7", "system_id: 1", 1))}},
		"duplicate name": {"b.yaml": {Data: []byte(strings.Replace(tiny, "Tiny", "Food_Quality", 1))}},
		"bad rule":       {"c.yaml": {Data: []byte(strings.Replace(tiny, "z.high]", "z.none]", 1))}},
		"bad term":       {"d.yaml": {Data: []byte(strings.Replace(tiny, "[50, 100, 100]", "[50, 100, 120]", 1))}},
		"unknown field":  {"e.yaml": {Data: []byte(tiny + "extra: 1\n")}},
	}
	for name, fsys := range cases {
		_, err := lifespan.NewAuto(lifespan.Configs(configs.FS, fsys))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	// 解析或建構失敗時，錯誤要帶出是哪個檔案
	for file, fsys := range map[string]fstest.MapFS{"c.yaml": cases["bad rule"], "e.yaml": cases["unknown field"]} {
		_, err := lifespan.NewAuto(lifespan.Configs(configs.FS, fsys))
		e, ok := errs.AsErr(err)
		if !ok || e.Extra != "file="+file || !errors.Is(err, errs.ErrConfiguration) {
			t.Fatalf("%s: err=%v", file, err)
		}
	}
	if _, err := lifespan.New(nil); err == nil {
		t.Fatalf("expected error without configs")
	}
}

func TestNewEngineByYAML(t *testing.T) {
	lab := newLab(t, fstest.MapFS{"tiny.yaml": {Data: []byte(tiny)}})
	if _, err := lab.NewEngineByYAML([]byte(tiny)); err != nil {
		t.Fatalf("matching config: %v", err)
	}
	other := strings.Replace(tiny, "system_id: 7", "system_id: 1", 1)
	if _, err := lab.NewEngineByYAML([]byte(other)); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestRuntimeCompute(t *testing.T) {
	rt, err := newLab(t).BuildRuntime()
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	ctx := context.Background()
	res, err := rt.Compute(ctx, 1, scenarioA)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want, _ := res.Score("quality")
	if want <= 90 {
		t.Fatalf("scenario A score=%v", want)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := rt.Compute(ctx, 1, scenarioA)
			if err != nil {
				t.Errorf("concurrent compute: %v", err)
				return
			}
			if got, _ := r.Score("quality"); got != want {
				t.Errorf("score=%v want %v", got, want)
			}
		}()
	}
	wg.Wait()

	if _, err := rt.Compute(ctx, 99, scenarioA); err == nil {
		t.Fatalf("expected unknown id error")
	}
	if _, id, ok := rt.EngineByName("Food_Quality"); !ok || id != 1 {
		t.Fatalf("engine by name: id=%d ok=%v", id, ok)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = rt.Compute(cctx, 1, scenarioA)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}
	if e, _ := errs.AsErr(err); e.ErrLv != errs.Warn {
		t.Fatalf("cancel should be warn, got %v", e.ErrLv)
	}

	sys, err := rt.System(1)
	if err != nil {
		t.Fatalf("system: %v", err)
	}
	rt.CloseWithReason("shutdown")
	rt.Close()
	if !rt.Closed() || rt.ClosedReason() != "shutdown" {
		t.Fatalf("closed=%v reason=%q", rt.Closed(), rt.ClosedReason())
	}
	if _, err := sys.Compute(ctx, scenarioA); err == nil || !strings.Contains(err.Error(), "shutdown") {
		t.Fatalf("closed runtime must refuse: %v", err)
	}
}

func TestSweepDefaultSurface(t *testing.T) {
	lab := newLab(t)
	sw, err := lab.NewSweeper(1)
	if err != nil {
		t.Fatalf("sweeper: %v", err)
	}
	plan := lifespan.SurfacePlan{
		X: "temperature", Y: "humidity", N: 21,
		Fixed: map[string]float64{"food_type": 0, "time_on_shelf": 10},
	}
	rep, _, err := sw.Sweep(context.Background(), plan, 4, false)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(rep.Z) != 21 || len(rep.Z[0]) != 21 || rep.Output != "quality" {
		t.Fatalf("shape %dx%d output=%s", len(rep.Z), len(rep.Z[0]), rep.Output)
	}
	if rep.X.Values[0] != 0 || rep.X.Values[20] != 30 || rep.Y.Values[20] != 100 {
		t.Fatalf("axes x=%v y=%v", rep.X.Values, rep.Y.Values)
	}
	e, _ := lab.NewEngine(1)
	in := fuzzy.Inputs{"temperature": rep.X.Values[3], "humidity": rep.Y.Values[5], "food_type": 0, "time_on_shelf": 10}
	res, _ := e.Compute(in)
	if got, _ := res.Score("quality"); math.Abs(got-rep.Z[5][3]) > 1e-12 {
		t.Fatalf("Z[5][3]=%v want %v", rep.Z[5][3], got)
	}
	if rep.Summary.Min.Z > rep.Summary.Mean || rep.Summary.Mean > rep.Summary.Max.Z {
		t.Fatalf("summary=%+v", rep.Summary)
	}
}

func TestSweepPlanErrors(t *testing.T) {
	sw, err := newLab(t).NewSweeper(1)
	if err != nil {
		t.Fatalf("sweeper: %v", err)
	}
	fixed := map[string]float64{"food_type": 0, "time_on_shelf": 10}
	plans := map[string]lifespan.SurfacePlan{
		"n too small":   {X: "temperature", Y: "humidity", N: 1, Fixed: fixed},
		"same axis":     {X: "humidity", Y: "humidity", N: 5, Fixed: fixed},
		"output axis":   {X: "quality", Y: "humidity", N: 5, Fixed: fixed},
		"missing fixed": {X: "temperature", Y: "humidity", N: 5, Fixed: map[string]float64{"food_type": 0}},
		"fixed range":   {X: "temperature", Y: "humidity", N: 5, Fixed: map[string]float64{"food_type": 0, "time_on_shelf": 99}},
		"extra fixed":   {X: "temperature", Y: "humidity", N: 5, Fixed: map[string]float64{"food_type": 0, "time_on_shelf": 1, "ph": 7}},
		"bad output":    {X: "temperature", Y: "humidity", N: 5, Fixed: fixed, Output: "humidity"},
	}
	for name, p := range plans {
		_, _, err := sw.Sweep(context.Background(), p, 2, false)
		if !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("%s: want validation error, got %v", name, err)
		}
	}
}

// 五等級分類器，讓測試不依賴 quality 套件。
type fifths struct{}

func (fifths) Labels() []string { return []string{"0", "1", "2", "3", "4"} }
func (fifths) Classify(s float64) int {
	return min(4, max(0, int(s/20)))
}

func TestAuditCoverage(t *testing.T) {
	lab := newLab(t)
	s, err := lab.NewSamplerWithSeed(1, 42)
	if err != nil {
		t.Fatalf("sampler: %v", err)
	}
	rep, _, err := s.Audit(context.Background(), "", fifths{}, 5000, 4, false)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if rep.Summary.Samples != 5000 || rep.Summary.Gaps != 0 {
		t.Fatalf("samples=%d gaps=%d", rep.Summary.Samples, rep.Summary.Gaps)
	}
	if rep.Summary.Min < 0 || rep.Summary.Max > 100 {
		t.Fatalf("scores out of universe: %v..%v", rep.Summary.Min, rep.Summary.Max)
	}

	again, _ := lab.NewSamplerWithSeed(1, 42)
	rep2, _, _ := again.Audit(context.Background(), "quality", fifths{}, 5000, 4, false)
	if rep.Summary.Mean != rep2.Summary.Mean {
		t.Fatalf("same seed must reproduce: %v vs %v", rep.Summary.Mean, rep2.Summary.Mean)
	}
}

func TestAuditGaps(t *testing.T) {
	// hi 在 x=0 的隸屬度為 0；拿掉 lo 規則後，x=0 的樣本無法解模糊。
	gap := strings.Replace(tiny, "  - {when: [x.lo], then: [z.low]}\n", "", 1)
	lab := newLab(t, fstest.MapFS{"gap.yaml": {Data: []byte(gap)}})
	s, err := lab.NewSamplerWithSeed(spec.SID(7), 1)
	if err != nil {
		t.Fatalf("sampler: %v", err)
	}
	var cls stats.Classifier = fifths{}
	rep, _, err := s.Audit(context.Background(), "z", cls, 2000, 3, false)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if rep.Summary.Gaps == 0 || rep.Summary.Gaps == 2000 || len(rep.Gaps) == 0 {
		t.Fatalf("gaps=%d samples kept=%d", rep.Summary.Gaps, len(rep.Gaps))
	}
	if _, _, err := s.Audit(context.Background(), "x", cls, 10, 1, false); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("input as output should fail: %v", err)
	}
}

func TestDefaultPlan(t *testing.T) {
	lab := newLab(t, fstest.MapFS{"tiny.yaml": {Data: []byte(tiny)}})
	e, err := lab.NewEngine(1)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	plan, err := lifespan.DefaultPlan(e, 5)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.X != "temperature" || plan.Y != "humidity" || plan.Output != "quality" {
		t.Fatalf("plan=%+v", plan)
	}
	if plan.Fixed["food_type"] != 1 || math.Abs(plan.Fixed["time_on_shelf"]-15) > 1e-9 {
		t.Fatalf("fixed=%v", plan.Fixed)
	}
	sw, _ := lab.NewSweeper(1)
	if _, _, err := sw.Sweep(context.Background(), plan, 2, false); err != nil {
		t.Fatalf("default plan must sweep: %v", err)
	}

	te, _ := lab.NewEngine(7)
	tp, err := lifespan.DefaultPlan(te, 3)
	if err != nil || tp.X != "x" || tp.Y != "y" || len(tp.Fixed) != 0 || tp.Output != "z" {
		t.Fatalf("tiny plan=%+v err=%v", tp, err)
	}
	if _, err := lifespan.DefaultPlan(nil, 3); err == nil {
		t.Fatalf("nil engine should fail")
	}
}

func TestRuntimeHelpers(t *testing.T) {
	rt, err := newLab(t).BuildRuntime()
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	defer rt.Close()
	if name, ok := rt.Name(1); !ok || name != "food_quality" {
		t.Fatalf("name=%q ok=%v", name, ok)
	}
	if _, ok := rt.Name(99); ok {
		t.Fatalf("unknown id should not resolve")
	}
	if _, err := rt.NewSweeper(99); err == nil {
		t.Fatalf("unknown id should fail")
	}
	sw, err := rt.NewSweeper(1)
	if err != nil {
		t.Fatalf("sweeper: %v", err)
	}
	plan := lifespan.SurfacePlan{X: "temperature", Y: "humidity", N: 3, Fixed: map[string]float64{"food_type": 1, "time_on_shelf": 5}}
	rep, _, err := sw.Sweep(context.Background(), plan, 0, false)
	if err != nil || rep.System != "food_quality" {
		t.Fatalf("sweep rep=%v err=%v", rep, err)
	}
	sp, err := rt.NewSampler(1, 5)
	if err != nil || sp.Seed() != 5 {
		t.Fatalf("sampler err=%v", err)
	}
	ar, _, err := sp.Audit(context.Background(), "", fifths{}, 200, 2, false)
	if err != nil || ar.Summary.Samples != 200 || ar.Summary.System != "food_quality" {
		t.Fatalf("audit=%+v err=%v", ar, err)
	}
	seed, err := lifespan.RandomSeed()
	if err != nil || seed < 0 {
		t.Fatalf("seed=%d err=%v", seed, err)
	}
}
