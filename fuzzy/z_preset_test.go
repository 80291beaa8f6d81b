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

package fuzzy_test

import (
	"fmt"
	"testing"

	"github.com/zintix-labs/lifespan/fuzzy"
	"github.com/zintix-labs/lifespan/presets"
)

// 單元測試用的規則表必須和內建 food_quality.yaml 完全一致。
func TestFoodFixtureMatchesPreset(t *testing.T) {
	rt, err := presets.NewRuntime()
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	defer rt.Close()
	want, ok := rt.Engine(presets.FoodQualityID)
	if !ok {
		t.Fatalf("preset system %d not found", presets.FoodQualityID)
	}
	got := fuzzy.FoodEngine(t)

	wrb, grb := want.RuleBase(), got.RuleBase()
	if wrb.Len() != grb.Len() {
		t.Fatalf("rules=%d preset=%d", grb.Len(), wrb.Len())
	}
	for i := range wrb.Len() {
		if g, w := grb.Describe(i), wrb.Describe(i); g != w {
			t.Fatalf("rule #%d:\n got  %s\n want %s", i, g, w)
		}
	}

	vars := append(wrb.Inputs(), wrb.Outputs()...)
	for _, wv := range vars {
		gv, _, ok := grb.Lookup(wv.Name())
		if !ok {
			t.Fatalf("fixture missing variable %s", wv.Name())
		}
		wu, gu := wv.Universe(), gv.Universe()
		if wu.Min() != gu.Min() || wu.Max() != gu.Max() || wu.Step() != gu.Step() {
			t.Fatalf("%s universe [%g,%g] step %g, preset [%g,%g] step %g",
				wv.Name(), gu.Min(), gu.Max(), gu.Step(), wu.Min(), wu.Max(), wu.Step())
		}
		if wv.TermCount() != gv.TermCount() {
			t.Fatalf("%s terms=%d preset=%d", wv.Name(), gv.TermCount(), wv.TermCount())
		}
		for id := range fuzzy.TermID(wv.TermCount()) {
			wt, gt := wv.Term(id), gv.Term(id)
			if wt.Name != gt.Name || fmt.Sprint(wt.MF) != fmt.Sprint(gt.MF) {
				t.Fatalf("%s term %d: %s %s, preset %s %s", wv.Name(), id, gt.Name, gt.MF, wt.Name, wt.MF)
			}
		}
	}
}
