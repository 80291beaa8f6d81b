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

package quality_test

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/presets/configs"
	"github.com/zintix-labs/lifespan/quality"
	"github.com/zintix-labs/lifespan/spec"
)

func newAssessor(t *testing.T) *quality.Assessor {
	t.Helper()
	raw, err := fs.ReadFile(configs.FS, configs.FoodQuality)
	if err != nil {
		t.Fatalf("read preset: %v", err)
	}
	ss, err := spec.GetSystemSettingByYAML(raw)
	if err != nil {
		t.Fatalf("parse preset: %v", err)
	}
	e, err := ss.Build()
	if err != nil {
		t.Fatalf("build preset: %v", err)
	}
	a, err := quality.NewAssessor(quality.EngineComputer{Engine: e}, "")
	if err != nil {
		t.Fatalf("assessor: %v", err)
	}
	return a
}

func TestClassifyBands(t *testing.T) {
	cases := []struct {
		score   float64
		label   quality.Label
		verdict quality.Verdict
	}{
		{100, quality.Excellent, quality.VerdictFresh},
		{90.01, quality.Excellent, quality.VerdictFresh},
		{90, quality.Good, quality.VerdictFresh},
		{70.5, quality.Good, quality.VerdictFresh},
		{70, quality.Fair, quality.VerdictAcceptable},
		{30.1, quality.Fair, quality.VerdictAcceptable},
		{30, quality.Poor, quality.VerdictSpoiled},
		{0, quality.Poor, quality.VerdictSpoiled},
	}
	for _, c := range cases {
		if got := quality.Classify(c.score); got != c.label {
			t.Fatalf("Classify(%v)=%v want %v", c.score, got, c.label)
		}
		if got := quality.VerdictOf(c.score); got != c.verdict {
			t.Fatalf("VerdictOf(%v)=%v want %v", c.score, got, c.verdict)
		}
	}
	b := quality.Bands{}
	if got := b.Labels()[b.Classify(95)]; got != "Excellent" {
		t.Fatalf("bands label=%s", got)
	}
}

func TestParseFoodType(t *testing.T) {
	for in, want := range map[string]quality.FoodType{"dry": quality.Dry, " Fresh ": quality.Fresh, "0": quality.Dry, "1": quality.Fresh} {
		got, err := quality.ParseFoodType(in)
		if err != nil || got != want {
			t.Fatalf("ParseFoodType(%q)=%v,%v", in, got, err)
		}
	}
	for in, want := range map[string]quality.FoodType{"1.0": quality.Fresh, "0.0": quality.Dry, "1e0": quality.Fresh} {
		got, err := quality.ParseFoodType(in)
		if err != nil || got != want {
			t.Fatalf("ParseFoodType(%q)=%v,%v", in, got, err)
		}
	}
	for _, in := range []string{"frozen", "0.5", "2", "-1", "NaN"} {
		if _, err := quality.ParseFoodType(in); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("ParseFoodType(%q): want validation error, got %v", in, err)
		}
	}
}

func TestAssessScenarios(t *testing.T) {
	a := newAssessor(t)
	ctx := context.Background()

	fresh, err := a.Assess(ctx, quality.Sample{Temperature: 5, Humidity: 20, FoodType: quality.Dry, TimeOnShelf: 1}, false)
	if err != nil {
		t.Fatalf("assess A: %v", err)
	}
	if fresh.Score <= 90 || fresh.Label != quality.Excellent || fresh.Verdict != quality.VerdictFresh {
		t.Fatalf("scenario A = %.3f %v %v", fresh.Score, fresh.Label, fresh.Verdict)
	}
	if fresh.DominantRule == nil || fresh.DominantRule.Index != 0 {
		t.Fatalf("scenario A dominant = %+v", fresh.DominantRule)
	}
	if fresh.ID == uuid.Nil || fresh.Curve != nil {
		t.Fatalf("id=%v curve=%v", fresh.ID, fresh.Curve)
	}

	spoiled, err := a.Assess(ctx, quality.Sample{Temperature: 28, Humidity: 90, FoodType: quality.Fresh, TimeOnShelf: 25}, true)
	if err != nil {
		t.Fatalf("assess B: %v", err)
	}
	if spoiled.Score > 30 || spoiled.Label != quality.Poor || spoiled.Verdict != quality.VerdictSpoiled {
		t.Fatalf("scenario B = %.3f %v %v", spoiled.Score, spoiled.Label, spoiled.Verdict)
	}
	if spoiled.DominantRule == nil || spoiled.DominantRule.Index != 53 {
		t.Fatalf("scenario B dominant = %+v", spoiled.DominantRule)
	}
	if !strings.HasSuffix(spoiled.DominantRule.Rule, "-> quality.poor") {
		t.Fatalf("scenario B rule = %q", spoiled.DominantRule.Rule)
	}
	c := spoiled.Curve
	if c == nil || len(c.X) != 1001 || len(c.Aggregated) != len(c.X) || len(c.Terms) != 4 {
		t.Fatalf("curve shape wrong: %+v", c)
	}
	if c.Aggregated[0] <= 0 {
		t.Fatalf("poor region should be active, got %v", c.Aggregated[0])
	}
	if spoiled.ID == fresh.ID {
		t.Fatalf("ids must differ")
	}
}

func TestAssessJSON(t *testing.T) {
	as, err := newAssessor(t).Assess(context.Background(), quality.Sample{Temperature: 5, Humidity: 20, TimeOnShelf: 1}, false)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	raw, err := json.Marshal(as)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	for _, want := range []string{`"label":"Excellent"`, `"verdict":"Fresh"`, `"dominant_rule":{"index":0`} {
		if !strings.Contains(s, want) {
			t.Fatalf("json missing %s: %s", want, s)
		}
	}
}

func TestAssessValidation(t *testing.T) {
	_, err := newAssessor(t).Assess(context.Background(), quality.Sample{Temperature: 20, Humidity: 150, FoodType: quality.Dry, TimeOnShelf: 5}, false)
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	e, _ := errs.AsErr(err)
	if e.Field != quality.VarHumidity || !strings.Contains(err.Error(), "[0,100]") {
		t.Fatalf("error should name humidity and its range: %v", err)
	}
}

func TestAssessCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newAssessor(t).Assess(ctx, quality.Sample{}, false)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
