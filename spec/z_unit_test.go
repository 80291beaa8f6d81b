package spec_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/fuzzy"
	"github.com/zintix-labs/lifespan/spec"
)

const mini = `
system_name: " Mini "
system_id: 3
inputs:
  - name: t
    universe: {min: 0, max: 10, step: 0.5}
    terms:
      - {name: lo, abc: [0, 0, 10]}
      - {name: hi, abc: [0, 10, 10]}
outputs:
  - name: q
    universe: {min: 0, max: 100, step: 1}
    terms:
      - {name: bad, abc: [0, 0, 100]}
      - {name: good, abc: [0, 100, 100]}
rules:
  - {when: [t.lo], then: [q.good]}
  - {when: [t.hi], then: [q.bad]}
`

const miniJSON = `{
  "system_name": "mini", "system_id": 3, "defuzz": "BISECTOR",
  "inputs": [{"name": "t", "universe": {"min": 0, "max": 10, "step": 0.5},
    "terms": [{"name": "lo", "abc": [0, 0, 10]}, {"name": "hi", "abc": [0, 10, 10]}]}],
  "outputs": [{"name": "q", "universe": {"min": 0, "max": 100, "step": 1},
    "terms": [{"name": "bad", "abc": [0, 0, 100]}, {"name": "good", "abc": [0, 100, 100]}]}],
  "rules": [{"when": ["t.lo"], "then": ["q.good"]}, {"when": ["t.hi"], "then": ["q.bad"]}]
}`

func TestYAMLBuild(t *testing.T) {
	ss, err := spec.GetSystemSettingByYAML([]byte(mini))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ss.SystemName != "mini" || ss.Defuzz != fuzzy.DefuzzCentroid || ss.SystemID != 3 {
		t.Fatalf("normalized setting = %+v", ss)
	}
	when, then := ss.Rules[0].Clauses()
	if when[0].String() != "t.lo" || then[0].String() != "q.good" {
		t.Fatalf("clauses = %v -> %v", when, then)
	}
	e, err := ss.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	res, err := e.Compute(fuzzy.Inputs{"t": 0})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if s, _ := res.Score("q"); s <= 50 {
		t.Fatalf("t=0 should score high, got %v", s)
	}
}

func TestJSONBuild(t *testing.T) {
	ss, err := spec.GetSystemSettingByJSON([]byte(miniJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ss.Defuzz != fuzzy.DefuzzBisector {
		t.Fatalf("defuzz = %q", ss.Defuzz)
	}
	if _, err := ss.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := spec.GetSystemSettingByJSON([]byte(`{"system_name": "x", "oops": 1}`)); !errors.Is(err, errs.ErrConfiguration) {
		t.Fatalf("unknown json field: %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		old  string
		new  string
	}{
		{"missing name", `system_name: " Mini "`, `system_name: ""`},
		{"unknown field", "system_id: 3", "system_id: 3\nowner: me"},
		{"bad defuzz", "system_id: 3", "system_id: 3\ndefuzz: median"},
		{"bad clause", "[t.lo]", "[t-lo]"},
		{"nested clause", "[t.lo]", "[t.lo.x]"},
		{"two params", "[0, 0, 10]", "[0, 10]"},
		{"duplicate variable", "name: q", "name: t"},
		{"no rules", "rules:\n  - {when: [t.lo], then: [q.good]}\n  - {when: [t.hi], then: [q.bad]}\n", "rules: []\n"},
	}
	for _, c := range cases {
		raw := strings.Replace(mini, c.old, c.new, 1)
		if raw == mini {
			t.Fatalf("%s: replacement did not apply", c.name)
		}
		if _, err := spec.GetSystemSettingByYAML([]byte(raw)); !errors.Is(err, errs.ErrConfiguration) {
			t.Fatalf("%s: want configuration error, got %v", c.name, err)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name string
		old  string
		new  string
	}{
		{"universe bounds", "{min: 0, max: 10, step: 0.5}", "{min: 10, max: 0, step: 0.5}"},
		{"universe step", "{min: 0, max: 10, step: 0.5}", "{min: 0, max: 10, step: 0}"},
		{"triangle order", "[0, 10, 10]", "[0, 10, 5]"},
		{"term outside universe", "[0, 10, 10]", "[0, 10, 20]"},
		{"duplicate term", "name: hi", "name: lo"},
		{"unknown term", "[q.bad]", "[q.awful]"},
		{"unknown variable", "[t.hi]", "[h.hi]"},
		{"output in antecedent", "[t.hi]", "[q.bad]"},
	}
	for _, c := range cases {
		raw := strings.Replace(mini, c.old, c.new, 1)
		ss, err := spec.GetSystemSettingByYAML([]byte(raw))
		if err != nil {
			t.Fatalf("%s: parse should succeed, got %v", c.name, err)
		}
		if _, err := ss.Build(); !errors.Is(err, errs.ErrConfiguration) {
			t.Fatalf("%s: want configuration error, got %v", c.name, err)
		}
	}
}
