package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/zintix-labs/lifespan/presets"
	"github.com/zintix-labs/lifespan/quality"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v (stderr: %s)", args, err, errOut.String())
	}
	return out.String()
}

func TestPrompterRepromptsInvalidInput(t *testing.T) {
	rt, err := presets.NewRuntime()
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	sys, err := rt.System(presets.FoodQualityID)
	if err != nil {
		t.Fatalf("system: %v", err)
	}
	in := strings.NewReader("abc\n200\n5\n20\n2\nx\n0\n1\n")
	var out bytes.Buffer
	p := newPrompter(in, &out)
	s, err := p.sample(sys.Engine(), quality.Sample{}, map[string]bool{})
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	want := quality.Sample{Temperature: 5, Humidity: 20, FoodType: quality.Dry, TimeOnShelf: 1}
	if s != want {
		t.Fatalf("sample = %+v, want %+v", s, want)
	}
	text := out.String()
	for _, msg := range []string{`"abc" is not a number`, "temperature must be within [0, 30]", "enter 0/dry or 1/fresh"} {
		if !strings.Contains(text, msg) {
			t.Fatalf("prompt output missing %q:\n%s", msg, text)
		}
	}
}

func TestPrompterSkipsGivenFields(t *testing.T) {
	rt, _ := presets.NewRuntime()
	sys, _ := rt.System(presets.FoodQualityID)
	p := newPrompter(strings.NewReader("90\n"), &bytes.Buffer{})
	given := map[string]bool{
		quality.VarTemperature: true,
		quality.VarFoodType:    true,
		quality.VarTimeOnShelf: true,
	}
	s, err := p.sample(sys.Engine(), quality.Sample{Temperature: 28, FoodType: quality.Fresh, TimeOnShelf: 25}, given)
	if err != nil || s.Humidity != 90 || s.Temperature != 28 {
		t.Fatalf("sample = %+v, err = %v", s, err)
	}
	if _, err := p.yes("again?"); err == nil {
		t.Fatalf("expected EOF")
	}
}

func TestAssessCommandJSON(t *testing.T) {
	out := execute(t, "assess", "--temperature", "5", "--humidity", "20", "--food_type", "dry", "--time_on_shelf", "1", "--json")
	var as struct {
		Label   string `json:"label"`
		Verdict string `json:"verdict"`
	}
	if err := json.Unmarshal([]byte(out), &as); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if as.Label != "Excellent" || as.Verdict != "Fresh" {
		t.Fatalf("unexpected assessment: %s", out)
	}
}

func TestAssessCommandTable(t *testing.T) {
	assessOpts.asJSON = false
	out := execute(t, "assess", "--temperature", "28", "--humidity", "90", "--food_type", "1", "--time_on_shelf", "25", "--json=false")
	for _, want := range []string{"Spoiled", "rule #53", "Output terms"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectCommands(t *testing.T) {
	if out := execute(t, "rules"); !strings.Contains(out, "#53") {
		t.Fatalf("rules output:\n%s", out)
	}
	if out := execute(t, "terms"); !strings.Contains(out, "trimf(") || !strings.Contains(out, "time_on_shelf") {
		t.Fatalf("terms output:\n%s", out)
	}
	if out := execute(t, "systems"); !strings.Contains(out, "food_quality") {
		t.Fatalf("systems output:\n%s", out)
	}
}

func TestSurfaceCommand(t *testing.T) {
	out := execute(t, "surface", "-q", "--n", "5", "--format", "json")
	var rep struct {
		X struct{ Name string } `json:"x"`
		Z [][]float64           `json:"z"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.X.Name != quality.VarTemperature || len(rep.Z) != 5 {
		t.Fatalf("unexpected surface: %s", out)
	}
}

func TestAuditCommand(t *testing.T) {
	out := execute(t, "audit", "-q", "--samples", "500", "--seed", "3", "--workers", "2", "--format", "json")
	var rep struct {
		Summary struct {
			Samples int
			Gaps    int
		}
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if rep.Summary.Samples != 500 || rep.Summary.Gaps != 0 {
		t.Fatalf("unexpected audit: %s", out)
	}
}

func TestSurfacePlanFixedOverride(t *testing.T) {
	rt, _ := presets.NewRuntime()
	sys, _ := rt.System(presets.FoodQualityID)
	reportOpts.x, reportOpts.y, reportOpts.output = "", "", ""
	reportOpts.n = 7
	reportOpts.fixed = "time_on_shelf:20"
	defer func() { reportOpts.fixed = "" }()
	plan, err := surfacePlan(sys.Engine(), presets.FoodQualityID)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.N != 7 || plan.Fixed[quality.VarTimeOnShelf] != 20 || plan.X != quality.VarTemperature {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	reportOpts.fixed = "time_on_shelf"
	if _, err := surfacePlan(sys.Engine(), presets.FoodQualityID); err == nil {
		t.Fatalf("expected error for malformed fixed")
	}
}

func TestDialAddr(t *testing.T) {
	cases := []struct{ in, want string }{
		{":8080", "127.0.0.1:8080"},
		{"0.0.0.0:9000", "127.0.0.1:9000"},
		{"localhost:7000", "localhost:7000"},
	}
	for _, c := range cases {
		if got := dialAddr(c.in); got != c.want {
			t.Fatalf("dialAddr(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
