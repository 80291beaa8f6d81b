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

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/lifespan/fuzzy"
	"github.com/zintix-labs/lifespan/quality"
	"github.com/zintix-labs/lifespan/stats"
)

var assessOpts struct {
	temperature float64
	humidity    float64
	foodType    string
	timeOnShelf float64
	asJSON      bool
	curve       bool
}

func bindAssess(c *cobra.Command) {
	f := c.Flags()
	f.Float64Var(&assessOpts.temperature, quality.VarTemperature, 0, "storage temperature (°C)")
	f.Float64Var(&assessOpts.humidity, quality.VarHumidity, 0, "relative humidity (%)")
	f.StringVar(&assessOpts.foodType, quality.VarFoodType, "", "food type: dry|fresh (or 0|1)")
	f.Float64Var(&assessOpts.timeOnShelf, quality.VarTimeOnShelf, 0, "days on shelf")
	f.BoolVar(&assessOpts.asJSON, "json", false, "print the assessment as JSON")
	f.BoolVar(&assessOpts.curve, "curve", false, "include the aggregated output curve (JSON only)")
}

func runAssess(cmd *cobra.Command, args []string) error {
	rt, sys, _, err := newSystem()
	if err != nil {
		return err
	}
	defer rt.Close()
	as, err := quality.NewAssessor(sys, quality.OutQuality)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	given := map[string]bool{}
	for _, name := range []string{quality.VarTemperature, quality.VarHumidity, quality.VarFoodType, quality.VarTimeOnShelf} {
		given[name] = flags.Changed(name)
	}
	partial := quality.Sample{
		Temperature: assessOpts.temperature,
		Humidity:    assessOpts.humidity,
		TimeOnShelf: assessOpts.timeOnShelf,
	}
	if given[quality.VarFoodType] {
		if partial.FoodType, err = quality.ParseFoodType(assessOpts.foodType); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	all := given[quality.VarTemperature] && given[quality.VarHumidity] && given[quality.VarFoodType] && given[quality.VarTimeOnShelf]
	if all {
		return assessOnce(cmd.Context(), out, as, partial)
	}

	// 缺少的值互動詢問；輸入不合法時重新詢問同一欄
	p := newPrompter(cmd.InOrStdin(), out)
	for {
		s, err := p.sample(sys.Engine(), partial, given)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := assessOnce(cmd.Context(), out, as, s); err != nil {
			fmt.Fprintln(out, styles.Error.Render(err.Error()))
		}
		again, err := p.yes("assess another sample?")
		if err != nil || !again {
			return nil
		}
	}
}

func assessOnce(ctx context.Context, w io.Writer, as *quality.Assessor, s quality.Sample) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := as.Assess(ctx, s, assessOpts.curve)
	if err != nil {
		return err
	}
	if assessOpts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printAssessment(w, res)
	return nil
}

func printAssessment(w io.Writer, a *quality.Assessment) {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Food quality") + "\n")
	fmt.Fprintf(&sb, "score    %s\n", styles.Score.Render(strconv.FormatFloat(a.Score, 'f', 2, 64)))
	fmt.Fprintf(&sb, "label    %s\n", a.Label)
	fmt.Fprintf(&sb, "verdict  %s\n", styles.verdict(a.Verdict))
	if a.DominantRule != nil {
		sb.WriteString(styles.Muted.Render(fmt.Sprintf("rule #%d  %s  (%.3f)", a.DominantRule.Index, a.DominantRule.Rule, a.DominantRule.Strength)))
	}
	fmt.Fprintln(w, styles.Box.Render(sb.String()))

	keys := make([]string, len(a.Activations))
	msg := make(map[string]string, len(a.Activations))
	for i, act := range a.Activations {
		keys[i] = act.Term
		msg[act.Term] = fmt.Sprintf("cut %.3f  μ %.3f", act.Strength, act.Membership)
	}
	fmt.Fprint(w, stats.Table("Output terms", keys, msg))
}

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(r), out: w}
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, styles.Prompt.Render(prompt)+" ")
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// number 詢問 v 的值直到落在論域內。
func (p *prompter) number(v *fuzzy.Variable) (float64, error) {
	u := v.Universe()
	prompt := v.Name()
	if v.Unit() != "" {
		prompt += " (" + v.Unit() + ")"
	}
	prompt += fmt.Sprintf(" [%g, %g]:", u.Min(), u.Max())
	for {
		s, err := p.line(prompt)
		if err != nil {
			return 0, err
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			fmt.Fprintln(p.out, styles.Error.Render(fmt.Sprintf("%q is not a number", s)))
			continue
		}
		if err := v.Validate(x); err != nil {
			fmt.Fprintln(p.out, styles.Error.Render(fmt.Sprintf("%s must be within [%g, %g]", v.Name(), u.Min(), u.Max())))
			continue
		}
		return x, nil
	}
}

func (p *prompter) foodType() (quality.FoodType, error) {
	for {
		s, err := p.line("food type (0 = dry, 1 = fresh):")
		if err != nil {
			return 0, err
		}
		ft, err := quality.ParseFoodType(s)
		if err != nil {
			fmt.Fprintln(p.out, styles.Error.Render("enter 0/dry or 1/fresh"))
			continue
		}
		return ft, nil
	}
}

func (p *prompter) yes(q string) (bool, error) {
	s, err := p.line(q + " [y/N]")
	if err != nil {
		return false, err
	}
	s = strings.ToLower(s)
	return s == "y" || s == "yes", nil
}

// sample 補齊 given 之外的欄位。
func (p *prompter) sample(e *fuzzy.Engine, s quality.Sample, given map[string]bool) (quality.Sample, error) {
	rb := e.RuleBase()
	fields := []struct {
		name string
		dst  *float64
	}{
		{quality.VarTemperature, &s.Temperature},
		{quality.VarHumidity, &s.Humidity},
		{quality.VarFoodType, nil},
		{quality.VarTimeOnShelf, &s.TimeOnShelf},
	}
	for _, f := range fields {
		if given[f.name] {
			continue
		}
		if f.dst == nil {
			ft, err := p.foodType()
			if err != nil {
				return s, err
			}
			s.FoodType = ft
			continue
		}
		v, _, ok := rb.Lookup(f.name)
		if !ok {
			return s, fmt.Errorf("system has no input %q", f.name)
		}
		x, err := p.number(v)
		if err != nil {
			return s, err
		}
		*f.dst = x
	}
	return s, nil
}
