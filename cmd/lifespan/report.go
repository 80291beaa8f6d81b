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
	"context"
	"fmt"
	"io"
	"os"
	goruntime "runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/lifespan"
	"github.com/zintix-labs/lifespan/dto"
	"github.com/zintix-labs/lifespan/fuzzy"
	"github.com/zintix-labs/lifespan/perf"
	"github.com/zintix-labs/lifespan/presets"
	"github.com/zintix-labs/lifespan/quality"
	"github.com/zintix-labs/lifespan/spec"
	"github.com/zintix-labs/lifespan/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var reportOpts struct {
	// surface
	x, y, fixed, output string
	n                   int
	// audit
	samples int
	seed    int64
	// shared
	workers int
	format  string
	outFile string
	pprof   string
	quiet   bool
}

func bindReport(c *cobra.Command) {
	f := c.Flags()
	f.IntVar(&reportOpts.workers, "workers", 0, "number of workers (0 = GOMAXPROCS)")
	f.StringVar(&reportOpts.format, "format", "", "report format: json|yaml (default: table)")
	f.StringVarP(&reportOpts.outFile, "out", "o", "", "write the report to a file instead of stdout")
	f.StringVarP(&reportOpts.pprof, "pprof", "p", "", "pprof: '', cpu, heap, allocs")
	f.BoolVarP(&reportOpts.quiet, "quiet", "q", false, "hide the progress bar")
	f.StringVar(&reportOpts.output, "output", "", "output variable (default: first output)")
}

func bindSurface(c *cobra.Command) {
	bindReport(c)
	f := c.Flags()
	f.StringVar(&reportOpts.x, "x", "", "input variable on the x axis")
	f.StringVar(&reportOpts.y, "y", "", "input variable on the y axis")
	f.IntVar(&reportOpts.n, "n", presets.DefaultSurfaceN, "samples per axis")
	f.StringVar(&reportOpts.fixed, "fixed", "", "fixed inputs, e.g. food_type:0,time_on_shelf:10")
}

func bindAudit(c *cobra.Command) {
	bindReport(c)
	f := c.Flags()
	f.IntVar(&reportOpts.samples, "samples", 1_000_000, "number of random samples")
	f.Int64Var(&reportOpts.seed, "seed", -1, "int64 seed (negative = random)")
}

// report 是 SurfaceReport 與 AuditReport 共同的輸出行為。
type report interface {
	WriteWith(w io.Writer, r stats.Render) error
}

func runSurface(cmd *cobra.Command, args []string) error {
	rt, sys, name, err := newSystem()
	if err != nil {
		return err
	}
	defer rt.Close()
	plan, err := surfacePlan(sys.Engine(), spec.SID(systemID))
	if err != nil {
		return err
	}
	sw, err := lifespan.NewSweeper(name, sys.Engine())
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(cmd.ErrOrStderr(), "%s\n", styles.Title.Render(p.Sprintf("[SYSTEM:%s] [X:%s] [Y:%s] [POINTS:%d]", name, plan.X, plan.Y, plan.N*plan.N)))
	var rep *stats.SurfaceReport
	var used time.Duration
	err = perf.Run(reportOpts.pprof, "", func() error {
		var err error
		rep, used, err = sw.Sweep(ctx(cmd), plan, reportOpts.workers, !reportOpts.quiet)
		return err
	})
	if err != nil {
		return err
	}
	return emit(cmd, rep, func(w io.Writer) { rep.StdOut(w, used) })
}

func surfacePlan(e *fuzzy.Engine, id spec.SID) (lifespan.SurfacePlan, error) {
	fixed := map[string]float64{}
	if reportOpts.fixed != "" {
		var err error
		if fixed, err = dto.ParseFixed(reportOpts.fixed); err != nil {
			return lifespan.SurfacePlan{}, err
		}
	}
	if reportOpts.x != "" || reportOpts.y != "" {
		return lifespan.SurfacePlan{X: reportOpts.x, Y: reportOpts.y, N: reportOpts.n, Fixed: fixed, Output: reportOpts.output}, nil
	}
	var plan lifespan.SurfacePlan
	if id == presets.FoodQualityID {
		plan = presets.DefaultSurface()
	} else {
		var err error
		if plan, err = lifespan.DefaultPlan(e, reportOpts.n); err != nil {
			return plan, err
		}
	}
	plan.N = reportOpts.n
	for k, v := range fixed {
		plan.Fixed[k] = v
	}
	if reportOpts.output != "" {
		plan.Output = reportOpts.output
	}
	return plan, nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	rt, sys, name, err := newSystem()
	if err != nil {
		return err
	}
	defer rt.Close()
	seed := reportOpts.seed
	if seed < 0 {
		if seed, err = lifespan.RandomSeed(); err != nil {
			return err
		}
	}
	sp, err := lifespan.NewSampler(name, sys.Engine(), seed)
	if err != nil {
		return err
	}
	workers := reportOpts.workers
	if workers <= 0 {
		workers = goruntime.GOMAXPROCS(0)
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(cmd.ErrOrStderr(), "%s\n", styles.Title.Render(p.Sprintf("[WORKERS:%d] [SYSTEM:%s] [SAMPLES:%d] [SEED:%d]", workers, name, reportOpts.samples, seed)))
	var rep *stats.AuditReport
	var used time.Duration
	err = perf.Run(reportOpts.pprof, "", func() error {
		var err error
		rep, used, err = sp.Audit(ctx(cmd), reportOpts.output, quality.Bands{}, reportOpts.samples, workers, !reportOpts.quiet)
		return err
	})
	if err != nil {
		return err
	}
	return emit(cmd, rep, func(w io.Writer) { rep.StdOut(w, used) })
}

// emit 依 --format / --out 輸出報表；未指定格式時印表格。
func emit(cmd *cobra.Command, rep report, table func(io.Writer)) error {
	w := cmd.OutOrStdout()
	if reportOpts.outFile != "" {
		f, err := os.Create(reportOpts.outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if reportOpts.format == "" {
		table(w)
		return nil
	}
	r, err := stats.RenderByName(reportOpts.format)
	if err != nil {
		return err
	}
	if err := rep.WriteWith(w, r); err != nil {
		return err
	}
	if reportOpts.outFile != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), styles.Muted.Render("report written to "+reportOpts.outFile))
	}
	return nil
}

func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}
