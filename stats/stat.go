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

// Package stats 收集推論結果的統計並輸出報表（JSON / YAML / 終端表格）。
package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/zintix-labs/lifespan/errs"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/floats"
)

var lang language.Tag = language.English

// 保留前幾個覆蓋缺口的輸入，方便除錯。
const maxGapSamples = 10

// Classifier 把 crisp 分數歸到一個顯示等級。
type Classifier interface {
	Labels() []string
	Classify(score float64) int
}

// AuditReport 是隨機取樣稽核的報表：分數分布、等級占比、覆蓋缺口。
type AuditReport struct {
	Summary *AuditSummary        `json:"Summary"`
	Labels  []LabelShare         `json:"Labels"`
	Dist    *DistReport          `json:"Dist"`
	Gaps    []map[string]float64 `json:"Gaps,omitempty"`
}

type AuditSummary struct {
	System  string   `json:"System"`
	Output  string   `json:"Output"`
	Samples int      `json:"Samples"`
	Gaps    int      `json:"Gaps"`
	GapRate Estimate `json:"GapRate"`
	Mean    float64  `json:"Mean"`
	Std     float64  `json:"Std"`
	Min     float64  `json:"Min"`
	Max     float64  `json:"Max"`
	P10     Estimate `json:"P10"`
	P50     Estimate `json:"P50"`
	P90     Estimate `json:"P90"`
}

type LabelShare struct {
	Label string   `json:"Label"`
	Count int      `json:"Count"`
	Share Estimate `json:"Share"`
}

// DistReport 分數區間落點統計
type DistReport struct {
	Bucket  []string  `json:"Bucket"`
	Collect []int     `json:"Collect"`
	Dist    []float64 `json:"Dist"`
}

// ScoreRecorder 累積一個 worker 的取樣結果。非併發安全：每個 worker 各持一份，最後 Merge。
type ScoreRecorder struct {
	system  string
	output  string
	cls     Classifier
	buckets *Buckets
	scores  []float64
	labels  []int
	collect []int
	gaps    int
	gapIn   []map[string]float64
}

func NewScoreRecorder(system, output string, cls Classifier, b *Buckets) (*ScoreRecorder, error) {
	if cls == nil || b == nil {
		return nil, errs.NewFatal("score recorder requires classifier and buckets")
	}
	return &ScoreRecorder{
		system:  system,
		output:  output,
		cls:     cls,
		buckets: b,
		scores:  make([]float64, 0, 1024),
		labels:  make([]int, len(cls.Labels())),
		collect: make([]int, b.Len()),
	}, nil
}

func (r *ScoreRecorder) Record(score float64) {
	r.scores = append(r.scores, score)
	r.labels[r.cls.Classify(score)]++
	r.collect[r.buckets.Index(score)]++
}

// RecordGap 記錄一個無法解模糊（總激活為 0）的輸入。
func (r *ScoreRecorder) RecordGap(in map[string]float64) {
	r.gaps++
	if len(r.gapIn) < maxGapSamples {
		cp := make(map[string]float64, len(in))
		for k, v := range in {
			cp[k] = v
		}
		r.gapIn = append(r.gapIn, cp)
	}
}

func (r *ScoreRecorder) Samples() int { return len(r.scores) + r.gaps }

// MergeScoreRecorder 合併多個 worker 的紀錄，所有 recorder 必須使用同一組 classifier 與分桶。
func MergeScoreRecorder(rs []*ScoreRecorder) (*ScoreRecorder, error) {
	if len(rs) == 0 {
		return nil, errs.NewFatal("no recorder to merge")
	}
	base := rs[0]
	m, _ := NewScoreRecorder(base.system, base.output, base.cls, base.buckets)
	for _, r := range rs {
		if r.buckets.Len() != base.buckets.Len() || len(r.labels) != len(base.labels) {
			return nil, errs.NewFatal("can not merge recorders with different layouts")
		}
		m.scores = append(m.scores, r.scores...)
		addInt(m.labels, r.labels)
		addInt(m.collect, r.collect)
		m.gaps += r.gaps
		for _, g := range r.gapIn {
			if len(m.gapIn) < maxGapSamples {
				m.gapIn = append(m.gapIn, g)
			}
		}
	}
	return m, nil
}

func addInt(dst, src []int) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// Done 一次性計算報表。
func (r *ScoreRecorder) Done() *AuditReport {
	n := r.Samples()
	sum := &AuditSummary{
		System:  r.system,
		Output:  r.output,
		Samples: n,
		Gaps:    r.gaps,
		GapRate: proportionCICP(r.gaps, n, confidence),
	}
	if len(r.scores) > 0 {
		sorted := sortedCopy(r.scores)
		sum.Mean, sum.Std = meanStd(sorted)
		sum.Min, sum.Max = floats.Min(sorted), floats.Max(sorted)
		sum.P10 = quantileEstimate(sorted, 0.10, confidence)
		sum.P50 = quantileEstimate(sorted, 0.50, confidence)
		sum.P90 = quantileEstimate(sorted, 0.90, confidence)
	}
	labels := r.cls.Labels()
	shares := make([]LabelShare, len(labels))
	for i, l := range labels {
		shares[i] = LabelShare{Label: l, Count: r.labels[i], Share: proportionCICP(r.labels[i], n, confidence)}
	}
	dist := &DistReport{
		Bucket:  r.buckets.Labels(),
		Collect: append([]int(nil), r.collect...),
		Dist:    make([]float64, len(r.collect)),
	}
	if n > 0 {
		for i, c := range r.collect {
			dist.Dist[i] = float64(c) / float64(n)
		}
	}
	return &AuditReport{Summary: sum, Labels: shares, Dist: dist, Gaps: r.gapIn}
}

func (a *AuditReport) WriteWith(w io.Writer, rep Render) error {
	return rep.Write(w, a)
}

// StdOut 以表格輸出到 w。
func (a *AuditReport) StdOut(w io.Writer, used time.Duration) {
	p := message.NewPrinter(lang)
	fmt.Fprint(w, formatDuration(used, a.Summary.Samples))
	s := a.Summary
	keys := []string{"System", "Output", "Samples", "Coverage Gaps", "Gap Rate 95% CI", "Mean", "STD", "Min", "Max", "P10", "P50", "P90"}
	msg := map[string]string{
		"System":          s.System,
		"Output":          s.Output,
		"Samples":         p.Sprintf("%d", s.Samples),
		"Coverage Gaps":   p.Sprintf("%d", s.Gaps),
		"Gap Rate 95% CI": fmtHatCIpct01(s.GapRate),
		"Mean":            p.Sprintf("%.3f", s.Mean),
		"STD":             p.Sprintf("%.3f", s.Std),
		"Min":             p.Sprintf("%.3f", s.Min),
		"Max":             p.Sprintf("%.3f", s.Max),
		"P10":             fmtHatCI(s.P10),
		"P50":             fmtHatCI(s.P50),
		"P90":             fmtHatCI(s.P90),
	}
	fmt.Fprintln(w, Table("Coverage Audit", keys, msg))

	lk := make([]string, 0, len(a.Labels))
	lm := make(map[string]string, len(a.Labels))
	for _, l := range a.Labels {
		lk = append(lk, l.Label)
		lm[l.Label] = p.Sprintf("%d  %s", l.Count, fmtHatCIpct01(l.Share))
	}
	fmt.Fprintln(w, Table("Label Share", lk, lm))

	dm := make(map[string]string, len(a.Dist.Bucket))
	for i, b := range a.Dist.Bucket {
		dm[b] = p.Sprintf("%d  (%s)", a.Dist.Collect[i], fmtPct01(a.Dist.Dist[i]))
	}
	fmt.Fprintln(w, Table("Score Distribution", a.Dist.Bucket, dm))
}

func formatDuration(d time.Duration, evals int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	eps := int(float64(evals) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\neps : %d evals/sec\n", sec, eps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\neps : %d evals/sec\n", m, s, eps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\neps : %d evals/sec\n", h, m, s, eps)
}
