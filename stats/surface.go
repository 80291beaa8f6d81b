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

package stats

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/text/message"
	"gonum.org/v1/gonum/floats"
)

// Axis 是曲面的一個軸：變數名稱 + 等距取樣值（含兩端點）。
type Axis struct {
	Name   string    `json:"name"   yaml:"name"`
	Unit   string    `json:"unit"   yaml:"unit"`
	Values []float64 `json:"values" yaml:"values"`
}

// Point 是曲面上的一點。
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

type SurfaceSummary struct {
	Min  Point   `json:"min"  yaml:"min"`
	Max  Point   `json:"max"  yaml:"max"`
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std"  yaml:"std"`
}

// SurfaceReport 是輸出變數在兩個輸入軸上的曲面，Z[i][j] 對應 (X.Values[j], Y.Values[i])。
type SurfaceReport struct {
	System  string             `json:"system"  yaml:"system"`
	Output  string             `json:"output"  yaml:"output"`
	X       Axis               `json:"x"       yaml:"x"`
	Y       Axis               `json:"y"       yaml:"y"`
	Fixed   map[string]float64 `json:"fixed"   yaml:"fixed"`
	Z       [][]float64        `json:"z"       yaml:"z"`
	Summary SurfaceSummary     `json:"summary" yaml:"summary"`
}

// NewSurfaceReport 依兩軸大小配置 Z。
func NewSurfaceReport(system, output string, x, y Axis, fixed map[string]float64) *SurfaceReport {
	nx := len(x.Values)
	z := make([][]float64, len(y.Values))
	flat := make([]float64, nx*len(y.Values))
	for i := range z {
		z[i] = flat[i*nx : (i+1)*nx : (i+1)*nx]
	}
	return &SurfaceReport{System: system, Output: output, X: x, Y: y, Fixed: fixed, Z: z}
}

// Done 計算摘要（極值位置、平均、標準差）。
func (s *SurfaceReport) Done() {
	nx := len(s.X.Values)
	if nx == 0 || len(s.Z) == 0 {
		return
	}
	flat := make([]float64, 0, nx*len(s.Z))
	for _, row := range s.Z {
		flat = append(flat, row...)
	}
	lo, hi := floats.MinIdx(flat), floats.MaxIdx(flat)
	s.Summary.Min = s.point(lo)
	s.Summary.Max = s.point(hi)
	s.Summary.Mean, s.Summary.Std = meanStd(flat)
}

func (s *SurfaceReport) point(flatIdx int) Point {
	nx := len(s.X.Values)
	i, j := flatIdx/nx, flatIdx%nx
	return Point{X: s.X.Values[j], Y: s.Y.Values[i], Z: s.Z[i][j]}
}

func (s *SurfaceReport) WriteWith(w io.Writer, rep Render) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 輸出摘要表格與一張粗略的 ASCII 熱度圖。
func (s *SurfaceReport) StdOut(w io.Writer, used time.Duration) {
	s.Done()
	p := message.NewPrinter(lang)
	fmt.Fprint(w, formatDuration(used, len(s.X.Values)*len(s.Y.Values)))
	keys := []string{"System", "Output", "X", "Y", "Grid", "Fixed", "Min", "Max", "Mean", "STD"}
	msg := map[string]string{
		"System": s.System,
		"Output": s.Output,
		"X":      axisRange(s.X),
		"Y":      axisRange(s.Y),
		"Grid":   p.Sprintf("%d x %d", len(s.X.Values), len(s.Y.Values)),
		"Fixed":  fmt.Sprint(s.Fixed),
		"Min":    p.Sprintf("%.2f at (%.2f, %.2f)", s.Summary.Min.Z, s.Summary.Min.X, s.Summary.Min.Y),
		"Max":    p.Sprintf("%.2f at (%.2f, %.2f)", s.Summary.Max.Z, s.Summary.Max.X, s.Summary.Max.Y),
		"Mean":   p.Sprintf("%.3f", s.Summary.Mean),
		"STD":    p.Sprintf("%.3f", s.Summary.Std),
	}
	fmt.Fprintln(w, Table("Surface", keys, msg))
	fmt.Fprint(w, s.heatmap(40, 20))
}

func axisRange(a Axis) string {
	if len(a.Values) == 0 {
		return a.Name
	}
	return fmt.Sprintf("%s [%g, %g] %s", a.Name, a.Values[0], a.Values[len(a.Values)-1], a.Unit)
}

// 由低到高的字元階梯。
const ramp = " .:-=+*#%@"

// heatmap 以最多 cols x rows 的字元畫出曲面，Y 由上（max）往下（min）。
func (s *SurfaceReport) heatmap(cols, rows int) string {
	ny, nx := len(s.Y.Values), len(s.X.Values)
	if nx == 0 || ny == 0 {
		return ""
	}
	cols, rows = min(cols, nx), min(rows, ny)
	span := s.Summary.Max.Z - s.Summary.Min.Z
	buf := make([]byte, 0, (cols+2)*rows)
	for r := rows - 1; r >= 0; r-- {
		i := r * (ny - 1) / max(1, rows-1)
		buf = append(buf, '|')
		for c := 0; c < cols; c++ {
			j := c * (nx - 1) / max(1, cols-1)
			k := 0
			if span > 0 {
				k = int((s.Z[i][j] - s.Summary.Min.Z) / span * float64(len(ramp)-1))
			}
			buf = append(buf, ramp[k])
		}
		buf = append(buf, '|', '\n')
	}
	return string(buf)
}
