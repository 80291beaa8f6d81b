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

package v1

import (
	"context"
	"net/http"

	"github.com/zintix-labs/lifespan"
	"github.com/zintix-labs/lifespan/dto"
	"github.com/zintix-labs/lifespan/quality"
	"github.com/zintix-labs/lifespan/stats"
)

// 未指定 n 時每軸的取樣點數（HTTP 端比 CLI 預設小）。
const defaultSurfaceN = 50

// Surface 掃描兩個輸入軸上的輸出曲面：
//
//	GET /v1/surface?x=temperature&y=humidity&n=100&fixed=food_type:0,time_on_shelf:10&format=yaml
//
// x / y 都省略時使用系統的預設曲面。
func (h *Handler) Surface(w http.ResponseWriter, r *http.Request) {
	type SurfaceResponse struct {
		Surface  *stats.SurfaceReport `json:"surface"`
		UsedTime int64                `json:"used_ms"`
	}
	req, err := dto.DecodeSurfaceRequest(r)
	if err != nil {
		h.fail(w, "surface decode", err)
		return
	}
	id := h.systemID(req.SystemID)
	sw, err := h.rt.NewSweeper(id)
	if err != nil {
		h.fail(w, "surface", err)
		return
	}
	plan, err := h.plan(req)
	if err != nil {
		h.fail(w, "surface", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.heavy)
	defer cancel()

	rep, used, err := sw.Sweep(ctx, plan, h.maxWorkers, false)
	if err != nil {
		h.fail(w, "surface failed", err)
		return
	}
	if req.Format == "" || req.Format == "json" {
		writeJSON(w, SurfaceResponse{Surface: rep, UsedTime: used.Milliseconds()})
		return
	}
	render, err := stats.RenderByName(req.Format)
	if err != nil {
		h.fail(w, "surface", err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	if err := rep.WriteWith(w, render); err != nil {
		h.log.Error("surface render", "err", err)
	}
}

func (h *Handler) plan(req *dto.SurfaceRequest) (lifespan.SurfacePlan, error) {
	id := h.systemID(req.SystemID)
	var plan lifespan.SurfacePlan
	switch {
	case req.X != "":
		plan = lifespan.SurfacePlan{X: req.X, Y: req.Y, Fixed: req.Fixed, Output: req.Output}
	case id == h.sid && h.surface != nil:
		plan = *h.surface
	default:
		e, _ := h.rt.Engine(id)
		p, err := lifespan.DefaultPlan(e, defaultSurfaceN)
		if err != nil {
			return plan, err
		}
		plan = p
	}
	if plan.Fixed == nil {
		plan.Fixed = map[string]float64{}
	}
	// 預設曲面也可以只覆寫部分固定值
	if req.X == "" {
		fixed := make(map[string]float64, len(plan.Fixed))
		for k, v := range plan.Fixed {
			fixed[k] = v
		}
		for k, v := range req.Fixed {
			fixed[k] = v
		}
		plan.Fixed = fixed
		if req.Output != "" {
			plan.Output = req.Output
		}
	}
	switch {
	case req.N > 0:
		plan.N = req.N
	case req.X != "" || plan.N == 0:
		plan.N = defaultSurfaceN
	}
	return plan, nil
}

// Audit 在論域上隨機取樣，回報分數分布與規則覆蓋缺口：
//
//	GET /v1/audit?system_id=1&samples=10000&workers=4&seed=42
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	type AuditResponse struct {
		Seed     int64              `json:"seed"`
		Report   *stats.AuditReport `json:"report"`
		UsedTime int64              `json:"used_ms"`
	}
	req, err := dto.DecodeAuditRequest(r)
	if err != nil {
		h.fail(w, "audit decode", err)
		return
	}
	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
	} else if seed, err = lifespan.RandomSeed(); err != nil {
		h.fail(w, "audit seed", err)
		return
	}
	sp, err := h.rt.NewSampler(h.systemID(req.SystemID), seed)
	if err != nil {
		h.fail(w, "audit", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.heavy)
	defer cancel()

	rep, used, err := sp.Audit(ctx, req.Output, quality.Bands{}, min(req.Samples, h.maxSamples), min(req.Workers, h.maxWorkers), false)
	if err != nil {
		h.fail(w, "audit failed", err)
		return
	}
	writeJSON(w, AuditResponse{Seed: seed, Report: rep, UsedTime: used.Milliseconds()})
}
