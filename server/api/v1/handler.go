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
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/lifespan"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/quality"
	"github.com/zintix-labs/lifespan/server/httperr"
	"github.com/zintix-labs/lifespan/server/logger"
	"github.com/zintix-labs/lifespan/server/metrics"
	"github.com/zintix-labs/lifespan/server/svrcfg"
	"github.com/zintix-labs/lifespan/spec"
)

// Handler 持有 v1 API 需要的全部依賴；Runtime 只讀，可被所有請求共用。
type Handler struct {
	log      *slog.Logger
	rt       *lifespan.Runtime
	m        *metrics.Metrics
	sid      spec.SID
	assessor *quality.Assessor

	surface    *lifespan.SurfacePlan
	timeout    time.Duration
	heavy      time.Duration
	maxWorkers int
	maxSamples int
}

func NewHandler(sCfg *svrcfg.SvrCfg, rt *lifespan.Runtime, m *metrics.Metrics) (*Handler, error) {
	if rt == nil {
		return nil, errs.NewFatal("runtime is required")
	}
	sys, err := rt.System(sCfg.SystemID)
	if err != nil {
		return nil, errs.Wrap(err, "bind assess system failed")
	}
	as, err := quality.NewAssessor(sys, quality.OutQuality)
	if err != nil {
		return nil, err
	}
	name, _ := rt.Name(sCfg.SystemID)
	return &Handler{
		log:        logger.ForSystem(sCfg.Log, sCfg.SystemID, name),
		rt:         rt,
		m:          m,
		sid:        sCfg.SystemID,
		assessor:   as,
		surface:    sCfg.Surface,
		timeout:    sCfg.Timeout,
		heavy:      sCfg.HeavyTimeout(),
		maxWorkers: sCfg.MaxWorkers,
		maxSamples: sCfg.MaxSamples,
	}, nil
}

// Register 掛上 v1 路由。
func (h *Handler) Register(r interface {
	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
}) {
	r.Get("/assess", h.Assess)
	r.Post("/assess", h.Assess)
	r.Post("/compute", h.Compute)
	r.Get("/systems", h.Systems)
	r.Get("/variables", h.Variables)
	r.Get("/surface", h.Surface)
	r.Get("/audit", h.Audit)
}

func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *Handler) systemID(p *spec.SID) spec.SID {
	if p == nil {
		return h.sid
	}
	return *p
}

// fail 寫回錯誤、記錄指標；5xx 與逾時會寫 log。
func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.m.ObserveError(err)
	httperr.Log(h.log, msg, err)
	httperr.Errs(w, err)
}

// writeJSON 先編碼到記憶體再寫出，避免寫到一半才 error。
func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "encode response failed"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(data, '\n'))
}
