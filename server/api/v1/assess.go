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
	"net/http"
	"strings"

	"github.com/zintix-labs/lifespan/dto"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/fuzzy"
	"github.com/zintix-labs/lifespan/spec"
)

// Assess 評估一筆食品樣本。
//
//	GET  /v1/assess?temperature=2&humidity=35&food_type=dry&time_on_shelf=4&curve=true
//	POST /v1/assess {"temperature":2,"humidity":35,"food_type":0,"time_on_shelf":4}
func (h *Handler) Assess(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeAssessRequest(r)
	if err != nil {
		h.fail(w, "assess decode", h.withRange(h.sid, err))
		return
	}
	s, err := req.Sample()
	if err != nil {
		h.fail(w, "assess decode", err)
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	as, err := h.assessor.Assess(ctx, s, req.Curve)
	if err != nil {
		h.fail(w, "assess failed", err)
		return
	}
	h.m.ObserveAssessment(as.Label.String(), as.Score)
	writeJSON(w, as)
}

// Compute 對任一系統做泛用推論：POST /v1/compute {"system_id":1,"inputs":{...}}
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeComputeRequest(r)
	if err != nil {
		sid := h.sid
		if req != nil {
			sid = h.systemID(req.SystemID)
		}
		h.fail(w, "compute decode", h.withRange(sid, err))
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	id := *req.SystemID
	res, err := h.rt.Compute(ctx, id, fuzzy.Inputs(req.Inputs))
	if err != nil {
		h.fail(w, "compute failed", err)
		return
	}
	out, err := dto.NewComputeResult(id, res, req.Curve)
	if err != nil {
		h.fail(w, "compute failed", err)
		return
	}
	writeJSON(w, out)
}

// withRange 在輸入型別錯誤上補上該變數的合法區間；已帶區間或不是前件變數時原樣回傳。
func (h *Handler) withRange(sid spec.SID, err error) error {
	e, ok := errs.AsErr(err)
	if !ok || e.Kind != errs.KindValidation || e.Field == "" || strings.Contains(e.Message, "[") {
		return err
	}
	eng, ok := h.rt.Engine(sid)
	if !ok {
		return err
	}
	name := strings.TrimPrefix(e.Field, "inputs.")
	rb := eng.RuleBase()
	v, id, ok := rb.Lookup(name)
	if !ok || !rb.IsInput(id) {
		return err
	}
	u := v.Universe()
	return errs.Validationf(name, "%s (valid range [%g,%g])", e.Message, u.Min(), u.Max())
}
