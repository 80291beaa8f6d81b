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
	"strconv"

	"github.com/zintix-labs/lifespan/dto"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/spec"
)

// Systems 列出所有已註冊系統的摘要：GET /v1/systems
func (h *Handler) Systems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.rt.Summary())
}

// Variables 回傳系統的變數、term 與規則：GET /v1/variables?system_id=1&curve=true
func (h *Handler) Variables(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := h.sid
	if s := q.Get("system_id"); s != "" {
		u, err := strconv.ParseUint(s, 10, 0)
		if err != nil {
			h.fail(w, "variables decode", errs.Validationf("system_id", "system_id must be non-negative integer, got %q", s))
			return
		}
		id = spec.SID(u)
	}
	withCurve := true
	if s := q.Get("curve"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			h.fail(w, "variables decode", errs.Validationf("curve", "invalid curve value %q", s))
			return
		}
		withCurve = b
	}
	e, ok := h.rt.Engine(id)
	if !ok {
		h.fail(w, "variables", errs.Warnf("system id %d not found", id))
		return
	}
	out, err := dto.NewVariables(id, e, withCurve)
	if err != nil {
		h.fail(w, "variables", err)
		return
	}
	writeJSON(w, out)
}
