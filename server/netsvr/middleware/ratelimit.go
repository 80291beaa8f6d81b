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

package middleware

import (
	"net/http"
	"strconv"

	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/server/httperr"
	"github.com/zintix-labs/lifespan/server/metrics"
	"golang.org/x/time/rate"
)

// RateLimit 以單一 token bucket 做全域限流，超過時回 429。perSec <= 0 時不限流。
func RateLimit(perSec float64, burst int, m *metrics.Metrics) func(http.Handler) http.Handler {
	if perSec <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	lim := rate.NewLimiter(rate.Limit(perSec), max(1, burst))
	retry := strconv.Itoa(max(1, int(1/perSec)))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				m.ObserveRateLimited()
				w.Header().Set("Retry-After", retry)
				httperr.Write(w, http.StatusTooManyRequests, errs.NewWarn("rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
