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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/lifespan"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/server/logger"
	"github.com/zintix-labs/lifespan/spec"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultMaxWorkers   = 8
	DefaultAuditSamples = 1_000_000
)

type SvrCfg struct {
	Log      *slog.Logger
	Lab      *lifespan.Lab
	SystemID spec.SID // /v1/assess 使用的系統
	Addr     string   // 空字串使用 netsvr 預設位址

	// Surface 是 /v1/surface 未指定軸時對 SystemID 使用的預設曲面；nil 時由引擎推得。
	Surface *lifespan.SurfacePlan

	Timeout    time.Duration // 單次請求推論的期限
	MaxWorkers int           // surface / audit 的 worker 上限
	MaxSamples int           // audit 的樣本數上限

	RatePerSec float64 // 全域限流（每秒請求數），<= 0 表示不限流
	Burst      int
}

// HeavyTimeout 是 surface / audit 這類批次路由的期限：一般期限的 4 倍。
func (sc *SvrCfg) HeavyTimeout() time.Duration {
	t := sc.Timeout
	if t <= 0 {
		t = DefaultTimeout
	}
	return 4 * t
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		// 保持安靜、合法
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	if _, ok := sc.Lab.EntryByID(sc.SystemID); !ok {
		return errs.Fatalf("system_id %d is not registered", sc.SystemID)
	}
	if sc.Timeout <= 0 {
		sc.Timeout = DefaultTimeout
	}
	// 1 <= MaxWorkers <= 64
	if sc.MaxWorkers <= 0 {
		sc.MaxWorkers = DefaultMaxWorkers
	}
	sc.MaxWorkers = min(64, sc.MaxWorkers)
	if sc.MaxSamples <= 0 {
		sc.MaxSamples = DefaultAuditSamples
	}
	if sc.RatePerSec > 0 && sc.Burst <= 0 {
		sc.Burst = max(1, int(sc.RatePerSec))
	}
	return nil
}
