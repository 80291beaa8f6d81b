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

package api

import (
	"github.com/zintix-labs/lifespan"
	"github.com/zintix-labs/lifespan/server/api/index"
	v1 "github.com/zintix-labs/lifespan/server/api/v1"
	"github.com/zintix-labs/lifespan/server/metrics"
	"github.com/zintix-labs/lifespan/server/netsvr"
	"github.com/zintix-labs/lifespan/server/netsvr/middleware"
	"github.com/zintix-labs/lifespan/server/svrcfg"
)

func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, rt *lifespan.Runtime, m *metrics.Metrics) error {
	registerMiddleware(svr, sCfg, m) // 1. 註冊 middleware
	registerIndex(svr)               // 2. 註冊主頁
	svr.Handle("/metrics", m.Handler())
	return registerV1API(svr, sCfg, rt, m) // 3. 註冊 v1 api
}

func registerMiddleware(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, m *metrics.Metrics) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Instrument(m))
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(middleware.RateLimit(sCfg.RatePerSec, sCfg.Burst, m))
	svr.Use(middleware.Compression)
}

func registerIndex(svr netsvr.NetSvr) {
	svr.Get("/", index.IndexHandlerFn)
}

func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, rt *lifespan.Runtime, m *metrics.Metrics) error {
	h, err := v1.NewHandler(sCfg, rt, m)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		h.Register(vOne)
	})
	return nil
}
