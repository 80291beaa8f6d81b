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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zintix-labs/lifespan"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/server/api"
	"github.com/zintix-labs/lifespan/server/app"
	"github.com/zintix-labs/lifespan/server/logger"
	"github.com/zintix-labs/lifespan/server/metrics"
	"github.com/zintix-labs/lifespan/server/netsvr"
	"github.com/zintix-labs/lifespan/server/svrcfg"
)

// Run 以預設的 chi server 啟動服務，阻塞到收到終止信號。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Vaild(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(sCfg, netsvr.NewChiServerWith(netsvr.Options{
		Addr:         sCfg.Addr,
		WriteTimeout: sCfg.HeavyTimeout() + 10*time.Second,
	}))
}

func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		return logged(sCfg.Log, errs.NewFatal("svr is required"))
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return logged(sCfg.Log, errs.NewFatal("default server is not ready"))
	}

	rt, err := Build(sCfg, svr)
	if err != nil {
		return logged(sCfg.Log, err)
	}

	// 關閉順序：先停 server，再關 runtime，最後把 async log 寫完
	a := app.New(app.WithLogger(sCfg.Log), app.WithShutdownTimeout(sCfg.HeavyTimeout()))
	a.Register(svr)
	a.Register(app.NewCloser(func(ctx context.Context) error {
		rt.CloseWithReason("shutdown")
		sCfg.Log.Info("[lifespan] runtime closed")
		return logger.FlushContext(ctx, sCfg.Log)
	}))
	if s, ok := svr.(*netsvr.ChiAdapter); ok {
		go func() {
			<-s.Bound()
			if !s.Listening() {
				return
			}
			sCfg.Log.Info("[lifespan] listening", slog.String("addr", s.Address()), slog.Any("systems", rt.IDs()))
		}()
	}
	if err := a.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "app stopped:", err)
		return err
	}
	return nil
}

// Build 建好 runtime 與指標並註冊全部路由，但不啟動監聽（測試直接用 httptest 驅動 svr）。
func Build(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) (*lifespan.Runtime, error) {
	if err := sCfg.Vaild(); err != nil {
		return nil, err
	}
	rt, err := sCfg.Lab.BuildRuntime()
	if err != nil {
		return nil, errs.Wrap(err, "build runtime failed")
	}
	if err := api.RegisterRoutes(svr, sCfg, rt, metrics.New()); err != nil {
		rt.CloseWithReason("register routes failed")
		return nil, errs.Wrap(err, "register routes failed")
	}
	return rt, nil
}

func logged(log *slog.Logger, err error) error {
	log.Error("[lifespan] server not started", slog.Any("err", err))
	return err
}
