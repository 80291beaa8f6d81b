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
// Package app 提供應用程式生命週期管理（App），負責統一啟動與關閉多個 Component。
package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const DefaultShutdownTimeout = 5 * time.Second

// App 啟動所有註冊的 Component，在收到 OS 信號、ctx 結束或任一 Component 結束時，
// 依註冊順序呼叫 Shutdown，並在期限內等所有 Run 返回。
type App struct {
	comps   []Component
	timeout time.Duration
	log     *slog.Logger
}

type Option func(*App)

// WithShutdownTimeout 設定關閉期限；<= 0 忽略。
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(a *App) {
		if log != nil {
			a.log = log
		}
	}
}

func New(opts ...Option) *App {
	a := &App{timeout: DefaultShutdownTimeout, log: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(a)
	}
	return a
}

// NewWith 以預設選項建立 App 並註冊 comps。
func NewWith(comps ...Component) *App {
	a := New()
	for _, c := range comps {
		a.Register(c)
	}
	return a
}

func (a *App) Register(c Component) {
	if c != nil {
		a.comps = append(a.comps, c)
	}
}

// Run 等待 SIGINT / SIGTERM。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 與 Run 相同，但由呼叫端的 ctx 決定何時關閉。
// 回傳值合併了觸發關閉的 Component 錯誤與各 Shutdown 的錯誤。
func (a *App) RunContext(ctx context.Context) error {
	results := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func() { results <- c.Run() }()
	}

	var runErr error
	pending := len(a.comps)
	select {
	case <-ctx.Done():
		a.log.Info("[app] shutting down", slog.String("reason", context.Cause(ctx).Error()))
	case runErr = <-results:
		pending--
		if runErr != nil {
			a.log.Error("[app] component failed", slog.Any("err", runErr))
		} else {
			a.log.Info("[app] component stopped")
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	shutErr := a.shutdown(sctx)
	return errors.Join(runErr, shutErr, a.wait(sctx, results, pending))
}

// shutdown 依序呼叫所有 Component.Shutdown，收集全部錯誤。
func (a *App) shutdown(ctx context.Context) error {
	var all []error
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			all = append(all, err)
		}
	}
	return errors.Join(all...)
}

// wait 收集其餘 Run 的結果；關閉後才回傳的錯誤只記錄不回傳。
func (a *App) wait(ctx context.Context, results <-chan error, pending int) error {
	for ; pending > 0; pending-- {
		select {
		case err := <-results:
			if err != nil {
				a.log.Warn("[app] component returned after shutdown", slog.Any("err", err))
			}
		case <-ctx.Done():
			return errors.New("shutdown timed out waiting for components")
		}
	}
	return nil
}
