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
package netsvr

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const DefaultAddr string = ":8080"

// Options 是 http.Server 的期限設定；零值欄位使用預設。
type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration // 預設 5s
	ReadTimeout       time.Duration // 預設 10s
	WriteTimeout      time.Duration // 預設 60s，須大於最慢路由（surface / audit）的期限
	IdleTimeout       time.Duration // 預設 120s
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	def := func(d *time.Duration, v time.Duration) {
		if *d <= 0 {
			*d = v
		}
	}
	def(&o.ReadHeaderTimeout, 5*time.Second)
	def(&o.ReadTimeout, 10*time.Second)
	def(&o.WriteTimeout, 60*time.Second)
	def(&o.IdleTimeout, 120*time.Second)
	return o
}

// ChiAdapter 以 chi 實作 NetSvr。Group 產生的子 adapter 只有 router，不能 Run。
type ChiAdapter struct {
	router chi.Router
	server *http.Server

	mu    sync.Mutex
	bound chan struct{} // 嘗試監聽結束（成功或失敗）後關閉
	laddr net.Addr
}

// NewChiServer 以預設期限建立 ChiAdapter；addr 為空時使用 DefaultAddr。
func NewChiServer(addr string) *ChiAdapter {
	return NewChiServerWith(Options{Addr: addr})
}

func NewChiServerDefault() *ChiAdapter {
	return NewChiServer(DefaultAddr)
}

func NewChiServerWith(o Options) *ChiAdapter {
	o = o.withDefaults()
	cr := chi.NewRouter()
	return &ChiAdapter{
		router: cr,
		server: &http.Server{
			Addr:              o.Addr,
			Handler:           cr,
			ReadHeaderTimeout: o.ReadHeaderTimeout,
			ReadTimeout:       o.ReadTimeout,
			WriteTimeout:      o.WriteTimeout,
			IdleTimeout:       o.IdleTimeout,
		},
		bound: make(chan struct{}),
	}
}

func (c *ChiAdapter) Ready() bool {
	return c != nil && c.router != nil && c.server != nil && c.bound != nil &&
		c.server.Handler == c.router && validAddr(c.server.Addr)
}

func validAddr(addr string) bool {
	_, _, err := net.SplitHostPort(addr)
	return err == nil
}

// Run 監聽並阻塞直到 server 停止；正常 Shutdown 不視為錯誤。
func (c *ChiAdapter) Run() error {
	ln, err := net.Listen("tcp", c.server.Addr)
	if err != nil {
		close(c.bound)
		return err
	}
	c.mu.Lock()
	c.laddr = ln.Addr()
	c.mu.Unlock()
	close(c.bound)

	if err := c.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Bound 在 Run 嘗試監聽之後關閉；之後 Address 回傳實際位址（":0" 會得到系統分配的埠）。
func (c *ChiAdapter) Bound() <-chan struct{} { return c.bound }

func (c *ChiAdapter) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.laddr != nil
}

// Address 回傳實際監聽位址；尚未監聽時回傳設定值。
func (c *ChiAdapter) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.laddr != nil {
		return c.laddr.String()
	}
	if c.server == nil {
		return ""
	}
	return c.server.Addr
}

func (c *ChiAdapter) Shutdown(ctx context.Context) error {
	return c.server.Shutdown(ctx)
}

func (c *ChiAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.router.ServeHTTP(w, r)
}

func (c *ChiAdapter) Use(mw func(http.Handler) http.Handler) { c.router.Use(mw) }

func (c *ChiAdapter) Get(path string, h http.HandlerFunc) { c.router.Get(path, h) }

func (c *ChiAdapter) Post(path string, h http.HandlerFunc) { c.router.Post(path, h) }

func (c *ChiAdapter) Handle(path string, h http.Handler) { c.router.Handle(path, h) }

func (c *ChiAdapter) Group(path string, fn func(subRouter NetRouter)) {
	c.router.Route(path, func(r chi.Router) {
		fn(&ChiAdapter{router: r})
	})
}
