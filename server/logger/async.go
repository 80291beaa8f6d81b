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

package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// AsyncHandler 把任一 slog.Handler 變成非阻塞：Handle 只把 record 放進佇列，
// 由背景 goroutine 依序寫出。佇列滿或已關閉時直接丟棄並計數，推論請求不等 I/O。
//
// slog.Logger 會忽略 Handle 回傳的 error，寫出失敗只能在 next 內處理。
type AsyncHandler struct {
	next slog.Handler
	q    *queue
}

type entry struct {
	ctx  context.Context
	rec  slog.Record
	next slog.Handler
}

// queue 由同一個 AsyncHandler 衍生出的 WithAttrs / WithGroup handler 共用。
type queue struct {
	ch      chan entry
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

// NewAsyncHandler 以 buf 大小的佇列包裝 next；buf <= 0 時用 1024。
func NewAsyncHandler(next slog.Handler, buf int) *AsyncHandler {
	if next == nil {
		next = handlerFor(ModeDev)
	}
	if buf <= 0 {
		buf = 1024
	}
	q := &queue{ch: make(chan entry, buf), stop: make(chan struct{})}
	q.wg.Go(q.loop)
	return &AsyncHandler{next: next, q: q}
}

func (h *AsyncHandler) Ready() bool { return h != nil && h.q != nil }

// Dropped 回傳因佇列滿或關閉後才送入而丟棄的筆數。
func (h *AsyncHandler) Dropped() uint64 {
	if !h.Ready() {
		return 0
	}
	return h.q.dropped.Load()
}

// Close 停止收新 record，並等佇列內已收的全部寫完。
func (h *AsyncHandler) Close() {
	_ = h.CloseContext(context.Background())
}

// CloseContext 同 Close，但最多等到 ctx 結束；逾時回傳 ctx.Err()，背景 goroutine 仍會寫完。
func (h *AsyncHandler) CloseContext(ctx context.Context) error {
	if !h.Ready() {
		return nil
	}
	h.q.once.Do(func() { close(h.q.stop) })
	done := make(chan struct{})
	go func() {
		h.q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *queue) loop() {
	for {
		select {
		case e := <-q.ch:
			e.write()
		case <-q.stop:
			q.drain()
			return
		}
	}
}

func (q *queue) drain() {
	for {
		select {
		case e := <-q.ch:
			e.write()
		default:
			return
		}
	}
}

func (e entry) write() { _ = e.next.Handle(e.ctx, e.rec) }

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Ready() {
		return nil
	}
	select {
	case <-h.q.stop:
		h.q.dropped.Add(1)
		return nil
	default:
	}
	// record 跨 goroutine，attrs 要先 Clone
	select {
	case h.q.ch <- entry{ctx: context.WithoutCancel(ctx), rec: r.Clone(), next: h.next}:
	default:
		h.q.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), q: h.q}
}

// Flush 若 log 的 handler 是 AsyncHandler，關閉並等佇列寫完；其他 handler 不做事。
func Flush(log *slog.Logger) {
	if log == nil {
		return
	}
	if ah, ok := log.Handler().(*AsyncHandler); ok {
		ah.Close()
	}
}

// FlushContext 同 Flush，但受 ctx 期限約束。
func FlushContext(ctx context.Context, log *slog.Logger) error {
	if log == nil {
		return nil
	}
	if ah, ok := log.Handler().(*AsyncHandler); ok {
		return ah.CloseContext(ctx)
	}
	return nil
}
