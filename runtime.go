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

package lifespan

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/lifespan/catalog"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/fuzzy"
	"github.com/zintix-labs/lifespan/spec"
)

// Runtime 持有所有系統已凍結的引擎。建好之後只讀，Compute 可被多個 goroutine 同時呼叫。
type Runtime struct {
	// build-time 來源（只讀引用）
	lab *Lab

	// data-plane：每個系統一個引擎
	engines map[spec.SID]*fuzzy.Engine
	byName  map[string]spec.SID
	ids     []spec.SID // 固定順序，用於列舉（來自 cat.IDs()）
	sum     []catalog.Summary

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

// Compute 以系統 id 推論一次。ctx 只在開始前檢查，推論本身不會被中斷。
func (rt *Runtime) Compute(ctx context.Context, id spec.SID, in fuzzy.Inputs) (*fuzzy.Result, error) {
	if err := rt.ready(ctx); err != nil {
		return nil, err
	}
	e, ok := rt.engines[id]
	if !ok {
		return nil, errs.Warnf("system id %d not found", id)
	}
	return e.Compute(in)
}

func (rt *Runtime) ready(ctx context.Context) error {
	select {
	case <-ctx.Done():
		e := errs.Wrap(ctx.Err(), "compute canceled/timeout")
		e.ErrLv = errs.Warn
		return e
	case <-rt.done:
		// done is the source of truth; keep a fast boolean for cheap reads.
		rt.closed.Store(true)
		return errs.NewFatal("runtime closed: " + rt.ClosedReason())
	default:
		return nil
	}
}

func (rt *Runtime) Engine(id spec.SID) (*fuzzy.Engine, bool) {
	e, ok := rt.engines[id]
	return e, ok
}

// EngineByName 名稱不分大小寫。
func (rt *Runtime) EngineByName(name string) (*fuzzy.Engine, spec.SID, bool) {
	ent, ok := rt.lab.EntryByName(name)
	if !ok {
		return nil, 0, false
	}
	e, ok := rt.engines[ent.SID]
	return e, ent.SID, ok
}

// System 回傳綁定單一系統的推論入口。
func (rt *Runtime) System(id spec.SID) (*System, error) {
	e, ok := rt.engines[id]
	if !ok {
		return nil, errs.Warnf("system id %d not found", id)
	}
	return &System{rt: rt, id: id, engine: e}, nil
}

// Name 回傳系統名稱。
func (rt *Runtime) Name(id spec.SID) (string, bool) {
	ent, ok := rt.lab.EntryByID(id)
	return ent.Name, ok
}

// NewSweeper 建立共用 runtime 引擎的曲面掃描器。
func (rt *Runtime) NewSweeper(id spec.SID) (*Sweeper, error) {
	e, ok := rt.engines[id]
	if !ok {
		return nil, errs.Warnf("system id %d not found", id)
	}
	name, _ := rt.Name(id)
	return NewSweeper(name, e)
}

// NewSampler 建立共用 runtime 引擎的稽核器。
func (rt *Runtime) NewSampler(id spec.SID, seed int64) (*Sampler, error) {
	e, ok := rt.engines[id]
	if !ok {
		return nil, errs.Warnf("system id %d not found", id)
	}
	name, _ := rt.Name(id)
	return NewSampler(name, e, seed)
}

func (rt *Runtime) IDs() []spec.SID {
	return append([]spec.SID(nil), rt.ids...)
}

func (rt *Runtime) Summary() []catalog.Summary {
	return rt.sum
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *Runtime) Close() {
	rt.CloseWithReason("closed")
}

// CloseWithReason closes the runtime and records the reason (written once).
func (rt *Runtime) CloseWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
	})
}

// Closed reports whether the runtime has been closed.
func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Done 在 runtime 關閉時被 close。
func (rt *Runtime) Done() <-chan struct{} {
	return rt.done
}

// System 是綁定到 Runtime 內單一系統的推論入口。
type System struct {
	rt     *Runtime
	id     spec.SID
	engine *fuzzy.Engine
}

func (s *System) ID() spec.SID          { return s.id }
func (s *System) Engine() *fuzzy.Engine { return s.engine }

func (s *System) Compute(ctx context.Context, in fuzzy.Inputs) (*fuzzy.Result, error) {
	if err := s.rt.ready(ctx); err != nil {
		return nil, err
	}
	return s.engine.Compute(in)
}
