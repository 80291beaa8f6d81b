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

package app

import (
	"context"
	"sync"
)

// Component 是可被 App 管理的長駐元件。Run 阻塞直到結束；Shutdown 須可重入。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Closer 把「只需要在關閉時做事」的資源包成 Component，例如關閉推論 Runtime。
// Run 會一直阻塞到 Shutdown 被呼叫。
type Closer struct {
	fn   func(ctx context.Context) error
	done chan struct{}
	once sync.Once
	err  error
}

func NewCloser(fn func(ctx context.Context) error) *Closer {
	return &Closer{fn: fn, done: make(chan struct{})}
}

func (c *Closer) Run() error {
	<-c.done
	return nil
}

func (c *Closer) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		if c.fn != nil {
			c.err = c.fn(ctx)
		}
		close(c.done)
	})
	return c.err
}
