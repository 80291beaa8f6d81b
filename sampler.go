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
	"crypto/rand"
	"errors"
	"io"
	"math"
	"math/big"
	mrand "math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/fuzzy"
	"github.com/zintix-labs/lifespan/stats"
	"golang.org/x/sync/errgroup"
)

// Sampler 在所有前件變數的論域取樣點上隨機取樣，稽核規則覆蓋與分數分布。
// 每個 worker 的亂數來源由 seedMaker 依序派發，同 seed + 同 workers 結果可重現。
type Sampler struct {
	Name      string
	e         *fuzzy.Engine
	initSeed  int64
	seedmaker *seedMaker
}

func NewSampler(name string, e *fuzzy.Engine, seed int64) (*Sampler, error) {
	if e == nil {
		return nil, errs.NewFatal("sampler requires an engine")
	}
	return &Sampler{Name: name, e: e, initSeed: seed, seedmaker: newSeedMaker(seed)}, nil
}

func (s *Sampler) Seed() int64 { return s.initSeed }

// Audit 平行取樣 samples 次（分給 workers 個 worker），回傳 output 的稽核報表與用時。
// 解模糊失敗（總激活為 0）的輸入記為覆蓋缺口，不中止稽核；其他錯誤直接回傳。
func (s *Sampler) Audit(ctx context.Context, output string, cls stats.Classifier, samples int, workers int, showpb bool) (*stats.AuditReport, time.Duration, error) {
	if samples < 1 {
		return nil, 0, errs.NewWarn("samples must > 0")
	}
	if workers < 1 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	rb := s.e.RuleBase()
	if output == "" {
		output = rb.Outputs()[0].Name()
	}
	if _, id, ok := rb.Lookup(output); !ok || rb.IsInput(id) {
		return nil, 0, errs.Validationf("output", "output=%q is not an output variable", output)
	}
	workers = min(workers, samples)

	recs := make([]*stats.ScoreRecorder, workers)
	seeds := make([]uint64, workers)
	for w := range workers {
		r, err := stats.NewScoreRecorder(s.Name, output, cls, stats.ScoreBuckets)
		if err != nil {
			return nil, 0, err
		}
		recs[w] = r
		seeds[w] = uint64(s.seedmaker.next())
	}

	bar := pb.StartNew(samples)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	g, gctx := errgroup.WithContext(ctx)
	per, rest := samples/workers, samples%workers
	for w := range workers {
		n := per
		if w < rest {
			n++
		}
		g.Go(func() error {
			return s.work(gctx, recs[w], seeds[w], n, output, bar)
		})
	}
	err := g.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	if err != nil {
		return nil, used, err
	}

	merged, err := stats.MergeScoreRecorder(recs)
	if err != nil {
		return nil, used, err
	}
	return merged.Done(), used, nil
}

func (s *Sampler) work(ctx context.Context, rec *stats.ScoreRecorder, seed uint64, n int, output string, bar *pb.ProgressBar) error {
	rng := mrand.New(mrand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	vars := s.e.Inputs()
	in := make(fuzzy.Inputs, len(vars))
	for i := 0; i < n; i++ {
		if i&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for _, v := range vars {
			u := v.Universe()
			in[v.Name()] = u.At(rng.IntN(u.Len()))
		}
		res, err := s.e.Compute(in)
		switch {
		case errors.Is(err, errs.ErrDefuzzification):
			rec.RecordGap(in)
		case err != nil:
			return errs.Wrap(err, "audit sample failed")
		default:
			score, _ := res.Score(output)
			rec.Record(score)
		}
		bar.Increment()
	}
	return nil
}

// RandomSeed 由 crypto/rand 產生非負 seed。
func RandomSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "generate seed failed")
	}
	return seed.Int64(), nil
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散。
// 可能被多個 goroutine 同時呼叫，推進以 CAS 迴圈保證每次取得唯一的下一個 state。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63：只用可逆的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
