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

package stats

import (
	"fmt"
	"math"

	"github.com/zintix-labs/lifespan/errs"
)

// Buckets 把 [lo, hi] 等分成 n 個區間，用來快速定位分數 -> DistReport 位置 O(1)。
// 最後一個區間為閉區間，hi 本身落在最後一格。
type Buckets struct {
	lo, hi float64
	width  float64
	labels []string
}

func NewBuckets(lo, hi float64, n int) (*Buckets, error) {
	if n < 1 || !(lo < hi) || math.IsInf(hi-lo, 0) {
		return nil, errs.Fatalf("invalid buckets: lo=%v hi=%v n=%d", lo, hi, n)
	}
	b := &Buckets{lo: lo, hi: hi, width: (hi - lo) / float64(n), labels: make([]string, n)}
	for i := 0; i < n; i++ {
		a := lo + float64(i)*b.width
		if i == n-1 {
			b.labels[i] = fmt.Sprintf("[%g,%g]", a, hi)
		} else {
			b.labels[i] = fmt.Sprintf("[%g,%g)", a, a+b.width)
		}
	}
	return b, nil
}

// ScoreBuckets 是品質分數的預設分桶：[0,100] 切 10 格。
var ScoreBuckets, _ = NewBuckets(0, 100, 10)

func (b *Buckets) Labels() []string { return append([]string(nil), b.labels...) }
func (b *Buckets) Len() int         { return len(b.labels) }

// Index 超出範圍的值會被歸到頭/尾格。
func (b *Buckets) Index(x float64) int {
	i := int(math.Floor((x - b.lo) / b.width))
	if i < 0 {
		return 0
	}
	if i >= len(b.labels) {
		return len(b.labels) - 1
	}
	return i
}
