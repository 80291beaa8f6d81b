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

package quality

// Label 是分數的顯示等級，依高到低排列。
type Label int

const (
	Excellent Label = iota
	Good
	Fair
	Poor
)

var labelNames = [...]string{"Excellent", "Good", "Fair", "Poor"}

func (l Label) String() string {
	if l < Excellent || l > Poor {
		return "Unknown"
	}
	return labelNames[l]
}

func (l Label) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Classify: >90 Excellent, >70 Good, >30 Fair, 其餘 Poor。
func Classify(score float64) Label {
	switch {
	case score > 90:
		return Excellent
	case score > 70:
		return Good
	case score > 30:
		return Fair
	default:
		return Poor
	}
}

// Verdict 是主控台給使用者的結論。
type Verdict int

const (
	VerdictFresh Verdict = iota
	VerdictAcceptable
	VerdictSpoiled
)

var verdictNames = [...]string{"Fresh", "Acceptable", "Spoiled"}

func (v Verdict) String() string {
	if v < VerdictFresh || v > VerdictSpoiled {
		return "Unknown"
	}
	return verdictNames[v]
}

func (v Verdict) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// VerdictOf: >70 Fresh, >30 Acceptable, 其餘 Spoiled。
func VerdictOf(score float64) Verdict {
	switch {
	case score > 70:
		return VerdictFresh
	case score > 30:
		return VerdictAcceptable
	default:
		return VerdictSpoiled
	}
}

// Bands 以 Label 分級，供統計報表使用（實作 stats.Classifier）。
type Bands struct{}

func (Bands) Labels() []string           { return append([]string(nil), labelNames[:]...) }
func (Bands) Classify(score float64) int { return int(Classify(score)) }
