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

package spec

import (
	"strings"

	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/fuzzy"
)

type UniverseSetting struct {
	Min  float64 `yaml:"min"  json:"min"`
	Max  float64 `yaml:"max"  json:"max"`
	Step float64 `yaml:"step" json:"step"`
}

// TermSetting 是一個三角形 term：abc 依序為 (a, b, c)。
type TermSetting struct {
	Name string    `yaml:"name" json:"name"`
	ABC  []float64 `yaml:"abc"  json:"abc"`
}

type VariableSetting struct {
	Name     string          `yaml:"name"     json:"name"`
	Unit     string          `yaml:"unit"     json:"unit"`
	Universe UniverseSetting `yaml:"universe" json:"universe"`
	Terms    []TermSetting   `yaml:"terms"    json:"terms"`
}

func (vs *VariableSetting) init() error {
	vs.Name = strings.TrimSpace(vs.Name)
	if vs.Name == "" {
		return errs.Configf("variable name required")
	}
	if len(vs.Terms) == 0 {
		return errs.Configf("variable %s: empty terms", vs.Name)
	}
	for i := range vs.Terms {
		t := &vs.Terms[i]
		t.Name = strings.TrimSpace(t.Name)
		if len(t.ABC) != 3 {
			return errs.Configf("variable %s: term %q needs exactly 3 params (a, b, c), got %d", vs.Name, t.Name, len(t.ABC))
		}
	}
	return nil
}

func (vs VariableSetting) build() (*fuzzy.Variable, error) {
	u, err := fuzzy.NewUniverse(vs.Universe.Min, vs.Universe.Max, vs.Universe.Step)
	if err != nil {
		return nil, errs.Wrap(err, "variable "+vs.Name)
	}
	v, err := fuzzy.NewVariable(vs.Name, u)
	if err != nil {
		return nil, err
	}
	v.SetUnit(vs.Unit)
	for _, t := range vs.Terms {
		tri, err := fuzzy.NewTriangle(t.ABC[0], t.ABC[1], t.ABC[2])
		if err != nil {
			return nil, errs.Wrap(err, "variable "+vs.Name+" term "+t.Name)
		}
		if _, err := v.RegisterTerm(t.Name, tri); err != nil {
			return nil, err
		}
	}
	return v, nil
}
