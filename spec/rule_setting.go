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
	"strconv"
	"strings"

	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/fuzzy"
)

// RuleSetting 是規則表中的一列：when 為 AND 連接的前件，then 為後件，
// 子句格式一律為 "variable.term"。
type RuleSetting struct {
	When []string `yaml:"when" json:"when"`
	Then []string `yaml:"then" json:"then"`
	ante []fuzzy.ClauseRef
	cons []fuzzy.ClauseRef
}

func (rs *RuleSetting) init(idx int) error {
	var err error
	if rs.ante, err = parseClauses(rs.When); err != nil {
		return errs.Wrap(err, "rules["+strconv.Itoa(idx)+"].when")
	}
	if rs.cons, err = parseClauses(rs.Then); err != nil {
		return errs.Wrap(err, "rules["+strconv.Itoa(idx)+"].then")
	}
	if len(rs.ante) == 0 || len(rs.cons) == 0 {
		return errs.Configf("rules[%d]: when/then must not be empty", idx)
	}
	return nil
}

func parseClauses(raw []string) ([]fuzzy.ClauseRef, error) {
	out := make([]fuzzy.ClauseRef, 0, len(raw))
	for _, s := range raw {
		c, err := ParseClause(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ParseClause 解析 "variable.term"。兩側都不能為空，且只能有一個 '.'。
func ParseClause(s string) (fuzzy.ClauseRef, error) {
	s = strings.TrimSpace(s)
	v, t, ok := strings.Cut(s, ".")
	v, t = strings.TrimSpace(v), strings.TrimSpace(t)
	if !ok || v == "" || t == "" || strings.Contains(t, ".") {
		return fuzzy.ClauseRef{}, errs.Configf("invalid clause %q (want variable.term)", s)
	}
	return fuzzy.Ref(v, t), nil
}

// Clauses 回傳解析後的前件與後件（給顯示用）。
func (rs RuleSetting) Clauses() (when, then []fuzzy.ClauseRef) {
	return append([]fuzzy.ClauseRef(nil), rs.ante...), append([]fuzzy.ClauseRef(nil), rs.cons...)
}
