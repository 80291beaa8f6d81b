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

// Package spec 定義模糊推論系統的設定檔格式（YAML / JSON），
// 並負責把設定檔轉成已凍結、可直接推論的 fuzzy.Engine。
package spec

import (
	"strings"

	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/fuzzy"
)

// SID 是系統在 catalog 內的唯一編號。
type SID uint

// SystemSetting 是一個完整推論系統的設定：前件/後件變數與規則表。
type SystemSetting struct {
	SystemName string            `yaml:"system_name" json:"system_name"`
	SystemID   SID               `yaml:"system_id"   json:"system_id"`
	Defuzz     string            `yaml:"defuzz"      json:"defuzz"`
	Inputs     []VariableSetting `yaml:"inputs"      json:"inputs"`
	Outputs    []VariableSetting `yaml:"outputs"     json:"outputs"`
	Rules      []RuleSetting     `yaml:"rules"       json:"rules"`
}

func (ss *SystemSetting) init() error {
	ss.SystemName = strings.ToLower(strings.TrimSpace(ss.SystemName))
	ss.Defuzz = strings.ToLower(strings.TrimSpace(ss.Defuzz))
	if ss.Defuzz == "" {
		ss.Defuzz = fuzzy.DefuzzCentroid
	}
	for i := range ss.Inputs {
		if err := ss.Inputs[i].init(); err != nil {
			return err
		}
	}
	for i := range ss.Outputs {
		if err := ss.Outputs[i].init(); err != nil {
			return err
		}
	}
	for i := range ss.Rules {
		if err := ss.Rules[i].init(i); err != nil {
			return err
		}
	}
	return ss.valid()
}

// valid 只做結構性檢查；term 與規則引用的正確性在 Build 時由 fuzzy 檢查。
func (ss *SystemSetting) valid() error {
	if ss.SystemName == "" {
		return errs.Configf("system_name required")
	}
	if len(ss.Inputs) == 0 {
		return errs.Configf("system_name: %s err: empty inputs", ss.SystemName)
	}
	if len(ss.Outputs) == 0 {
		return errs.Configf("system_name: %s err: empty outputs", ss.SystemName)
	}
	if len(ss.Rules) == 0 {
		return errs.Configf("system_name: %s err: empty rules", ss.SystemName)
	}
	if _, err := fuzzy.DefuzzifierByName(ss.Defuzz); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(ss.Inputs)+len(ss.Outputs))
	for _, vs := range append(append([]VariableSetting{}, ss.Inputs...), ss.Outputs...) {
		if _, dup := seen[vs.Name]; dup {
			return errs.Configf("system_name: %s err: duplicate variable %q", ss.SystemName, vs.Name)
		}
		seen[vs.Name] = struct{}{}
	}
	return nil
}

// Build 依設定建立變數、註冊 term、加入所有規則後凍結，回傳可共享的 Engine。
// 任何不合法的設定都在這裡以 errs.KindConfiguration 失敗。
func (ss *SystemSetting) Build() (*fuzzy.Engine, error) {
	inputs, err := buildVariables(ss.Inputs)
	if err != nil {
		return nil, errs.Wrap(err, "build inputs of "+ss.SystemName)
	}
	outputs, err := buildVariables(ss.Outputs)
	if err != nil {
		return nil, errs.Wrap(err, "build outputs of "+ss.SystemName)
	}
	rb, err := fuzzy.NewRuleBase(inputs, outputs)
	if err != nil {
		return nil, errs.Wrap(err, "build rule base of "+ss.SystemName)
	}
	for _, r := range ss.Rules {
		if err := rb.AddRule(r.ante, r.cons); err != nil {
			return nil, errs.Wrap(err, "build rule base of "+ss.SystemName)
		}
	}
	rb.Freeze()

	d, err := fuzzy.DefuzzifierByName(ss.Defuzz)
	if err != nil {
		return nil, err
	}
	eng, err := fuzzy.NewEngine(rb, fuzzy.WithDefuzzifier(d))
	if err != nil {
		return nil, errs.Wrap(err, "build engine of "+ss.SystemName)
	}
	return eng, nil
}

func buildVariables(vss []VariableSetting) ([]*fuzzy.Variable, error) {
	vars := make([]*fuzzy.Variable, 0, len(vss))
	for _, vs := range vss {
		v, err := vs.build()
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}
