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
	"bytes"
	"encoding/json"

	"github.com/zintix-labs/lifespan/errs"
	"gopkg.in/yaml.v3"
)

// GetSystemSettingByYAML 解析 YAML 並完成初始化與檢查。
// 採嚴格解碼：多寫或拼錯欄位都會報錯，避免 term 參數被默默忽略。
func GetSystemSettingByYAML(data []byte) (*SystemSetting, error) {
	ss := &SystemSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(ss); err != nil {
		return nil, configErr(err, "failed to unmarshal yaml")
	}

	// 設定檔初始化
	if err := ss.init(); err != nil {
		return nil, errs.Wrap(err, "system setting initialized err")
	}

	return ss, nil
}

func GetSystemSettingByJSON(data []byte) (*SystemSetting, error) {
	ss := &SystemSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ss); err != nil {
		return nil, configErr(err, "can not unmarshal json byte")
	}

	// 設定檔初始化
	if err := ss.init(); err != nil {
		return nil, errs.Wrap(err, "system setting initialized err")
	}

	return ss, nil
}

// configErr 把解碼錯誤（yaml/json 套件錯誤）標成設定類錯誤。
func configErr(cause error, msg string) *errs.E {
	e := errs.Wrap(cause, msg)
	e.Kind = errs.KindConfiguration
	return e
}
