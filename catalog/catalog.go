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

// Package catalog 是推論系統的目錄：哪些系統存在、各自的 id / 名稱 / 設定檔名。
// 設定檔來源一律是扁平的 fs.FS（go:embed 或 os.DirFS），catalog 不處理路徑。
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/spec"
)

var (
	ErrDupID   = errs.NewFatal("duplicate system id")
	ErrDupName = errs.NewFatal("duplicate system name")
)

type Entry struct {
	SID        spec.SID
	Name       string
	ConfigName string
}

// Summary 是對外列舉用的系統摘要。
type Summary struct {
	SID     spec.SID `json:"system_id"    yaml:"system_id"`
	Name    string   `json:"system_name"  yaml:"system_name"`
	Defuzz  string   `json:"defuzz"       yaml:"defuzz"`
	Inputs  []string `json:"inputs"       yaml:"inputs"`
	Outputs []string `json:"outputs"      yaml:"outputs"`
	Rules   int      `json:"rules"        yaml:"rules"`
}

// Summarize 由設定檔產生摘要。
func Summarize(ss *spec.SystemSetting) Summary {
	s := Summary{
		SID:     ss.SystemID,
		Name:    ss.SystemName,
		Defuzz:  ss.Defuzz,
		Inputs:  make([]string, 0, len(ss.Inputs)),
		Outputs: make([]string, 0, len(ss.Outputs)),
		Rules:   len(ss.Rules),
	}
	for _, v := range ss.Inputs {
		s.Inputs = append(s.Inputs, v.Name)
	}
	for _, v := range ss.Outputs {
		s.Outputs = append(s.Outputs, v.Name)
	}
	return s
}

type Catalog struct {
	byID   map[spec.SID]Entry
	byName map[string]Entry
	ids    []spec.SID          // 穩定排序
	unique map[string]struct{} // 一個系統一個設定檔，檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	mfs, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:   map[spec.SID]Entry{},
		byName: map[string]Entry{},
		ids:    make([]spec.SID, 0, 8),
		unique: map[string]struct{}{},
		config: mfs,
	}, nil
}

// Register 一次註冊多筆；任何一筆不合法則全部不寫入。
func (c *Catalog) Register(entries ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenID := map[spec.SID]struct{}{}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range entries {
		e := &entries[i]
		e.Name = normName(e.Name)
		if e.Name == "" {
			return errs.NewFatal("system name required")
		}
		if err := validFileName(e.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[e.ConfigName]; !ok {
			return errs.Fatalf("config file not found: %s", e.ConfigName)
		}
		if _, ok := c.byID[e.SID]; ok {
			return ErrDupID
		}
		if _, ok := seenID[e.SID]; ok {
			return ErrDupID
		}
		if _, ok := c.byName[e.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenName[e.Name]; ok {
			return ErrDupName
		}
		if _, ok := c.unique[e.ConfigName]; ok {
			return errs.Fatalf("duplicate config name: %s", e.ConfigName)
		}
		if _, ok := seenCfg[e.ConfigName]; ok {
			return errs.Fatalf("duplicate config name: %s", e.ConfigName)
		}
		seenID[e.SID] = struct{}{}
		seenName[e.Name] = struct{}{}
		seenCfg[e.ConfigName] = struct{}{}
	}
	for _, e := range entries {
		c.unique[e.ConfigName] = struct{}{}
		c.byID[e.SID] = e
		c.byName[e.Name] = e
		c.ids = append(c.ids, e.SID)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return nil
}

func (c *Catalog) GetByID(id spec.SID) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	e, ok := c.byName[normName(name)]
	return e, ok
}

func (c *Catalog) IDs() []spec.SID {
	if len(c.ids) == 0 {
		return nil
	}
	return append([]spec.SID(nil), c.ids...)
}

func (c *Catalog) All() []Entry {
	all := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		all = append(all, c.byID[id])
	}
	return all
}

func (c *Catalog) Cfg() *multiFS { return c.config }

func (c *Catalog) Freeze()        { c.frozen = true }
func (c *Catalog) IsFrozen() bool { return c.frozen }

// SystemSettingByID 讀取並解析對應的設定檔（含初始化與基本檢查）。
func (c *Catalog) SystemSettingByID(id spec.SID) (*spec.SystemSetting, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.Warnf("system id %d does not exist in catalog", id)
	}
	return c.load(e)
}

func (c *Catalog) SystemSettingByName(name string) (*spec.SystemSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.Warnf("system %q does not exist in catalog", name)
	}
	return c.load(e)
}

func (c *Catalog) load(e Entry) (*spec.SystemSetting, error) {
	src, ok := c.config.GetFS(e.ConfigName)
	if !ok {
		return nil, errs.Warnf("config %s does not exist in catalog", e.ConfigName)
	}
	raw, err := fs.ReadFile(src, e.ConfigName)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return ParseSystemSetting(e.ConfigName, raw)
}

// ParseSystemSetting 依副檔名選擇 YAML 或 JSON 解碼。
func ParseSystemSetting(filename string, raw []byte) (*spec.SystemSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetSystemSettingByYAML(raw)
	case ".json":
		return spec.GetSystemSettingByJSON(raw)
	default:
		return nil, errs.Fatalf("unsupported config format: %q", filename)
	}
}

func normName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func isConfigFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".json")
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	if strings.ContainsAny(file, `/\:`) {
		return errs.Fatalf("invalid config filename: %q (must be a basename)", file)
	}
	if !isConfigFile(file) {
		return errs.Fatalf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file)
	}
	if strings.HasPrefix(file, ".") {
		return errs.Fatalf("invalid config filename: %q (cannot start with '.')", file)
	}
	return nil
}

// multiFS 把多個扁平 fs.FS 合併成單一索引：檔名 -> 來源。跨來源重名直接失敗。
type multiFS struct {
	src   []fs.FS
	index map[string]int
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	m := &multiFS{src: src, index: make(map[string]int, 16)}
	for i, s := range src {
		if s == nil {
			return nil, errs.Fatalf("fs[%d] is nil", i)
		}
		err := fs.WalkDir(s, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.Fatalf("config FS must be flat (no subdirectories): %q", path)
			}
			if strings.HasPrefix(path, ".") || !isConfigFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], true
	}
	return nil, false
}

// Sources exposes config FS sources for read-only iteration.
func (m *multiFS) Sources() []fs.FS {
	if m == nil || len(m.src) == 0 {
		return nil
	}
	return append([]fs.FS(nil), m.src...)
}

// Names 回傳所有已索引的設定檔名（已排序）。
func (m *multiFS) Names() []string {
	names := make([]string, 0, len(m.index))
	for n := range m.index {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
