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

// Package lifespan 提供模糊推論系統的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把系統目錄（Catalog）與設定檔來源（fs.FS）組裝在一起，並提供建立推論引擎、
// Runtime、曲面掃描器（Sweeper）與隨機稽核器（Sampler）的入口。
//
// 使用流程分成兩階段：
//   - 註冊/組裝階段：建立 catalog、解析所有設定檔、建一次引擎確認設定可用（fail-fast）。
//   - 執行階段：Freeze 之後由 BuildRuntime 一次建好所有引擎，之後只讀、可併發 Compute。
//
// Lab 本身不綁定任何檔案路徑：設定檔來源一律以 fs.FS 注入（go:embed 或 os.DirFS）。
package lifespan

import (
	"io/fs"
	"strings"

	"github.com/zintix-labs/lifespan/catalog"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/fuzzy"
	"github.com/zintix-labs/lifespan/spec"
)

// Configs 把一或多個設定檔來源打包成 New() 需要的參數。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 是組裝器：持有 Catalog，並負責把設定檔變成凍結的推論引擎。
//
// Catalog 的 ID 唯一性只保證在同一個 Lab instance 內。
// Freeze 之後不再接受註冊。
type Lab struct {
	cat *catalog.Catalog
	sum []catalog.Summary
}

// New 建立一個 Lab（尚未註冊任何系統）。
func New(cfgs []fs.FS) (*Lab, error) {
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Lab{cat: cata}, nil
}

// NewAuto 建立 Lab、註冊所有設定檔並凍結，直接進入執行階段。
func NewAuto(cfgs []fs.FS) (*Lab, error) {
	lab, err := New(cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll
//
// 依檔名排序掃描所有設定檔（.yaml/.yml/.json），解析成 *spec.SystemSetting，
// 並用檔內宣告的 system_id / system_name 批次註冊。
//
// 行為特性：
//  1. Fail-fast：任何一個檔案讀取、解析或建構失敗都立刻回傳 error。
//  2. 原子性：全部檔案都通過才呼叫一次 Register，不會留下半完成的 catalog。
//  3. 每份設定都實際 Build 一次引擎，設定錯誤在註冊期就會浮現，不會拖到 runtime。
func (l *Lab) RegisterAll() error {
	cfgs := l.cat.Cfg()
	names := cfgs.Names()
	if len(names) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	entries := make([]catalog.Entry, 0, len(names))
	seenID := map[spec.SID]string{}
	seenName := map[string]string{}

	for _, base := range names {
		src, _ := cfgs.GetFS(base)
		raw, err := fs.ReadFile(src, base)
		if err != nil {
			return errs.WrapWithExtra(err, "read config failed", "file="+base)
		}
		ss, err := catalog.ParseSystemSetting(base, raw)
		if err != nil {
			return errs.WrapWithExtra(err, "parse system setting failed", "file="+base)
		}
		if _, err := ss.Build(); err != nil {
			return errs.WrapWithExtra(err, "build system failed", "file="+base)
		}

		id := ss.SystemID
		if prev, ok := seenID[id]; ok {
			return errs.Fatalf("duplicate system id: %d (config=%s and %s)", id, prev, base)
		}
		if _, ok := l.cat.GetByID(id); ok {
			return errs.Fatalf("system id already registered: %d (config=%s)", id, base)
		}
		seenID[id] = base

		nameKey := strings.ToLower(ss.SystemName)
		if prev, ok := seenName[nameKey]; ok {
			return errs.Fatalf("duplicate system name: %s (config=%s and %s)", nameKey, prev, base)
		}
		if _, ok := l.cat.GetByName(nameKey); ok {
			return errs.Fatalf("system name already registered: %s (config=%s)", nameKey, base)
		}
		seenName[nameKey] = base

		entries = append(entries, catalog.Entry{SID: id, Name: nameKey, ConfigName: base})
	}
	return l.cat.Register(entries...)
}

func (l *Lab) Freeze() {
	l.cat.Freeze()
}

func (l *Lab) EntryByID(id spec.SID) (catalog.Entry, bool) {
	return l.cat.GetByID(id)
}

func (l *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return l.cat.GetByName(name)
}

func (l *Lab) IDs() []spec.SID {
	return l.cat.IDs()
}

func (l *Lab) All() []catalog.Entry {
	return l.cat.All()
}

// Summary 回傳所有系統的摘要（依 id 排序）；需先 Freeze。
func (l *Lab) Summary() ([]catalog.Summary, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if l.sum != nil {
		return l.sum, nil
	}
	ids := l.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		ss, err := l.cat.SystemSettingByID(id)
		if err != nil {
			return nil, errs.Wrap(err, "parse system setting failed")
		}
		cs = append(cs, catalog.Summarize(ss))
	}
	l.sum = cs
	return l.sum, nil
}

// SystemSetting 回傳設定檔解析結果（每次重新讀取，呼叫端可自由修改）。
func (l *Lab) SystemSetting(id spec.SID) (*spec.SystemSetting, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return l.cat.SystemSettingByID(id)
}

// NewEngine 依 Catalog 內的系統 ID 建立一個凍結的推論引擎。
func (l *Lab) NewEngine(id spec.SID) (*fuzzy.Engine, error) {
	ss, err := l.SystemSetting(id)
	if err != nil {
		return nil, err
	}
	return ss.Build()
}

// NewEngineByYAML 以外部給的設定建引擎（例如調參實驗）。
// 設定內的 system_id 與 system_name 必須對應到 catalog 內同一個系統。
func (l *Lab) NewEngineByYAML(raw []byte) (*fuzzy.Engine, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ss, err := spec.GetSystemSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := l.validCfg(ss); err != nil {
		return nil, err
	}
	return ss.Build()
}

func (l *Lab) NewEngineByJSON(raw []byte) (*fuzzy.Engine, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ss, err := spec.GetSystemSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := l.validCfg(ss); err != nil {
		return nil, err
	}
	return ss.Build()
}

func (l *Lab) validCfg(ss *spec.SystemSetting) error {
	ent, ok := l.cat.GetByID(ss.SystemID)
	if !ok {
		return errs.Warnf("system id %d not exist", ss.SystemID)
	}
	ent2, ok := l.cat.GetByName(ss.SystemName)
	if !ok {
		return errs.Warnf("system name %q not exist", ss.SystemName)
	}
	if ent.SID != ent2.SID {
		return errs.NewWarn("system id is not matched system name")
	}
	return nil
}

// BuildRuntime 凍結 catalog，並一次建好所有系統的引擎（fail-fast）。
func (l *Lab) BuildRuntime() (*Runtime, error) {
	l.Freeze()

	ids := l.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no systems registered")
	}
	sum, err := l.Summary()
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		lab:     l,
		engines: make(map[spec.SID]*fuzzy.Engine, len(ids)),
		byName:  make(map[string]spec.SID, len(ids)),
		ids:     ids,
		sum:     sum,
		done:    make(chan struct{}),
	}
	rt.reason.Store("")

	for _, id := range ids {
		e, err := l.NewEngine(id)
		if err != nil {
			return nil, errs.Wrap(err, "build runtime failed")
		}
		ent, _ := l.cat.GetByID(id)
		rt.engines[id] = e
		rt.byName[ent.Name] = id
	}
	return rt, nil
}

// NewSweeper 建立曲面掃描器（自帶一個獨立的引擎）。
func (l *Lab) NewSweeper(id spec.SID) (*Sweeper, error) {
	e, err := l.NewEngine(id)
	if err != nil {
		return nil, err
	}
	ent, _ := l.cat.GetByID(id)
	return NewSweeper(ent.Name, e)
}

// NewSampler 建立隨機稽核器，seed 由 crypto/rand 產生。
func (l *Lab) NewSampler(id spec.SID) (*Sampler, error) {
	seed, err := RandomSeed()
	if err != nil {
		return nil, err
	}
	return l.NewSamplerWithSeed(id, seed)
}

// NewSamplerWithSeed 與 NewSampler 相同，但由呼叫端指定 seed（同 seed + 同 workers 可重現）。
func (l *Lab) NewSamplerWithSeed(id spec.SID, seed int64) (*Sampler, error) {
	e, err := l.NewEngine(id)
	if err != nil {
		return nil, err
	}
	ent, _ := l.cat.GetByID(id)
	return NewSampler(ent.Name, e, seed)
}
