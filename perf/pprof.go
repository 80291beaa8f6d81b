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

// Package perf 讓 CLI 的長時間計算（audit / surface）可選擇性地輸出 pprof 檔。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/lifespan/errs"
)

const DefaultDir = "build/profiling" // pprof 檔案寫入路徑

// Modes 是支援的 profile 種類；空字串表示不做 profiling。
var Modes = []string{"", "cpu", "heap", "allocs"}

// Run 依 mode 包住 exe 執行，profile 寫到 dir/<mode>.pprof。回傳 exe 的錯誤或寫檔錯誤。
func Run(mode, dir string, exe func() error) error {
	if dir == "" {
		dir = DefaultDir
	}
	switch mode {
	case "":
		return exe()
	case "cpu":
		return cpu(dir, exe)
	case "heap", "allocs":
		if err := exe(); err != nil {
			return err
		}
		return snapshot(dir, mode)
	default:
		return errs.Warnf("unknown pprof mode %q (want cpu, heap or allocs)", mode)
	}
}

// cpu 可做性能分析，也可以當作 PGO 的輸入。
func cpu(dir string, exe func() error) error {
	f, err := create(dir, "cpu")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile failed")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// snapshot 在 exe 之後寫出 heap（in-use）或 allocs（累積配置）。
// heap 之前先 GC 一次，讓 live objects 貼近最新狀態。
func snapshot(dir, mode string) error {
	if mode == "heap" {
		runtime.GC()
	}
	f, err := create(dir, mode)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.Lookup(mode).WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "write "+mode+" profile failed")
	}
	return nil
}

func create(dir, mode string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create profiling dir failed")
	}
	f, err := os.Create(filepath.Join(dir, mode+".pprof"))
	if err != nil {
		return nil, errs.Wrap(err, "create "+mode+".pprof failed")
	}
	return f, nil
}
