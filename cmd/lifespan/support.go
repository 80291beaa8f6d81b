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

package main

import (
	"io/fs"
	"os"

	"github.com/zintix-labs/lifespan"
	"github.com/zintix-labs/lifespan/presets"
	"github.com/zintix-labs/lifespan/spec"
)

func extraFS() []fs.FS {
	out := make([]fs.FS, 0, len(configDirs))
	for _, d := range configDirs {
		out = append(out, os.DirFS(d))
	}
	return out
}

func newLab() (*lifespan.Lab, error) {
	return presets.NewLab(extraFS()...)
}

// newSystem 建好 runtime，並回傳 --system 指定的系統與名稱。
func newSystem() (*lifespan.Runtime, *lifespan.System, string, error) {
	rt, err := presets.NewRuntime(extraFS()...)
	if err != nil {
		return nil, nil, "", err
	}
	id := spec.SID(systemID)
	sys, err := rt.System(id)
	if err != nil {
		return nil, nil, "", err
	}
	name, _ := rt.Name(id)
	return rt, sys, name, nil
}
