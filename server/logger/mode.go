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

// Package logger 組裝 lifespan 的 slog：依模式選格式與等級，並可包成非同步 handler。
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/zintix-labs/lifespan/spec"
)

// LogMode 決定預設 handler 的格式、輸出與等級。
type LogMode uint8

const (
	ModeDev     LogMode = iota // text, stderr, debug
	ModeProd                   // json, stdout, info
	ModeSilence                // 全部丟棄
)

var modeNames = [...]string{ModeDev: "dev", ModeProd: "prod", ModeSilence: "silence"}

func (m LogMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("LogMode(%d)", m)
}

// ParseLogMode 解析 CLI 給的模式名稱（不分大小寫）。
func ParseLogMode(s string) (LogMode, error) {
	s = strings.TrimSpace(s)
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return LogMode(m), nil
		}
	}
	return ModeDev, fmt.Errorf("unknown log mode %q (want dev, prod or silence)", s)
}

// 分數、隸屬度等浮點欄位在 log 裡只留 4 位小數。
const floatDigits = 4

// NewLogger 包裝呼叫者自行組好的 handler；nil 時使用 dev 預設。
func NewLogger(h slog.Handler) *slog.Logger {
	if h == nil {
		h = handlerFor(ModeDev)
	}
	return slog.New(h)
}

// NewDefaultAsyncLogger 以 mode 的預設 handler 建立非同步 logger。
func NewDefaultAsyncLogger(mode LogMode) *slog.Logger {
	log, _ := NewAsync(8192, mode)
	return log
}

// NewAsync 與 NewDefaultAsyncLogger 相同，但把 *AsyncHandler 交給呼叫者控制關閉時機。
func NewAsync(buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(handlerFor(mode), buf)
	return slog.New(ah), ah
}

// NewTo 以 mode 的格式與等級同步寫到 w（CLI 寫 stderr、測試寫 buffer）。
func NewTo(w io.Writer, mode LogMode) *slog.Logger {
	return slog.New(handlerTo(w, mode))
}

// ForSystem 回傳帶 system_id / system 欄位的子 logger。
func ForSystem(log *slog.Logger, id spec.SID, name string) *slog.Logger {
	if log == nil {
		log = NewLogger(nil)
	}
	return log.With(slog.Uint64("system_id", uint64(id)), slog.String("system", name))
}

func handlerFor(mode LogMode) slog.Handler {
	if mode == ModeProd {
		return handlerTo(os.Stdout, mode)
	}
	return handlerTo(os.Stderr, mode)
}

func handlerTo(w io.Writer, mode LogMode) slog.Handler {
	switch mode {
	case ModeProd:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo, ReplaceAttr: roundFloats})
	case ModeSilence:
		return slog.DiscardHandler
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug, ReplaceAttr: roundFloats})
	}
}

func roundFloats(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindFloat64 {
		return a
	}
	f := a.Value.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return a
	}
	p := math.Pow10(floatDigits)
	return slog.Float64(a.Key, math.Round(f*p)/p)
}
