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

// Package errs 定義整個引擎共用的錯誤型別。
//
// 每個錯誤同時帶有兩個維度：
//   - ErrLevel：嚴重度，給最上層（HTTP / CLI）決定如何回應。
//   - Kind：錯誤類別，對應推論流程中的三種失敗模式（輸入、設定、解模糊）。
package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Kind 描述錯誤屬於推論流程的哪一種失敗。
type Kind uint8

const (
	KindNone            Kind = iota
	KindValidation           // 呼叫端給了超出範圍/非數值的輸入
	KindConfiguration        // 設定檔或建構期資料不合法（只會在建構期出現）
	KindDefuzzification      // 聚合曲線總激活為 0，無法求重心
)

var kindMap = map[Kind]string{
	KindNone:            "",
	KindValidation:      "validation",
	KindConfiguration:   "configuration",
	KindDefuzzification: "defuzzification",
}

func (k Kind) String() string {
	return kindMap[k]
}

// 可供 errors.Is 比對的哨兵錯誤（只比對 Kind）。
var (
	ErrValidation      = &E{Kind: KindValidation}
	ErrConfiguration   = &E{Kind: KindConfiguration}
	ErrDefuzzification = &E{Kind: KindDefuzzification}
)

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；Field 為出錯的欄位/變數名稱（僅輸入類錯誤使用）。
type E struct {
	Message string
	Extra   string
	Field   string
	Cause   error
	ErrLv   ErrLevel
	Kind    Kind
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s", ErrLv(e.ErrLv))
	if e.Kind != KindNone {
		base += " kind=" + e.Kind.String()
	}
	base += " " + e.Message
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is 讓哨兵錯誤（只有 Kind、沒有訊息）可以用 errors.Is 比對同類錯誤。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok || t.Kind == KindNone || t.Message != "" {
		return false
	}
	return e.Kind == t.Kind
}

// New 依錯誤等級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

// Validationf 建立輸入類錯誤（Warn）。field 為出錯的變數名稱。
func Validationf(field string, format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), Field: field, ErrLv: Warn, Kind: KindValidation}
}

// Configf 建立設定類錯誤（Fatal）。只應在建構期回傳。
func Configf(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Fatal, Kind: KindConfiguration}
}

// Defuzzf 建立解模糊錯誤（Fatal）。field 為輸出變數名稱。
func Defuzzf(field string, format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), Field: field, ErrLv: Fatal, Kind: KindDefuzzification}
}

// Wrap 使用給定訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel / Kind 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Kind（保持原本嚴重度與類別）。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），則 ErrLv 一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	var e *E
	r := New(Fatal, msg)
	if errors.As(cause, &e) {
		r.ErrLv = e.ErrLv
		r.Kind = e.Kind
		r.Field = e.Field
	}
	r.Cause = cause
	return r
}

// WrapWithExtra 與 Wrap 相同，另外附上上下文字串。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// KindOf 回傳錯誤鏈上第一個 *E 的 Kind；非本包錯誤回傳 KindNone。
func KindOf(err error) Kind {
	if e, ok := AsErr(err); ok {
		return e.Kind
	}
	return KindNone
}
