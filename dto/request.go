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

package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/zintix-labs/lifespan/errs"
	"github.com/zintix-labs/lifespan/quality"
	"github.com/zintix-labs/lifespan/spec"
)

// 防止 body 過大（1MiB）
const maxBody = 1 << 20

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// 錯誤訊息使用 json 欄位名稱，和 API 文件一致。
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// FlexString 同時接受 JSON 字串或數字，例如 food_type 可以是 "dry" 或 0。
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	*f = FlexString(b)
	return nil
}

// AssessRequest 是 /v1/assess 的請求。範圍檢查交給引擎（錯誤訊息會帶上合法區間）。
type AssessRequest struct {
	Temperature *float64   `json:"temperature"   validate:"required"`
	Humidity    *float64   `json:"humidity"      validate:"required"`
	FoodType    FlexString `json:"food_type"     validate:"required"`
	TimeOnShelf *float64   `json:"time_on_shelf" validate:"required"`
	Curve       bool       `json:"curve"`
}

// Sample 轉成領域型別。
func (r *AssessRequest) Sample() (quality.Sample, error) {
	ft, err := quality.ParseFoodType(string(r.FoodType))
	if err != nil {
		return quality.Sample{}, err
	}
	return quality.Sample{
		Temperature: *r.Temperature,
		Humidity:    *r.Humidity,
		FoodType:    ft,
		TimeOnShelf: *r.TimeOnShelf,
	}, nil
}

// DecodeAssessRequest 支援 GET（query string）與 POST（JSON body）。
func DecodeAssessRequest(r *http.Request) (*AssessRequest, error) {
	req := new(AssessRequest)
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		var err error
		if req.Temperature, err = queryFloat(q, "temperature"); err != nil {
			return nil, err
		}
		if req.Humidity, err = queryFloat(q, "humidity"); err != nil {
			return nil, err
		}
		if req.TimeOnShelf, err = queryFloat(q, "time_on_shelf"); err != nil {
			return nil, err
		}
		req.FoodType = FlexString(q.Get("food_type"))
		if req.Curve, err = queryBool(q, "curve"); err != nil {
			return nil, err
		}
	case http.MethodPost:
		if err := decodeJSON(r.Body, req); err != nil {
			return nil, err
		}
	default:
		return nil, errs.NewWarn("method not allowed")
	}
	return req, Validate(req)
}

// ComputeRequest 是 /v1/compute 的請求：對任一 catalog 系統做泛用推論。
type ComputeRequest struct {
	SystemID *spec.SID         `json:"system_id" validate:"required"`
	Inputs   map[string]float64 `json:"inputs"    validate:"required,min=1"`
	Curve    bool               `json:"curve"`
}

func DecodeComputeRequest(r *http.Request) (*ComputeRequest, error) {
	if r.Method != http.MethodPost {
		return nil, errs.NewWarn("method not allowed")
	}
	req := new(ComputeRequest)
	if err := decodeJSON(r.Body, req); err != nil {
		// 型別錯誤時 decoder 仍會填入其餘欄位，呼叫端可用 system_id 補上錯誤的合法區間
		return req, err
	}
	return req, Validate(req)
}

// SurfaceRequest 是 /v1/surface 的請求（query string）。
//
//	/v1/surface?system_id=1&x=temperature&y=humidity&n=100&fixed=food_type:0,time_on_shelf:10
//
// x / y 都省略時，由 handler 套用系統預設曲面。
type SurfaceRequest struct {
	SystemID *spec.SID         `json:"system_id"`
	X        string             `json:"x"       validate:"required_with=Y"`
	Y        string             `json:"y"       validate:"required_with=X"`
	N        int                `json:"n"       validate:"omitempty,min=2,max=500"`
	Output   string             `json:"output"`
	Fixed    map[string]float64 `json:"fixed"`
	Format   string             `json:"format"  validate:"omitempty,oneof=json yaml yml"`
}

func DecodeSurfaceRequest(r *http.Request) (*SurfaceRequest, error) {
	if r.Method != http.MethodGet {
		return nil, errs.NewWarn("method not allowed")
	}
	q := r.URL.Query()
	req := &SurfaceRequest{
		X:      q.Get("x"),
		Y:      q.Get("y"),
		Output: q.Get("output"),
		Format: q.Get("format"),
	}
	var err error
	if req.SystemID, err = querySID(q); err != nil {
		return nil, err
	}
	if s := q.Get("n"); s != "" {
		if req.N, err = strconv.Atoi(s); err != nil {
			return nil, errs.Validationf("n", "invalid n: %q", s)
		}
	}
	if s := q.Get("fixed"); s != "" {
		if req.Fixed, err = ParseFixed(s); err != nil {
			return nil, err
		}
	}
	return req, Validate(req)
}

// AuditRequest 是 /v1/audit 的請求（query string）。
type AuditRequest struct {
	SystemID *spec.SID `json:"system_id"`
	Samples  int       `json:"samples" validate:"min=1,max=1000000"`
	Workers  int       `json:"workers" validate:"min=1"` // 上限由 server 的 MaxWorkers 截斷
	Seed     *int64    `json:"seed"`
	Output   string    `json:"output"`
}

func DecodeAuditRequest(r *http.Request) (*AuditRequest, error) {
	if r.Method != http.MethodGet {
		return nil, errs.NewWarn("method not allowed")
	}
	q := r.URL.Query()
	req := &AuditRequest{Samples: 10000, Workers: 4, Output: q.Get("output")}
	var err error
	if req.SystemID, err = querySID(q); err != nil {
		return nil, err
	}
	if s := q.Get("samples"); s != "" {
		if req.Samples, err = strconv.Atoi(s); err != nil {
			return nil, errs.Validationf("samples", "invalid samples: %q", s)
		}
	}
	if s := q.Get("workers"); s != "" {
		if req.Workers, err = strconv.Atoi(s); err != nil {
			return nil, errs.Validationf("workers", "invalid workers: %q", s)
		}
	}
	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.Validationf("seed", "seed must be int64, got %q", s)
		}
		req.Seed = &v
	}
	return req, Validate(req)
}

// ParseFixed 解析 "name:value,name:value"。
func ParseFixed(s string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, kv := range strings.Split(s, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, v, ok := strings.Cut(kv, ":")
		if !ok {
			k, v, ok = strings.Cut(kv, "=")
		}
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errs.Validationf("fixed", "fixed entry must be name:value, got %q", kv)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, errs.Validationf(k, "fixed %s must be numeric, got %q", k, v)
		}
		out[k] = f
	}
	return out, nil
}

// Validate 以 struct tag 檢查請求；失敗轉成 errs.KindValidation，Field 為第一個出錯的 json 欄位。
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		msg := fe.Field() + " failed on " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		for _, more := range ves[1:] {
			msg += "; " + more.Field() + " failed on " + more.Tag()
		}
		return errs.Validationf(fe.Field(), "%s", msg)
	}
	return errs.Wrap(err, "request validation failed")
}

func decodeJSON(body io.Reader, dst any) error {
	dec := json.NewDecoder(io.LimitReader(body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) && ute.Field != "" {
			return errs.Validationf(ute.Field, "%s must be %s, got %s", ute.Field, jsonKind(ute.Type), ute.Value)
		}
		e := errs.Wrap(err, "invalid json")
		e.ErrLv = errs.Warn
		e.Kind = errs.KindValidation
		return e
	}
	return nil
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return "numeric"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Bool:
		return "a boolean"
	case reflect.Map, reflect.Struct:
		return "an object"
	}
	return t.Kind().String()
}

func queryFloat(q url.Values, key string) (*float64, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errs.Validationf(key, "%s must be numeric, got %q", key, s)
	}
	return &f, nil
}

func queryBool(q url.Values, key string) (bool, error) {
	s := q.Get(key)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, errs.Validationf(key, "invalid %s value %q", key, s)
	}
	return b, nil
}

func querySID(q url.Values) (*spec.SID, error) {
	s := q.Get("system_id")
	if s == "" {
		return nil, nil
	}
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return nil, errs.Validationf("system_id", "system_id must be non-negative integer, got %q", s)
	}
	id := spec.SID(u)
	return &id, nil
}
