package server_test

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/lifespan"
	"github.com/zintix-labs/lifespan/presets"
	"github.com/zintix-labs/lifespan/server"
	"github.com/zintix-labs/lifespan/server/logger"
	"github.com/zintix-labs/lifespan/server/netsvr"
	"github.com/zintix-labs/lifespan/server/svrcfg"
)

func newServer(t *testing.T, tweak func(*svrcfg.SvrCfg)) (*httptest.Server, *lifespan.Runtime) {
	t.Helper()
	sCfg, err := presets.NewServerConfig()
	if err != nil {
		t.Fatalf("server config: %v", err)
	}
	sCfg.Log = logger.NewTo(io.Discard, logger.ModeSilence)
	if tweak != nil {
		tweak(sCfg)
	}
	svr := netsvr.NewChiServerDefault()
	rt, err := server.Build(sCfg, svr)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ts := httptest.NewServer(svr)
	t.Cleanup(ts.Close)
	return ts, rt
}

func get(t *testing.T, ts *httptest.Server, path string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func post(t *testing.T, ts *httptest.Server, path, body string) (int, []byte) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

type assessBody struct {
	Score        float64 `json:"score"`
	Label        string  `json:"label"`
	Verdict      string  `json:"verdict"`
	DominantRule *struct {
		Index int `json:"index"`
	} `json:"dominant_rule"`
	Curve *struct {
		X          []float64            `json:"x"`
		Aggregated []float64            `json:"aggregated"`
		Terms      map[string][]float64 `json:"terms"`
	} `json:"curve"`
}

type errBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field"`
}

func TestIndex(t *testing.T) {
	ts, _ := newServer(t, nil)
	code, body := get(t, ts, "/")
	if code != http.StatusOK || !strings.Contains(string(body), "/v1/assess") {
		t.Fatalf("index: %d", code)
	}
}

func TestAssessGET(t *testing.T) {
	ts, _ := newServer(t, nil)
	code, body := get(t, ts, "/v1/assess?temperature=5&humidity=20&food_type=dry&time_on_shelf=1&curve=true")
	if code != http.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	var as assessBody
	if err := json.Unmarshal(body, &as); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if as.Label != "Excellent" || as.Verdict != "Fresh" || as.DominantRule == nil || as.DominantRule.Index != 0 {
		t.Fatalf("unexpected assessment: %s", body)
	}
	if as.Curve == nil || len(as.Curve.X) != 1001 || len(as.Curve.Aggregated) != 1001 || len(as.Curve.Terms) != 4 {
		t.Fatalf("curve missing or malformed")
	}
}

func TestAssessPOST(t *testing.T) {
	ts, _ := newServer(t, nil)
	code, body := post(t, ts, "/v1/assess", `{"temperature":28,"humidity":90,"food_type":"fresh","time_on_shelf":25}`)
	if code != http.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	var as assessBody
	_ = json.Unmarshal(body, &as)
	if as.Label != "Poor" || as.Verdict != "Spoiled" || as.DominantRule.Index != 53 || as.Curve != nil {
		t.Fatalf("unexpected assessment: %s", body)
	}
}

func TestAssessRejects(t *testing.T) {
	ts, _ := newServer(t, nil)
	cases := []struct{ path, field string }{
		{"/v1/assess?temperature=20&humidity=150&food_type=dry&time_on_shelf=5", "humidity"},
		{"/v1/assess?temperature=20&food_type=dry&time_on_shelf=5", "humidity"},
		{"/v1/assess?temperature=20&humidity=50&food_type=frozen&time_on_shelf=5", "food_type"},
		{"/v1/assess?temperature=x&humidity=50&food_type=dry&time_on_shelf=5", "temperature"},
	}
	for _, c := range cases {
		code, body := get(t, ts, c.path)
		var eb errBody
		_ = json.Unmarshal(body, &eb)
		if code != http.StatusBadRequest || eb.Kind != "validation" || eb.Field != c.field {
			t.Fatalf("%s: got %d %s", c.path, code, body)
		}
	}
	code, body := get(t, ts, "/v1/assess?temperature=20&humidity=150&food_type=dry&time_on_shelf=5")
	if code != http.StatusBadRequest || !strings.Contains(string(body), "[0,100]") {
		t.Fatalf("range error should name the valid range: %s", body)
	}

	// 非數值輸入：GET 與 POST 都要指出欄位與合法區間
	nonNumeric := []struct{ method, path, body, field, rng string }{
		{http.MethodPost, "/v1/assess", `{"temperature":20,"humidity":"wet","food_type":"dry","time_on_shelf":5}`, "humidity", "[0,100]"},
		{http.MethodPost, "/v1/assess", `{"temperature":20,"humidity":50,"food_type":"dry","time_on_shelf":true}`, "time_on_shelf", "[0,30]"},
		{http.MethodGet, "/v1/assess?temperature=x&humidity=50&food_type=dry&time_on_shelf=5", "", "temperature", "[0,30]"},
	}
	for _, c := range nonNumeric {
		if c.method == http.MethodPost {
			code, body = post(t, ts, c.path, c.body)
		} else {
			code, body = get(t, ts, c.path)
		}
		var eb errBody
		_ = json.Unmarshal(body, &eb)
		if code != http.StatusBadRequest || eb.Kind != "validation" || eb.Field != c.field || !strings.Contains(eb.Error, c.rng) {
			t.Fatalf("%s %s: got %d %s", c.method, c.path, code, body)
		}
	}

	code, body = post(t, ts, "/v1/assess", `{"temperature":5,"humidity":20,"food_type":1.0,"time_on_shelf":1}`)
	if code != http.StatusOK {
		t.Fatalf("food_type 1.0 should be accepted: %d %s", code, body)
	}
}

func TestCompute(t *testing.T) {
	ts, _ := newServer(t, nil)
	code, body := post(t, ts, "/v1/compute",
		`{"system_id":1,"inputs":{"temperature":5,"humidity":20,"food_type":0,"time_on_shelf":1}}`)
	if code != http.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	var cr struct {
		Outputs []struct {
			Variable string  `json:"variable"`
			Score    float64 `json:"score"`
		} `json:"outputs"`
		Fired []struct {
			Index int `json:"index"`
		} `json:"fired"`
	}
	if err := json.Unmarshal(body, &cr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cr.Outputs) != 1 || cr.Outputs[0].Variable != "quality" || cr.Outputs[0].Score <= 90 {
		t.Fatalf("unexpected outputs: %s", body)
	}
	if len(cr.Fired) == 0 || cr.Fired[0].Index != 0 {
		t.Fatalf("unexpected fired rules: %s", body)
	}

	code, _ = post(t, ts, "/v1/compute", `{"system_id":99,"inputs":{"temperature":5}}`)
	if code != http.StatusBadRequest {
		t.Fatalf("unknown system: %d", code)
	}
	code, body = post(t, ts, "/v1/compute", `{"system_id":1,"inputs":{"temperature":5}}`)
	if code != http.StatusBadRequest || !strings.Contains(string(body), "validation") {
		t.Fatalf("missing inputs: %d %s", code, body)
	}
}

func TestSystemsAndVariables(t *testing.T) {
	ts, _ := newServer(t, nil)
	code, body := get(t, ts, "/v1/systems")
	if code != http.StatusOK || !strings.Contains(string(body), `"system_name":"food_quality"`) {
		t.Fatalf("systems: %d %s", code, body)
	}
	code, body = get(t, ts, "/v1/variables?curve=false")
	if code != http.StatusOK {
		t.Fatalf("variables: %d %s", code, body)
	}
	var vs struct {
		Inputs  []struct{ Name string } `json:"inputs"`
		Outputs []struct {
			Name  string `json:"name"`
			Terms []struct {
				Name  string    `json:"name"`
				Curve []float64 `json:"curve"`
			} `json:"terms"`
		} `json:"outputs"`
		Rules []string `json:"rules"`
	}
	if err := json.Unmarshal(body, &vs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(vs.Inputs) != 4 || len(vs.Outputs) != 1 || len(vs.Rules) != 54 {
		t.Fatalf("unexpected variables: %s", body)
	}
	if vs.Outputs[0].Terms[0].Curve != nil {
		t.Fatalf("curve=false should omit curves")
	}
}

func TestSurface(t *testing.T) {
	ts, _ := newServer(t, nil)
	code, body := get(t, ts, "/v1/surface?n=5")
	if code != http.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	var sr struct {
		Surface struct {
			X     struct{ Name string } `json:"x"`
			Y     struct{ Name string } `json:"y"`
			Fixed map[string]float64    `json:"fixed"`
			Z     [][]float64           `json:"z"`
		} `json:"surface"`
	}
	if err := json.Unmarshal(body, &sr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	s := sr.Surface
	if s.X.Name != "temperature" || s.Y.Name != "humidity" || len(s.Z) != 5 || len(s.Z[0]) != 5 {
		t.Fatalf("unexpected default surface: %s", body)
	}
	if s.Fixed["time_on_shelf"] != 10 || s.Fixed["food_type"] != 0 {
		t.Fatalf("default fixed inputs lost: %v", s.Fixed)
	}

	code, body = get(t, ts, "/v1/surface?x=temperature&y=time_on_shelf&n=3&fixed=humidity:50,food_type:1&format=yaml")
	if code != http.StatusOK || !strings.Contains(string(body), "time_on_shelf") {
		t.Fatalf("custom surface: %d %s", code, body)
	}
	code, body = get(t, ts, "/v1/surface?x=temperature&y=time_on_shelf&n=3&fixed=humidity:50")
	if code != http.StatusBadRequest || !strings.Contains(string(body), "food_type") {
		t.Fatalf("missing fixed input: %d %s", code, body)
	}
}

func TestAudit(t *testing.T) {
	ts, _ := newServer(t, nil)
	code, body := get(t, ts, "/v1/audit?samples=2000&workers=2&seed=7")
	if code != http.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	var ar struct {
		Seed   int64 `json:"seed"`
		Report struct {
			Summary struct {
				Samples int `json:"Samples"`
				Gaps    int `json:"Gaps"`
			} `json:"Summary"`
		} `json:"report"`
	}
	if err := json.Unmarshal(body, &ar); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ar.Seed != 7 || ar.Report.Summary.Samples != 2000 || ar.Report.Summary.Gaps != 0 {
		t.Fatalf("unexpected audit: %s", body)
	}

	// 單一樣本沒有樣本標準差，報表仍須可編碼
	code, body = get(t, ts, "/v1/audit?samples=1&workers=1&seed=7")
	if code != http.StatusOK {
		t.Fatalf("one-sample audit: %d %s", code, body)
	}
	var one struct {
		Report struct {
			Summary struct {
				Samples int     `json:"Samples"`
				Std     float64 `json:"Std"`
			} `json:"Summary"`
		} `json:"report"`
	}
	if err := json.Unmarshal(body, &one); err != nil || one.Report.Summary.Samples != 1 || one.Report.Summary.Std != 0 {
		t.Fatalf("one-sample audit: %s (%v)", body, err)
	}

	// workers 超過 server 上限時截斷而非拒絕
	code, body = get(t, ts, "/v1/audit?samples=100&workers=32&seed=7")
	if code != http.StatusOK {
		t.Fatalf("workers=32: %d %s", code, body)
	}
}

func TestMetricsAndCompression(t *testing.T) {
	ts, _ := newServer(t, nil)
	get(t, ts, "/v1/assess?temperature=5&humidity=20&food_type=dry&time_on_shelf=1")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/systems", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response")
	}
	gr, err := gzip.NewReader(resp.Body)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	raw, _ := io.ReadAll(gr)
	if !strings.Contains(string(raw), "food_quality") {
		t.Fatalf("unexpected body %q", raw)
	}

	code, body := get(t, ts, "/metrics")
	if code != http.StatusOK {
		t.Fatalf("metrics: %d", code)
	}
	for _, want := range []string{
		`lifespan_http_requests_total{method="GET",route="/v1/assess",status="200"} 1`,
		`lifespan_assessments_total{label="Excellent"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}

func TestRateLimited(t *testing.T) {
	ts, _ := newServer(t, func(c *svrcfg.SvrCfg) {
		c.RatePerSec = 0.01
		c.Burst = 1
	})
	if code, _ := get(t, ts, "/v1/systems"); code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
	if code, _ := get(t, ts, "/v1/systems"); code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", code)
	}
}

func TestClosedRuntime(t *testing.T) {
	ts, rt := newServer(t, nil)
	rt.CloseWithReason("shutdown")
	code, body := get(t, ts, "/v1/assess?temperature=5&humidity=20&food_type=dry&time_on_shelf=1")
	if code != http.StatusInternalServerError || !strings.Contains(string(body), "shutdown") {
		t.Fatalf("closed runtime: %d %s", code, body)
	}
}

func TestConfigInvalid(t *testing.T) {
	sCfg, err := presets.NewServerConfig()
	if err != nil {
		t.Fatalf("server config: %v", err)
	}
	sCfg.Log = logger.NewTo(io.Discard, logger.ModeSilence)
	sCfg.SystemID = 42
	if _, err := server.Build(sCfg, netsvr.NewChiServerDefault()); err == nil {
		t.Fatalf("expected error for unregistered system id")
	}
}
