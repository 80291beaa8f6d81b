package catalog_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/lifespan/catalog"
	"github.com/zintix-labs/lifespan/presets/configs"
)

func TestRegisterAndLoad(t *testing.T) {
	c, err := catalog.New(configs.FS)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Register(catalog.Entry{SID: 1, Name: " Food_Quality ", ConfigName: "food_quality.yaml"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	e, ok := c.GetByName("FOOD_QUALITY")
	if !ok || e.SID != 1 || e.Name != "food_quality" {
		t.Fatalf("lookup = %+v, %v", e, ok)
	}
	ss, err := c.SystemSettingByID(1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sum := catalog.Summarize(ss)
	if sum.Rules != 54 || len(sum.Inputs) != 4 || sum.Outputs[0] != "quality" {
		t.Fatalf("summary = %+v", sum)
	}
	if _, err := c.SystemSettingByID(9); err == nil {
		t.Fatalf("unknown id should fail")
	}

	c.Freeze()
	if err := c.Register(catalog.Entry{SID: 2, Name: "other", ConfigName: "food_quality.yaml"}); err == nil || !c.IsFrozen() {
		t.Fatalf("frozen catalog accepted a registration")
	}
}

func TestRegisterRejects(t *testing.T) {
	extra := fstest.MapFS{"other.yaml": {Data: []byte("system_name: other\n")}}
	cases := []struct {
		name  string
		entry []catalog.Entry
		want  error
	}{
		{"dup id in batch", []catalog.Entry{{SID: 1, Name: "a", ConfigName: "food_quality.yaml"}, {SID: 1, Name: "b", ConfigName: "other.yaml"}}, catalog.ErrDupID},
		{"dup name in batch", []catalog.Entry{{SID: 1, Name: "a", ConfigName: "food_quality.yaml"}, {SID: 2, Name: " A", ConfigName: "other.yaml"}}, catalog.ErrDupName},
		{"missing file", []catalog.Entry{{SID: 1, Name: "a", ConfigName: "nope.yaml"}}, nil},
		{"path in name", []catalog.Entry{{SID: 1, Name: "a", ConfigName: "dir/food_quality.yaml"}}, nil},
		{"bad extension", []catalog.Entry{{SID: 1, Name: "a", ConfigName: "food_quality.toml"}}, nil},
		{"empty name", []catalog.Entry{{SID: 1, Name: " ", ConfigName: "food_quality.yaml"}}, nil},
	}
	for _, tc := range cases {
		c, err := catalog.New(configs.FS, extra)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		err = c.Register(tc.entry...)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
		if len(c.IDs()) != 0 {
			t.Fatalf("%s: failed batch must not register anything", tc.name)
		}
	}
}

func TestDuplicateFileAcrossSources(t *testing.T) {
	dup := fstest.MapFS{"food_quality.yaml": {Data: []byte("system_name: x\n")}}
	if _, err := catalog.New(configs.FS, dup); err == nil {
		t.Fatalf("same file name in two sources should fail")
	}
}

func TestParseSystemSettingFormat(t *testing.T) {
	if _, err := catalog.ParseSystemSetting("a.toml", nil); err == nil {
		t.Fatalf("unsupported extension should fail")
	}
}
