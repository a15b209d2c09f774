package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAPIURL, EnvToken, EnvLocale, EnvFormat, EnvTimeout, EnvServerDB, EnvServerAddr, EnvServerToken} {
		t.Setenv(k, "")
	}
	t.Setenv(EnvConfigDir, t.TempDir())
}

func TestResolve_Precedence(t *testing.T) {
	clearEnv(t)
	secs := 5
	f := &File{APIURL: "http://file", Token: "file-token", Locale: "de", Format: "edn", TimeoutSeconds: &secs}

	c, err := Resolve(f, Overrides{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.APIURL != "http://file" || c.Token != "file-token" || c.Locale != "de" || c.Format != "edn" || c.Timeout != 5*time.Second {
		t.Fatalf("file values not applied: %+v", c)
	}

	t.Setenv(EnvLocale, "fr")
	t.Setenv(EnvTimeout, "0")
	c, err = Resolve(f, Overrides{Locale: ""})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.Locale != "fr" || c.Timeout != 0 {
		t.Fatalf("env should beat file: %+v", c)
	}

	c, err = Resolve(f, Overrides{Locale: "it", APIURL: "https://flag/"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.Locale != "it" || c.APIURL != "https://flag" {
		t.Fatalf("flags should beat env: %+v", c)
	}
}

func TestResolve_Defaults(t *testing.T) {
	clearEnv(t)
	c, err := Resolve(nil, Overrides{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.APIURL != DefaultAPIURL || c.Locale != DefaultLocale || c.Timeout != 30*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestResolve_RejectsBadValues(t *testing.T) {
	clearEnv(t)
	if _, err := Resolve(&File{APIURL: "ftp://x"}, Overrides{}); err == nil {
		t.Fatalf("expected url error")
	}
	t.Setenv(EnvTimeout, "soon")
	if _, err := Resolve(nil, Overrides{}); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestSaveLoadFile(t *testing.T) {
	clearEnv(t)
	f, err := LoadFile()
	if err != nil || f.APIURL != "" {
		t.Fatalf("missing file should load empty: %+v %v", f, err)
	}
	want := &File{APIURL: "http://x", Token: "secret", TUI: &TUIConfig{Glyphs: "ascii"}}
	if err := SaveFile(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadFile()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("roundtrip mismatch:\nwant: %#v\ngot:  %#v", want, got)
	}
	path, _ := Path()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("config should be private, got %v", info.Mode().Perm())
	}
}

func TestLoadServer(t *testing.T) {
	clearEnv(t)
	s, err := LoadServer()
	if err != nil {
		t.Fatalf("load server: %v", err)
	}
	dir, _ := Dir()
	if s.DBPath != filepath.Join(dir, "lawcode.db") || s.Addr != DefaultServerAddr || s.Token != "" {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	t.Setenv(EnvServerAddr, ":9000")
	t.Setenv(EnvServerToken, "tok")
	s, _ = LoadServer()
	if s.Addr != ":9000" || s.Token != "tok" {
		t.Fatalf("env not applied: %+v", s)
	}
}

func TestTUIState_RoundTripAndCorrupt(t *testing.T) {
	clearEnv(t)
	st, err := LoadTUIState()
	if err != nil || st.Version != 1 {
		t.Fatalf("expected default state, got %+v %v", st, err)
	}
	want := &TUIState{Version: 1, SelectedID: "c2", Expanded: []string{"c1"}, Locale: "de"}
	if err := SaveTUIState(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadTUIState()
	if err != nil || !reflect.DeepEqual(want, got) {
		t.Fatalf("roundtrip mismatch: %+v %v", got, err)
	}

	dir, _ := Dir()
	if err := os.WriteFile(filepath.Join(dir, tuiStateFileName), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err = LoadTUIState()
	if err != nil || got.Version != 1 || got.SelectedID != "" {
		t.Fatalf("corrupt state should load as default: %+v %v", got, err)
	}
}
