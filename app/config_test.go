package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smartcalc.toml")
	body := "culture = \"fr-FR\"\n\n[tui]\ngutterWidth = 30\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SMARTCALC_LOG_LEVEL", "debug")

	v, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		key  string
		want any
	}{
		{CfgCulture, "fr-FR"},
		{CfgTUIGutterWidth, 30},
		{CfgLogLevel, "debug"},
		{CfgEvalShowSpans, false},
		{CfgGUITextSize, 14},
	}
	for _, tt := range tests {
		var got any
		switch tt.want.(type) {
		case int:
			got = v.GetInt(tt.key)
		case bool:
			got = v.GetBool(tt.key)
		default:
			got = v.GetString(tt.key)
		}
		if got != tt.want {
			t.Errorf("%s = %v, want %v", tt.key, got, tt.want)
		}
	}

	if _, err := NewLogger(v); err != nil {
		t.Errorf("NewLogger: %v", err)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("explicit missing config file accepted")
	}

	v, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	v.Set(CfgLogLevel, "loud")
	if _, err := NewLogger(v); err == nil {
		t.Error("NewLogger accepted an unknown level")
	}
}
