package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/textflow/layout"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "textflow.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("配置不存在时不应报错: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("默认配置不符 (-want +got):\n%s", diff)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("默认日志级别应为 info")
	}
}

func TestLoadFileKeepsUnsetDefaults(t *testing.T) {
	path := writeConfig(t, `log_level: debug
space_correction: 4
defaults:
  font: Serif
  size: 10
wrap:
  align: right
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	want := Default()
	want.LogLevel = "debug"
	want.SpaceCorrection = 4
	want.Defaults.Font = "Serif"
	want.Defaults.Size = 10
	want.Wrap.Align = "right"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("配置不符 (-want +got):\n%s", diff)
	}
	if cfg.SlogLevel() != slog.LevelDebug || cfg.WrapAlign() != layout.AlignRight {
		t.Fatalf("派生值不符: %v %v", cfg.SlogLevel(), cfg.WrapAlign())
	}
	if st := cfg.DefaultStyle(); st.FontFamily != "Serif" || st.FontSize != 10 {
		t.Fatalf("默认样式不符: %+v", st)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvSpaceCorrection, "0")
	t.Setenv(EnvFontDir, "/opt/fonts")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.LogLevel != "error" || cfg.SpaceCorrection != 0 || cfg.FontDir != "/opt/fonts" {
		t.Fatalf("环境变量未生效: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     string
	}{
		{name: "bad yaml", content: "log_level: [\n"},
		{name: "bad level", content: "log_level: loud\n"},
		{name: "negative width", content: "wrap:\n  width: -1\n"},
		{name: "bad align", content: "wrap:\n  align: justify\n"},
		{name: "negative size", content: "defaults:\n  size: -2\n"},
		{name: "bad env", content: "", env: "wide"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv(EnvSpaceCorrection, tt.env)
			}
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Fatalf("期望返回错误")
			}
		})
	}
}
