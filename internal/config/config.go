// Package config 读取命令行工具的 YAML 配置，并应用环境变量覆盖。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/textflow/layout"
	"github.com/ByLCY/textflow/measure"
)

// DefaultFile 是未指定 --config 时读取的配置文件。
const DefaultFile = "textflow.yaml"

// Environment overrides.
const (
	EnvLogLevel        = "TEXTFLOW_LOG_LEVEL"
	EnvSpaceCorrection = "TEXTFLOW_SPACE_CORRECTION"
	EnvFontDir         = "TEXTFLOW_FONT_DIR"
)

// Config 是 textflow.yaml 的内容。
type Config struct {
	LogLevel        string   `yaml:"log_level"`
	SpaceCorrection float64  `yaml:"space_correction"`
	FontDir         string   `yaml:"font_dir"`
	Defaults        Defaults `yaml:"defaults"`
	Wrap            Wrap     `yaml:"wrap"`
}

// Defaults 是文档未声明样式时使用的字体参数。Font 为空时由文档自己的字体资源决定。
type Defaults struct {
	Font  string  `yaml:"font"`
	Size  float64 `yaml:"size"` // pt
	Color string  `yaml:"color"`
}

// Wrap 是 wrap 子命令的默认参数。
type Wrap struct {
	Width int    `yaml:"width"`
	Align string `yaml:"align"`
}

// Default 返回内置默认配置。
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		SpaceCorrection: measure.DefaultSpaceCorrection,
		Defaults: Defaults{
			Size: 12,
		},
		Wrap: Wrap{
			Width: 80,
			Align: "left",
		},
	}
}

// Load 读取 path 指向的配置；文件不存在时使用默认值。
// 文件中未出现的字段保留默认值，随后应用环境变量覆盖并校验。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置 %s 失败: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvFontDir); v != "" {
		c.FontDir = v
	}
	if v := os.Getenv(EnvSpaceCorrection); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s=%q 不是数字", EnvSpaceCorrection, v)
		}
		c.SpaceCorrection = f
	}
	return nil
}

// Validate 检查配置取值。
func (c *Config) Validate() error {
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if math.IsNaN(c.SpaceCorrection) || math.IsInf(c.SpaceCorrection, 0) {
		return fmt.Errorf("space_correction 必须是有限数值")
	}
	if c.Defaults.Size < 0 {
		return fmt.Errorf("defaults.size 不能为负数")
	}
	if c.Wrap.Width < 0 {
		return fmt.Errorf("wrap.width 不能为负数")
	}
	switch strings.ToLower(c.Wrap.Align) {
	case "", "left", "start", "center", "middle", "right", "end":
	default:
		return fmt.Errorf("wrap.align 不支持 %q", c.Wrap.Align)
	}
	return nil
}

// SlogLevel 返回日志级别；Validate 之后调用不会失败。
func (c *Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

// WrapAlign 返回 wrap 的默认水平对齐。
func (c *Config) WrapAlign() layout.HAlign {
	return layout.ParseHAlign(c.Wrap.Align)
}

// DefaultStyle 返回 Defaults 对应的测量样式。
func (c *Config) DefaultStyle() measure.Style {
	return measure.Style{
		FontFamily: c.Defaults.Font,
		FontSize:   c.Defaults.Size,
		Color:      c.Defaults.Color,
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("未知的日志级别 %q", s)
}
