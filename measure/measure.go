// Package measure 定义文本测量的边界：样式属性、测量接口与带缓存的适配器。
//
// 排版核心只通过 Measurer 获取字符串的宽高，不关心具体的字体后端。
package measure

import "strconv"

// Space width corrections supplied by embedders, see SpaceWidth.
const (
	DefaultSpaceCorrection = 0.5
	LegacySpaceCorrection  = 4.0
)

// Style 是测量后端能理解的文本样式。
// 仅 FontFamily/FontSize/FontWeight/FontStyle/TextDecoration 参与缓存键；
// Color 只透传给绘制回调，不影响测量结果。
type Style struct {
	FontFamily     string  `json:"fontFamily,omitempty"`
	FontSize       float64 `json:"fontSize,omitempty"` // pt
	FontWeight     string  `json:"fontWeight,omitempty"`
	FontStyle      string  `json:"fontStyle,omitempty"`
	TextDecoration string  `json:"textDecoration,omitempty"`
	Color          string  `json:"color,omitempty"`
}

// Inherit 返回用 def 补齐零值字段后的样式。
func (s Style) Inherit(def Style) Style {
	if s.FontFamily == "" {
		s.FontFamily = def.FontFamily
	}
	if s.FontSize <= 0 {
		s.FontSize = def.FontSize
	}
	if s.FontWeight == "" {
		s.FontWeight = def.FontWeight
	}
	if s.FontStyle == "" {
		s.FontStyle = def.FontStyle
	}
	if s.TextDecoration == "" {
		s.TextDecoration = def.TextDecoration
	}
	if s.Color == "" {
		s.Color = def.Color
	}
	return s
}

// Bold reports whether the weight asks for a bold face ("bold", "bolder" or >= 600).
func (s Style) Bold() bool {
	switch s.FontWeight {
	case "bold", "bolder":
		return true
	}
	if n, err := strconv.Atoi(s.FontWeight); err == nil {
		return n >= 600
	}
	return false
}

// Italic reports whether the font style is italic or oblique.
func (s Style) Italic() bool {
	return s.FontStyle == "italic" || s.FontStyle == "oblique"
}

// Metrics 是一次测量的结果，单位由测量后端决定（canvas 为 mm，终端为字符格）。
type Metrics struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Measurer 测量字符串在给定样式下的宽高。
//
// 实现需满足：空串宽度为 0；非空串宽度随长度严格递增；
// 同一样式下非空串高度不变；宽度随字号严格递增。
type Measurer interface {
	Measure(text string, style Style) Metrics
}

// MeasurerFunc adapts a plain function to Measurer.
type MeasurerFunc func(text string, style Style) Metrics

func (f MeasurerFunc) Measure(text string, style Style) Metrics { return f(text, style) }

// SpaceWidth 推导一个样式下单词间空格的宽度：w("a a") - w("aa") + correction。
// 单独测量空格在部分后端会得到 0 或被折叠，用差值可以排除 "aa" 之间的字距影响。
func SpaceWidth(m Measurer, style Style, correction float64) float64 {
	w := m.Measure("a a", style).Width - m.Measure("aa", style).Width + correction
	if w < 0 {
		return 0
	}
	return w
}
