package document

import (
	"fmt"

	"github.com/ByLCY/textflow/layout"
)

// 该文件定义文档排版结果与资源描述，供布局计算、渲染与调试 JSON 共用。

// Result 保存排好的页面与资源信息。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
}

// ResourceSet 记录解析出的字体、颜色与样式定义。
type ResourceSet struct {
	Fonts  map[string]FontResource `json:"fonts"`
	Colors map[string]Color        `json:"colors"`
	Styles map[string]Style        `json:"styles"`
}

// FontResource 描述字体资源，src 可以是文件路径或 embed:* 内置字体。
// 同一 Family 下的多个资源以 Weight/Style 区分。
type FontResource struct {
	Name     string `json:"name"`
	Src      string `json:"src"`
	Family   string `json:"family"`
	Weight   string `json:"weight,omitempty"`
	Style    string `json:"style,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Hex 返回 #rrggbb 形式。
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Page 记录页面尺寸、边距与排好的文本框，单位均为 mm。
type Page struct {
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Margin Margin    `json:"margin"`
	Texts  []TextBox `json:"texts"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// TextBox 是一个已定位的文本框。X、Y 为页面坐标；Height 为声明的高度，
// 未声明时取排版总高度。
type TextBox struct {
	Name   string         `json:"name,omitempty"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Align  layout.HAlign  `json:"align"`
	VAlign layout.VAlign  `json:"valign"`
	Layout *layout.Layout `json:"layout"`
}

// Walk 以页面坐标访问文本框中的每个 span。
func (tb TextBox) Walk(visit func(layout.Placement)) {
	if tb.Layout == nil {
		return
	}
	tb.Layout.Walk(tb.Align, tb.VAlign, func(p layout.Placement) {
		p.X += tb.X
		p.Y += tb.Y
		visit(p)
	})
}

// Render 与 Walk 相同，但使用 layout.PaintFunc 回调。
func (tb TextBox) Render(paint layout.PaintFunc) {
	tb.Walk(func(p layout.Placement) {
		paint(p.Text, p.X, p.Y, p.Width, p.Style)
	})
}

// Style 用于描述可继承的文本样式。
type Style struct {
	Name    string            `json:"name"`
	Extends string            `json:"extends,omitempty"`
	Props   map[string]string `json:"props"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

// FontRegistry 接收文档声明的字体，使测量后端在排版前能够加载它们。
type FontRegistry interface {
	RegisterFont(font FontResource) error
}
