package layout

import (
	"strings"

	"github.com/ByLCY/textflow/measure"
)

// HAlign 水平对齐方式。
type HAlign string

const (
	AlignLeft   HAlign = "left"
	AlignCenter HAlign = "center"
	AlignRight  HAlign = "right"
)

// VAlign 垂直对齐方式。
type VAlign string

const (
	AlignTop    VAlign = "top"
	AlignMiddle VAlign = "middle"
	AlignBottom VAlign = "bottom"
)

// ParseHAlign 解析水平对齐，无法识别的取值回退为 left。
func ParseHAlign(s string) HAlign {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "center", "middle":
		return AlignCenter
	case "right", "end":
		return AlignRight
	default:
		return AlignLeft
	}
}

// ParseVAlign 解析垂直对齐，无法识别的取值回退为 top。
func ParseVAlign(s string) VAlign {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "middle", "center":
		return AlignMiddle
	case "bottom", "end":
		return AlignBottom
	default:
		return AlignTop
	}
}

// PaintFunc 绘制一个 span；x、y 是 span 左上角相对排版框的坐标。
type PaintFunc func(text string, x, y, width float64, style measure.Style)

// Placement 是 Walk 访问到的一个已定位 span。
type Placement struct {
	Text  string
	X, Y  float64
	Width float64
	Style measure.Style
	// Line 是行号，从 0 开始。
	Line       int
	LineHeight float64
	SpanHeight float64
}

// Render 按对齐方式从上到下、从左到右对每个 span 调用 paint。
// Render 不修改 Layout，相同参数的多次调用产生相同的回调序列。
func (l *Layout) Render(h HAlign, v VAlign, paint PaintFunc) {
	l.Walk(h, v, func(p Placement) {
		paint(p.Text, p.X, p.Y, p.Width, p.Style)
	})
}

// Walk 与 Render 的遍历相同，但回调拿到包含行高的完整定位信息。
func (l *Layout) Walk(h HAlign, v VAlign, visit func(Placement)) {
	y := l.verticalOffset(v)
	for i, ln := range l.lines {
		x := l.horizontalOffset(h, ln.Width)
		for _, sp := range ln.Spans {
			visit(Placement{
				Text:       sp.Text,
				X:          x,
				Y:          y,
				Width:      sp.Width,
				Style:      sp.Style,
				Line:       i,
				LineHeight: ln.Height,
				SpanHeight: sp.Height,
			})
			x += sp.Width
		}
		y += ln.Height
	}
}

func (l *Layout) verticalOffset(v VAlign) float64 {
	if !l.hasHeight {
		return 0
	}
	switch v {
	case AlignMiddle:
		return (l.height - l.totalHeight) / 2
	case AlignBottom:
		return l.height - l.totalHeight
	default:
		return 0
	}
}

func (l *Layout) horizontalOffset(h HAlign, lineWidth float64) float64 {
	switch h {
	case AlignCenter:
		return (l.width - lineWidth) / 2
	case AlignRight:
		return l.width - lineWidth
	default:
		return 0
	}
}
