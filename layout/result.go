package layout

import (
	"encoding/json"
	"strings"

	"github.com/ByLCY/textflow/measure"
)

// Span 是一行中同一样式的一段文本。
type Span struct {
	Text   string        `json:"text"`
	Style  measure.Style `json:"style"`
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
}

// Line 是一行排版结果，Height 为其中最高的 span。
type Line struct {
	Spans  []Span  `json:"spans"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Text 返回行内所有 span 拼接后的文本。
func (l Line) Text() string {
	var b strings.Builder
	for _, sp := range l.Spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}

// Layout 是一次折行的结果，构造后不可变。
type Layout struct {
	lines       []Line
	width       float64
	height      float64
	hasHeight   bool
	totalHeight float64
	truncated   bool
}

// Lines 返回行的副本。
func (l *Layout) Lines() []Line {
	out := make([]Line, len(l.lines))
	for i, ln := range l.lines {
		ln.Spans = append([]Span(nil), ln.Spans...)
		out[i] = ln
	}
	return out
}

// Len 返回行数。
func (l *Layout) Len() int { return len(l.lines) }

func (l *Layout) Width() float64 { return l.width }

// Height 返回请求的高度上限，未设置时 ok 为 false。
func (l *Layout) Height() (h float64, ok bool) { return l.height, l.hasHeight }

func (l *Layout) TotalHeight() float64 { return l.totalHeight }

// Truncated 报告是否有内容因行数或高度上限而未排入。
func (l *Layout) Truncated() bool { return l.truncated }

// MaxLineWidth 返回最宽一行的宽度。
func (l *Layout) MaxLineWidth() float64 {
	w := 0.0
	for _, ln := range l.lines {
		if ln.Width > w {
			w = ln.Width
		}
	}
	return w
}

// Text 返回各行文本，以换行符连接。
func (l *Layout) Text() string {
	parts := make([]string, len(l.lines))
	for i, ln := range l.lines {
		parts[i] = ln.Text()
	}
	return strings.Join(parts, "\n")
}

type layoutJSON struct {
	Lines       []Line   `json:"lines"`
	Width       float64  `json:"width"`
	Height      *float64 `json:"height,omitempty"`
	TotalHeight float64  `json:"totalHeight"`
	Truncated   bool     `json:"truncated"`
}

func (l *Layout) MarshalJSON() ([]byte, error) {
	v := layoutJSON{
		Lines:       l.lines,
		Width:       l.width,
		TotalHeight: l.totalHeight,
		Truncated:   l.truncated,
	}
	if v.Lines == nil {
		v.Lines = []Line{}
	}
	if l.hasHeight {
		h := l.height
		v.Height = &h
	}
	return json.Marshal(v)
}
