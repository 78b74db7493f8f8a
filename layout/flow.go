// Package layout 实现贪心的段落折行与排版：把一个或多个带样式的文本 run
// 按给定宽度（可选行数/高度上限与省略号截断）折成行，得到与绘制后端无关的 Layout。
//
// 文本测量通过 measure.Measurer 注入，绘制通过 Layout.Render 的回调完成。
package layout

import (
	"github.com/ByLCY/textflow/measure"
)

// StyledRun 是共享同一样式的一段连续文本。
type StyledRun struct {
	Text  string        `json:"text"`
	Style measure.Style `json:"style"`
}

// Flow 是一段固定样式文本的可复用排版源。构造时完成分词与测量，之后只读，
// 因此同一个 Flow 可以用不同选项多次（或并发）调用 Layout。
type Flow struct {
	measurer   measure.Measurer
	correction float64
	runs       []*runModel
}

// NewFlow 用有序的 runs 构建 Flow；单个 run 即纯文本的情形。
// run 中未设置的样式字段由 defaultStyle 补齐。
func NewFlow(runs []StyledRun, defaultStyle measure.Style, m measure.Measurer, opts ...FlowOption) (*Flow, error) {
	if m == nil {
		return nil, &ConfigurationError{Option: "measurer", Reason: "缺失"}
	}
	f := &Flow{measurer: m, correction: measure.DefaultSpaceCorrection}
	for _, opt := range opts {
		opt(f)
	}
	for _, run := range runs {
		run.Style = run.Style.Inherit(defaultStyle)
		f.runs = append(f.runs, buildRun(run, m, f.correction))
	}
	return f, nil
}

// Layout 按 opts 计算一次折行结果。除 width 缺失等配置错误外不会返回错误：
// 非正宽度、负高度或 maxLines 为 0 都得到零行的 Layout。
func (f *Flow) Layout(opts Options) (*Layout, error) {
	r, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	c := newCompositor(f, r)
	c.run()
	return c.result(), nil
}

// LineHeight 返回第一个 run 的行高，没有 run 时为 0。
func (f *Flow) LineHeight() float64 {
	if len(f.runs) == 0 {
		return 0
	}
	return f.runs[0].lineHeight
}
