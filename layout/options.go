package layout

import "math"

// Options 配置一次排版。指针字段为 nil 表示未设置。
type Options struct {
	// Width 为必填的行宽，单位与测量后端一致。
	Width *float64
	// MaxLines 限制最大行数。
	MaxLines *int
	// Height 限制总高度，与 MaxLines 取更严格者。
	Height *float64
	// UseThreeDots 为 nil 时视为 true：内容被截断时在最后一行末尾加 "..."。
	UseThreeDots *bool
	// ExactLineWidths 为 true 时对每行去掉尾随空白后重新测量宽度；
	// 否则行宽取各单词测量宽度之和（扣除尾随空格），不考虑跨词的字距。
	ExactLineWidths bool
	// PreserveBlankLines 为 true 时，两个相邻强制换行之间输出一个空行。
	// 截断恰好停在空行上时，省略号单独占据这一行。
	PreserveBlankLines bool
}

// Ptr returns a pointer to v, for filling optional fields of Options.
func Ptr[T any](v T) *T { return &v }

// resolved 是校验后的选项。
type resolved struct {
	width     float64
	maxLines  int // < 0 表示不限
	height    float64
	hasHeight bool
	dots      bool
	exact     bool
	keepBlank bool
}

func (o Options) resolve() (resolved, error) {
	if o.Width == nil {
		return resolved{}, &ConfigurationError{Option: "width", Reason: "缺失"}
	}
	if math.IsNaN(*o.Width) || math.IsInf(*o.Width, 0) {
		return resolved{}, &ConfigurationError{Option: "width", Reason: "必须是有限数值"}
	}
	r := resolved{
		width:     *o.Width,
		maxLines:  -1,
		dots:      o.UseThreeDots == nil || *o.UseThreeDots,
		exact:     o.ExactLineWidths,
		keepBlank: o.PreserveBlankLines,
	}
	if o.MaxLines != nil {
		if *o.MaxLines < 0 {
			return resolved{}, &ConfigurationError{Option: "maxLines", Reason: "不能为负数"}
		}
		r.maxLines = *o.MaxLines
	}
	if o.Height != nil {
		if math.IsNaN(*o.Height) {
			return resolved{}, &ConfigurationError{Option: "height", Reason: "不能为 NaN"}
		}
		r.height = *o.Height
		r.hasHeight = true
	}
	return r, nil
}

// FlowOption configures a Flow at construction.
type FlowOption func(*Flow)

// WithSpaceCorrection 设置空格宽度修正值，默认 measure.DefaultSpaceCorrection。
func WithSpaceCorrection(px float64) FlowOption {
	return func(f *Flow) { f.correction = px }
}
