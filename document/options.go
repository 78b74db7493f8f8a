package document

import (
	"log/slog"

	"github.com/ByLCY/textflow/measure"
)

// BuildOptions 配置排版阶段所需的依赖。
type BuildOptions struct {
	// Measurer 为必填的测量后端；未包在 measure.Cache 中时 Build 会自动加一层缓存。
	Measurer measure.Measurer
	// Fonts 非空时，文档声明的每个字体都会先注册到这里。
	Fonts FontRegistry
	// DefaultStyle 补齐文档样式未设置的字段。
	DefaultStyle measure.Style
	// SpaceCorrection 为空时使用 measure.DefaultSpaceCorrection。
	SpaceCorrection *float64
	Logger          *slog.Logger
}

func (o BuildOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (o BuildOptions) correction() float64 {
	if o.SpaceCorrection != nil {
		return *o.SpaceCorrection
	}
	return measure.DefaultSpaceCorrection
}

func (o BuildOptions) measurer() measure.Measurer {
	if c, ok := o.Measurer.(*measure.Cache); ok {
		return c
	}
	return measure.NewCache(o.Measurer)
}
