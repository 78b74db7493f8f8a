package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ByLCY/textflow/layout"
)

// hAlignValue 是 --align 的取值，解析时即校验。
type hAlignValue struct {
	set   bool
	align layout.HAlign
}

var _ pflag.Value = (*hAlignValue)(nil)

func (v *hAlignValue) String() string {
	if !v.set {
		return ""
	}
	return string(v.align)
}

func (v *hAlignValue) Set(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "start", "center", "middle", "right", "end":
	default:
		return fmt.Errorf("不支持的水平对齐 %q", s)
	}
	v.align = layout.ParseHAlign(s)
	v.set = true
	return nil
}

func (v *hAlignValue) Type() string { return "align" }

// vAlignValue 是 --valign 的取值。
type vAlignValue struct {
	align layout.VAlign
}

var _ pflag.Value = (*vAlignValue)(nil)

func (v *vAlignValue) String() string { return string(v.align) }

func (v *vAlignValue) Set(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top", "start", "middle", "center", "bottom", "end":
	default:
		return fmt.Errorf("不支持的垂直对齐 %q", s)
	}
	v.align = layout.ParseVAlign(s)
	return nil
}

func (v *vAlignValue) Type() string { return "valign" }
