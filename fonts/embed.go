// Package fonts 提供内置的 Go 字体族，文档中以 embed:<name> 引用。
package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

var embedded = map[string][]byte{
	"goregular":        goregular.TTF,
	"gobold":           gobold.TTF,
	"goitalic":         goitalic.TTF,
	"gobolditalic":     gobolditalic.TTF,
	"gomedium":         gomedium.TTF,
	"gomono":           gomono.TTF,
	"gomonobold":       gomonobold.TTF,
	"gomonoitalic":     gomonoitalic.TTF,
	"gomonobolditalic": gomonobolditalic.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:goregular" 或直接 "goregular"。
func Load(name string) ([]byte, error) {
	key := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "embed:")
	data, ok := embedded[key]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", name)
	}
	return data, nil
}

// Names 返回全部内置字体名，已排序。
func Names() []string {
	out := make([]string, 0, len(embedded))
	for name := range embedded {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Variant 返回与字重、斜体匹配的内置字体名；mono 选择等宽系列。
func Variant(mono, bold, italic bool) string {
	name := "go"
	if mono {
		name = "gomono"
	}
	switch {
	case bold && italic:
		name += "bolditalic"
	case bold:
		name += "bold"
	case italic:
		name += "italic"
	case !mono:
		name += "regular"
	}
	return name
}
