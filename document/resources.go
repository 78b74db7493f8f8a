package document

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ByLCY/textflow/dsl"
)

var defaultColor = Color{R: 30, G: 30, B: 30}

// defaultFonts 在文档没有声明任何字体时使用，全部来自内置的 Go 字体。
var defaultFonts = []FontResource{
	{Name: "Body", Src: "embed:goregular", Family: "Body"},
	{Name: "BodyBold", Src: "embed:gobold", Family: "Body", Weight: "bold"},
	{Name: "BodyItalic", Src: "embed:goitalic", Family: "Body", Style: "italic"},
	{Name: "BodyBoldItalic", Src: "embed:gobolditalic", Family: "Body", Weight: "bold", Style: "italic"},
	{Name: "Mono", Src: "embed:gomono", Family: "Mono"},
	{Name: "MonoBold", Src: "embed:gomonobold", Family: "Mono", Weight: "bold"},
}

func collectResources(doc *dsl.Document) (ResourceSet, error) {
	res := ResourceSet{
		Fonts:  map[string]FontResource{},
		Colors: map[string]Color{},
		Styles: map[string]Style{},
	}
	rawStyles := map[string]Style{}

	for _, section := range doc.Resources() {
		if section.Block == nil {
			continue
		}
		for _, stmt := range section.Block.Statements {
			if stmt.Command == nil {
				continue
			}
			cmd := stmt.Command
			switch cmd.Name {
			case "font":
				font := parseFontResource(cmd)
				if font.Name == "" {
					return res, fmt.Errorf("第 %d 行: font 缺少名称", cmd.Pos.Line)
				}
				res.Fonts[font.Name] = font
			case "color":
				name, value := parseColorResource(cmd)
				if name == "" || value == "" {
					return res, fmt.Errorf("第 %d 行: color 声明不完整", cmd.Pos.Line)
				}
				c, err := parseColor(value)
				if err != nil {
					return res, fmt.Errorf("第 %d 行: %w", cmd.Pos.Line, err)
				}
				res.Colors[name] = c
			case "style":
				style := parseStyleResource(cmd)
				if style.Name != "" {
					rawStyles[style.Name] = style
				}
			}
		}
	}

	if len(res.Fonts) == 0 {
		for _, f := range defaultFonts {
			res.Fonts[f.Name] = f
		}
	}

	resolvedStyles, err := resolveStyles(rawStyles)
	if err != nil {
		return res, err
	}
	res.Styles = resolvedStyles
	return res, nil
}

func collectMeta(doc *dsl.Document) DocumentMeta {
	meta := DocumentMeta{
		Creator: "textflow",
	}
	section := doc.Meta()
	if section == nil || section.Block == nil {
		return meta
	}
	for _, stmt := range section.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		val := stmt.Assignment.Value
		switch strings.ToLower(stmt.Assignment.Key) {
		case "title":
			meta.Title = val.Raw()
		case "author":
			meta.Author = val.Raw()
		case "subject":
			meta.Subject = val.Raw()
		case "creator":
			meta.Creator = val.Raw()
		case "keywords":
			meta.Keywords = valueToStringSlice(val)
		}
	}
	return meta
}

func parseFontResource(cmd *dsl.Command) FontResource {
	if len(cmd.Args) == 0 {
		return FontResource{}
	}
	font := FontResource{
		Name:   cmd.Args[0].Value,
		Family: cmd.Args[0].Value,
	}
	if cmd.Block == nil {
		return font
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		val := stmt.Assignment.Value.Raw()
		switch stmt.Assignment.Key {
		case "src":
			font.Src = val
		case "family":
			font.Family = val
		case "weight":
			font.Weight = strings.ToLower(val)
		case "style":
			font.Style = strings.ToLower(val)
		case "fallback":
			font.Fallback = val
		}
	}
	return font
}

func parseStyleResource(cmd *dsl.Command) Style {
	if len(cmd.Args) == 0 {
		return Style{}
	}
	style := Style{
		Name:  cmd.Args[0].Value,
		Props: map[string]string{},
	}
	if len(cmd.Args) >= 3 && strings.EqualFold(cmd.Args[1].Value, "extends") {
		style.Extends = cmd.Args[2].Value
	}
	if cmd.Block == nil {
		return style
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		if val := stmt.Assignment.Value.Raw(); val != "" {
			style.Props[stmt.Assignment.Key] = val
		}
	}
	return style
}

// resolveStyles 展开 extends 链，子样式覆盖父样式的同名属性。
func resolveStyles(styles map[string]Style) (map[string]Style, error) {
	resolved := map[string]Style{}
	visiting := map[string]bool{}

	var dfs func(name string) (Style, error)
	dfs = func(name string) (Style, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		style, ok := styles[name]
		if !ok {
			return Style{}, fmt.Errorf("style %s 未定义", name)
		}
		if visiting[name] {
			return Style{}, fmt.Errorf("style 继承存在循环：%s", name)
		}
		visiting[name] = true

		props := map[string]string{}
		if style.Extends != "" {
			parent, err := dfs(style.Extends)
			if err != nil {
				return Style{}, err
			}
			for k, v := range parent.Props {
				props[k] = v
			}
		}
		for k, v := range style.Props {
			props[k] = v
		}
		style.Props = props
		resolved[name] = style
		delete(visiting, name)
		return style, nil
	}

	names := make([]string, 0, len(styles))
	for name := range styles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func parseColorResource(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) == 0 {
		return "", ""
	}
	name := cmd.Args[0].Value
	value := ""
	if len(cmd.Args) > 1 {
		value = cmd.Args[len(cmd.Args)-1].Value
	}
	return name, value
}

func resolveColor(value string, res ResourceSet) (Color, error) {
	if value == "" {
		return defaultColor, nil
	}
	if c, ok := res.Colors[value]; ok {
		return c, nil
	}
	if strings.HasPrefix(value, "#") {
		return parseColor(value)
	}
	return Color{}, fmt.Errorf("颜色 %s 未定义", value)
}

func parseColor(value string) (Color, error) {
	hex := strings.TrimPrefix(value, "#")
	switch len(hex) {
	case 3:
		hex = strings.Repeat(hex[0:1], 2) + strings.Repeat(hex[1:2], 2) + strings.Repeat(hex[2:3], 2)
	case 6, 8:
		hex = hex[:6]
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := item.Raw(); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := val.Raw(); s != "" {
		return []string{s}
	}
	return nil
}
