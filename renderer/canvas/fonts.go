package canvasrenderer

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/textflow/document"
	"github.com/ByLCY/textflow/fonts"
	"github.com/ByLCY/textflow/measure"
)

const fallbackFamily = "textflow-fallback"

type fontFamilyEntry struct {
	family *canvas.FontFamily
	styles map[canvas.FontStyle]bool
}

type faceKey struct {
	family string
	style  canvas.FontStyle
	size   float64
}

// RegisterFont 把文档声明的字体加载进对应的字体族。src 加载失败时
// 依次尝试 Fallback 指定的内置字体，仍失败则返回错误。
func (r *Renderer) RegisterFont(font document.FontResource) error {
	data, err := r.loadFontBytes(font)
	if err != nil && font.Fallback != "" {
		r.logger.Warn("字体加载失败，使用后备字体", "font", font.Name, "fallback", font.Fallback, "err", err)
		data, err = fonts.Load(font.Fallback)
	}
	if err != nil {
		return err
	}

	name := font.Family
	if name == "" {
		name = font.Name
	}
	style := parseFontStyle(font.Weight, font.Style)

	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	entry, ok := r.fontFamilies[name]
	if !ok {
		entry = &fontFamilyEntry{family: canvas.NewFontFamily(name), styles: map[canvas.FontStyle]bool{}}
		r.fontFamilies[name] = entry
	}
	if entry.styles[style] {
		return nil
	}
	if err := entry.family.LoadFont(data, 0, style); err != nil {
		return fmt.Errorf("加载字体 %s 失败: %w", font.Name, err)
	}
	entry.styles[style] = true
	clear(r.faces)
	r.logger.Debug("注册字体", "font", font.Name, "family", name, "style", int(style))
	return nil
}

func (r *Renderer) loadFontBytes(font document.FontResource) ([]byte, error) {
	if font.Src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	src := font.Src
	if strings.HasPrefix(strings.ToLower(src), "embed:") {
		return fonts.Load(src)
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", font.Name, err)
	}
	return data, nil
}

// face 返回样式对应的字体面。测量用的字体面按 family/style/size 缓存，
// 带颜色的绘制字体面每次新建。调用方需持有 fontMu。
func (r *Renderer) face(st measure.Style, col color.Color) (*canvas.FontFace, error) {
	style := parseFontStyle(st.FontWeight, st.FontStyle)
	entry, resolved, err := r.familyFor(st, style)
	if err != nil {
		return nil, err
	}
	size := st.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	if col != nil {
		return entry.family.Face(size, col, resolved, canvas.FontNormal), nil
	}
	key := faceKey{family: st.FontFamily, style: style, size: size}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	f := entry.family.Face(size, color.Black, resolved, canvas.FontNormal)
	r.faces[key] = f
	return f, nil
}

// familyFor 找到已加载的字体族及其中最接近的样式；未注册的字体族落到内置 Go 字体。
func (r *Renderer) familyFor(st measure.Style, style canvas.FontStyle) (*fontFamilyEntry, canvas.FontStyle, error) {
	if entry, ok := r.fontFamilies[st.FontFamily]; ok && len(entry.styles) > 0 {
		return entry, closestStyle(entry.styles, style), nil
	}
	mono := strings.Contains(strings.ToLower(st.FontFamily), "mono")
	name := fallbackFamily
	if mono {
		name += "-mono"
	}
	entry, ok := r.fontFamilies[name]
	if !ok {
		entry = &fontFamilyEntry{family: canvas.NewFontFamily(name), styles: map[canvas.FontStyle]bool{}}
		r.fontFamilies[name] = entry
	}
	if !entry.styles[style] {
		data, err := fonts.Load(fonts.Variant(mono, isBold(style), style&canvas.FontItalic != 0))
		if err != nil {
			return nil, style, err
		}
		if err := entry.family.LoadFont(data, 0, style); err != nil {
			return nil, style, fmt.Errorf("加载后备字体失败: %w", err)
		}
		entry.styles[style] = true
	}
	return entry, style, nil
}

func closestStyle(loaded map[canvas.FontStyle]bool, want canvas.FontStyle) canvas.FontStyle {
	if loaded[want] {
		return want
	}
	weightOnly := want &^ canvas.FontItalic
	if loaded[weightOnly] {
		return weightOnly
	}
	if loaded[canvas.FontRegular|(want&canvas.FontItalic)] {
		return canvas.FontRegular | (want & canvas.FontItalic)
	}
	if loaded[canvas.FontRegular] {
		return canvas.FontRegular
	}
	var best canvas.FontStyle
	found := false
	for s := range loaded {
		if !found || s < best {
			best, found = s, true
		}
	}
	return best
}

func isBold(style canvas.FontStyle) bool {
	switch style &^ canvas.FontItalic {
	case canvas.FontSemiBold, canvas.FontBold, canvas.FontExtraBold, canvas.FontBlack:
		return true
	}
	return false
}

func parseFontStyle(weight, style string) canvas.FontStyle {
	w := strings.ToLower(weight)
	result := canvas.FontRegular
	switch w {
	case "black", "900":
		result = canvas.FontBlack
	case "extrabold", "800":
		result = canvas.FontExtraBold
	case "bold", "bolder", "700":
		result = canvas.FontBold
	case "semibold", "demibold", "600":
		result = canvas.FontSemiBold
	case "medium", "500":
		result = canvas.FontMedium
	case "light", "lighter", "300":
		result = canvas.FontLight
	}
	s := strings.ToLower(style)
	if s == "italic" || s == "oblique" {
		result |= canvas.FontItalic
	}
	return result
}
