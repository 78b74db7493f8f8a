// Package canvasrenderer 基于 github.com/tdewolff/canvas 测量文本并输出 PDF。
//
// 同一个 Renderer 同时充当 measure.Measurer 与 document.FontRegistry，
// 保证排版阶段与绘制阶段使用同一套字体度量。所有长度单位为 mm，字号为 pt。
package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/textflow/document"
	"github.com/ByLCY/textflow/layout"
	"github.com/ByLCY/textflow/measure"
	"github.com/ByLCY/textflow/renderer"
)

const defaultFontSize = 12.0

var defaultTextColor = color.RGBA{R: 30, G: 30, B: 30, A: 255}

// Renderer draws document results via github.com/tdewolff/canvas.
type Renderer struct {
	baseDir string
	logger  *slog.Logger

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry
	faces        map[faceKey]*canvas.FontFace
}

var (
	_ renderer.Renderer     = (*Renderer)(nil)
	_ measure.Measurer      = (*Renderer)(nil)
	_ document.FontRegistry = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	// BaseDir 用于解析相对路径的字体文件；为空时只允许 embed: 字体与绝对路径。
	BaseDir string
	Logger  *slog.Logger
}

// New creates a canvas-based renderer.
func New(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{
		baseDir:      opts.BaseDir,
		logger:       logger,
		fontFamilies: map[string]*fontFamilyEntry{},
		faces:        map[faceKey]*canvas.FontFace{},
	}
}

// Measure 实现 measure.Measurer：宽度为字体面的文本宽度，高度为字体行高，单位 mm。
// 字体加载失败时返回零值，并记录一条错误日志。
func (r *Renderer) Measure(text string, st measure.Style) measure.Metrics {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	face, err := r.face(st, nil)
	if err != nil {
		r.logger.Error("测量失败", "family", st.FontFamily, "err", err)
		return measure.Metrics{}
	}
	m := measure.Metrics{Height: face.Metrics().LineHeight}
	if text != "" {
		m.Width = face.TextWidth(text)
	}
	return m
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(res *document.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.RenderTo(&buf, res); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderTo 将 PDF 写入 w。
func (r *Renderer) RenderTo(w io.Writer, res *document.Result) error {
	if res == nil {
		return fmt.Errorf("渲染结果为空")
	}
	if len(res.Pages) == 0 {
		return fmt.Errorf("缺少可渲染的页面")
	}

	writer := pdf.New(w, res.Pages[0].Width, res.Pages[0].Height, nil)
	applyMeta(writer, res.Meta)
	for i, page := range res.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与排版保持左上角为原点

		if err := r.drawPage(ctx, page); err != nil {
			return fmt.Errorf("绘制第 %d 页失败: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}
	r.logger.Debug("PDF 渲染完成", "pages", len(res.Pages))
	return nil
}

func applyMeta(writer *pdf.PDF, meta document.DocumentMeta) {
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

func (r *Renderer) drawPage(ctx *canvas.Context, page document.Page) error {
	var err error
	for _, tb := range page.Texts {
		tb.Walk(func(p layout.Placement) {
			if err != nil || p.Text == "" {
				return
			}
			err = r.drawSpan(ctx, p)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// drawSpan 把 span 底部对齐到行底：基线 = 行顶 + (行高 - span 高) + 上升部。
func (r *Renderer) drawSpan(ctx *canvas.Context, p layout.Placement) error {
	col := spanColor(p.Style.Color)
	r.fontMu.Lock()
	face, err := r.face(p.Style, col)
	r.fontMu.Unlock()
	if err != nil {
		return err
	}
	metrics := face.Metrics()
	baseline := p.Y + (p.LineHeight - p.SpanHeight) + metrics.Ascent
	ctx.DrawText(p.X, baseline, canvas.NewTextLine(face, p.Text, canvas.Left))

	var offset float64
	switch p.Style.TextDecoration {
	case "underline":
		offset = metrics.Ascent * 0.12
	case "line-through", "strikethrough":
		offset = -metrics.Ascent * 0.3
	default:
		return nil
	}
	size := p.Style.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	ctx.SetStrokeColor(col)
	ctx.SetStrokeWidth(size * document.PtToMm / 16)
	path := &canvas.Path{}
	path.MoveTo(0, 0)
	path.LineTo(p.Width, 0)
	ctx.DrawPath(p.X, baseline+offset, path)
	return nil
}

func spanColor(hex string) color.Color {
	if hex == "" {
		return defaultTextColor
	}
	return canvas.Hex(hex)
}
