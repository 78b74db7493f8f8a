package document

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/textflow/binding"
	"github.com/ByLCY/textflow/dsl"
	"github.com/ByLCY/textflow/layout"
	"github.com/ByLCY/textflow/measure"
)

const (
	blockSpacing    = 3.0  // 相邻流式文本框之间的间距（mm）
	defaultFontSize = 12.0 // pt
)

// Build 根据 DSL AST 生成页面与文本框。各文本框的折行彼此独立，因此并发计算，
// 随后按声明顺序定位并在内容区放不下时分页。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Measurer == nil {
		return nil, fmt.Errorf("document: 缺少测量后端 Measurer")
	}
	logger := opts.logger()

	res, err := collectResources(doc)
	if err != nil {
		return nil, err
	}
	if opts.Fonts != nil {
		if err := registerFonts(opts.Fonts, res.Fonts); err != nil {
			return nil, err
		}
	}
	meta := collectMeta(doc)

	page := doc.Page()
	if page == nil {
		return nil, fmt.Errorf("文档中缺少 page 段落")
	}
	if page.Block == nil {
		return nil, fmt.Errorf("page 段落缺少内容")
	}
	width, height, err := resolvePageSize(page.Spec)
	if err != nil {
		return nil, err
	}
	margin, err := resolveMargin(page.Spec.Params)
	if err != nil {
		return nil, err
	}

	b := &builder{
		res:          res,
		data:         data,
		measurer:     opts.measurer(),
		correction:   opts.correction(),
		logger:       logger,
		contentWidth: width - margin.Left - margin.Right,
	}
	b.defaults = opts.DefaultStyle.Inherit(measure.Style{
		FontFamily: defaultFamily(res.Fonts),
		FontSize:   defaultFontSize,
		Color:      defaultColor.Hex(),
	})

	jobs, err := b.collectTexts(page.Block)
	if err != nil {
		return nil, err
	}
	if err := b.layoutAll(jobs); err != nil {
		return nil, err
	}
	pages := b.place(jobs, width, height, margin)

	logger.Info("文档排版完成", "pages", len(pages), "texts", len(jobs))
	return &Result{
		Pages:     pages,
		Resources: res,
		Meta:      meta,
	}, nil
}

type builder struct {
	res          ResourceSet
	data         any
	measurer     measure.Measurer
	correction   float64
	logger       *slog.Logger
	defaults     measure.Style
	contentWidth float64
}

// textJob 是一个待排版的 text 语句。
type textJob struct {
	line   int
	name   string
	runs   []layout.StyledRun
	opts   layout.Options
	x, y   *float64
	width  float64
	align  layout.HAlign
	valign layout.VAlign
	result *layout.Layout
}

func (b *builder) collectTexts(block *dsl.Block) ([]*textJob, error) {
	var jobs []*textJob
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		cmd := stmt.Command
		if cmd.Name != "text" {
			b.logger.Warn("忽略不支持的命令", "name", cmd.Name, "line", cmd.Pos.Line)
			continue
		}
		job, err := b.parseText(cmd)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", cmd.Pos.Line, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (b *builder) parseText(cmd *dsl.Command) (*textJob, error) {
	if cmd.Block == nil {
		return nil, fmt.Errorf("text 语句缺少文本块")
	}
	styleName, attrs := parseArgs(cmd.Args)
	attrs = mergeStyleAttributes(styleName, attrs, b.res.Styles)
	base, err := b.styleFor(styleName, attrs)
	if err != nil {
		return nil, err
	}
	base = base.Inherit(b.defaults)

	job := &textJob{
		line:   cmd.Pos.Line,
		name:   styleName,
		align:  layout.ParseHAlign(attrs["align"]),
		valign: layout.ParseVAlign(attrs["valign"]),
	}

	hasText := false
	for _, st := range cmd.Block.Statements {
		switch {
		case st.Text != nil:
			text := binding.Interpolate(string(st.Text.Value), b.data)
			job.runs = append(job.runs, layout.StyledRun{Text: text, Style: base})
			hasText = hasText || text != ""
		case st.Command != nil && st.Command.Name == "run":
			runName, runAttrs := parseArgs(st.Command.Args)
			runAttrs = mergeStyleAttributes(runName, runAttrs, b.res.Styles)
			style, err := b.styleFor(runName, runAttrs)
			if err != nil {
				return nil, fmt.Errorf("run: %w", err)
			}
			text := binding.Interpolate(st.Command.Text(), b.data)
			job.runs = append(job.runs, layout.StyledRun{Text: text, Style: style.Inherit(base)})
			hasText = hasText || text != ""
		case st.Command != nil:
			b.logger.Warn("text 中忽略不支持的命令", "name", st.Command.Name, "line", st.Command.Pos.Line)
		}
	}
	if !hasText {
		return nil, fmt.Errorf("text 语句缺少文本内容")
	}

	if err := b.applyGeometry(job, attrs); err != nil {
		return nil, err
	}
	if err := applyLayoutOptions(&job.opts, attrs); err != nil {
		return nil, err
	}
	job.opts.Width = layout.Ptr(job.width)
	return job, nil
}

// styleFor 把样式属性翻译为测量样式，只填写显式出现的字段。
// name 可以是 style 名称，也可以直接是字体资源名。
func (b *builder) styleFor(name string, attrs map[string]string) (measure.Style, error) {
	var st measure.Style
	fontName := attrs["font"]
	if fontName == "" {
		if _, ok := b.res.Fonts[name]; ok {
			fontName = name
		} else if _, ok := b.res.Styles[name]; name != "" && !ok {
			return st, fmt.Errorf("style %s 未定义", name)
		}
	}
	if fontName != "" {
		font, ok := b.res.Fonts[fontName]
		if !ok {
			return st, fmt.Errorf("字体 %s 未定义", fontName)
		}
		st.FontFamily = font.Family
		st.FontWeight = font.Weight
		st.FontStyle = font.Style
	}
	if v := attrs["size"]; v != "" {
		l, err := ParseLength(v)
		if err != nil || l.PT() <= 0 {
			return st, fmt.Errorf("字号 %q 无效", v)
		}
		st.FontSize = l.PT()
	}
	if v := attrs["weight"]; v != "" {
		st.FontWeight = strings.ToLower(v)
	}
	if v := attrs["style"]; v != "" {
		st.FontStyle = strings.ToLower(v)
	}
	if v := attrs["decoration"]; v != "" {
		st.TextDecoration = strings.ToLower(v)
	}
	if v := attrs["color"]; v != "" {
		c, err := resolveColor(v, b.res)
		if err != nil {
			return st, err
		}
		st.Color = c.Hex()
	}
	return st, nil
}

func (b *builder) applyGeometry(job *textJob, attrs map[string]string) error {
	for _, key := range []string{"x", "y"} {
		v := attrs[key]
		if v == "" {
			continue
		}
		l, err := ParseLength(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		mm := l.MM(b.contentWidth)
		if key == "x" {
			job.x = &mm
		} else {
			job.y = &mm
		}
	}
	job.width = b.contentWidth
	if job.x != nil {
		job.width -= *job.x
	}
	if v := attrs["width"]; v != "" {
		l, err := ParseLength(v)
		if err != nil {
			return fmt.Errorf("width: %w", err)
		}
		job.width = l.MM(b.contentWidth)
		if job.width > b.contentWidth {
			b.logger.Warn("文本框宽度超出内容区", "line", job.line, "width", job.width, "content", b.contentWidth)
		}
	}
	if v := attrs["height"]; v != "" {
		l, err := ParseLength(v)
		if err != nil {
			return fmt.Errorf("height: %w", err)
		}
		job.opts.Height = layout.Ptr(l.MM(0))
	}
	return nil
}

func applyLayoutOptions(opts *layout.Options, attrs map[string]string) error {
	if v := attrs["max-lines"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("max-lines %q 无效", v)
		}
		opts.MaxLines = layout.Ptr(n)
	}
	if v := attrs["ellipsis"]; v != "" {
		on, err := parseSwitch(v)
		if err != nil {
			return fmt.Errorf("ellipsis: %w", err)
		}
		opts.UseThreeDots = layout.Ptr(on)
	}
	if v := attrs["exact"]; v != "" {
		on, err := parseSwitch(v)
		if err != nil {
			return fmt.Errorf("exact: %w", err)
		}
		opts.ExactLineWidths = on
	}
	switch v := strings.ToLower(attrs["blank-lines"]); v {
	case "", "drop":
	case "keep":
		opts.PreserveBlankLines = true
	default:
		return fmt.Errorf("blank-lines 只能是 keep 或 drop，实际 %q", v)
	}
	return nil
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	default:
		return false, fmt.Errorf("开关值 %q 无效", v)
	}
}

// layoutAll 并发计算所有文本框的折行，共享同一个测量缓存。
func (b *builder) layoutAll(jobs []*textJob) error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, job := range jobs {
		g.Go(func() error {
			flow, err := layout.NewFlow(job.runs, b.defaults, b.measurer, layout.WithSpaceCorrection(b.correction))
			if err != nil {
				return fmt.Errorf("第 %d 行: %w", job.line, err)
			}
			l, err := flow.Layout(job.opts)
			if err != nil {
				return fmt.Errorf("第 %d 行: %w", job.line, err)
			}
			job.result = l
			b.logger.Debug("文本框排版", "line", job.line, "lines", l.Len(), "truncated", l.Truncated())
			return nil
		})
	}
	return g.Wait()
}

// place 按声明顺序定位文本框。声明了 y 的文本框绝对定位，不推进游标；
// 其余文本框自上而下堆叠，放不下时换页。
func (b *builder) place(jobs []*textJob, width, height float64, margin Margin) []Page {
	pc := newPageCollector(width, height, margin)
	cursor := pc.contentTop()
	for _, job := range jobs {
		boxHeight := job.result.TotalHeight()
		if h, ok := job.result.Height(); ok {
			boxHeight = max(h, 0)
		}
		tb := TextBox{
			Name:   job.name,
			X:      margin.Left,
			Width:  job.width,
			Height: boxHeight,
			Align:  job.align,
			VAlign: job.valign,
			Layout: job.result,
		}
		if job.x != nil {
			tb.X += *job.x
		}
		if job.y != nil {
			tb.Y = pc.contentTop() + *job.y
			pc.curr().appendText(tb)
			continue
		}
		if cursor+boxHeight > pc.contentBottom() && cursor > pc.contentTop() {
			pc.newPage()
			cursor = pc.contentTop()
			b.logger.Debug("分页", "page", len(pc.accs), "line", job.line)
		}
		tb.Y = cursor
		pc.curr().appendText(tb)
		cursor += boxHeight + blockSpacing
	}
	return pc.pages()
}

type pageAccumulator struct {
	texts []TextBox
}

func (p *pageAccumulator) appendText(tb TextBox) {
	p.texts = append(p.texts, tb)
}

type pageCollector struct {
	width   float64
	height  float64
	margin  Margin
	accs    []*pageAccumulator
	current int
}

func newPageCollector(width, height float64, margin Margin) *pageCollector {
	pc := &pageCollector{
		width:  width,
		height: height,
		margin: margin,
	}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *pageAccumulator {
	acc := &pageAccumulator{}
	pc.accs = append(pc.accs, acc)
	pc.current = len(pc.accs) - 1
	return acc
}

func (pc *pageCollector) curr() *pageAccumulator {
	return pc.accs[pc.current]
}

func (pc *pageCollector) contentTop() float64 {
	return pc.margin.Top
}

func (pc *pageCollector) contentBottom() float64 {
	return pc.height - pc.margin.Bottom
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Width:  pc.width,
			Height: pc.height,
			Margin: pc.margin,
			Texts:  acc.texts,
		}
	}
	return out
}

func registerFonts(reg FontRegistry, fonts map[string]FontResource) error {
	names := make([]string, 0, len(fonts))
	for name := range fonts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := reg.RegisterFont(fonts[name]); err != nil {
			return fmt.Errorf("注册字体 %s 失败: %w", name, err)
		}
	}
	return nil
}

// defaultFamily 优先使用名为 Body 的字体，否则取名称排序后的第一个。
func defaultFamily(fonts map[string]FontResource) string {
	if f, ok := fonts["Body"]; ok {
		return f.Family
	}
	names := make([]string, 0, len(fonts))
	for name := range fonts {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return fonts[names[0]].Family
}

var pagePresets = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

func resolvePageSize(spec dsl.PageSpec) (float64, float64, error) {
	base, ok := pagePresets[strings.ToUpper(spec.Size)]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", spec.Size)
	}
	width, height := base[0], base[1]
	for _, token := range spec.Params {
		if token.Value == "landscape" {
			width, height = height, width
		}
	}
	return width, height, nil
}

// resolveMargin 解析 margin 后的 1~4 个长度，语义与 CSS 相同；默认四边 20mm。
func resolveMargin(params []*dsl.Lexeme) (Margin, error) {
	margin := Margin{Top: 20, Right: 20, Bottom: 20, Left: 20}
	for i := 0; i < len(params); i++ {
		if params[i].Value != "margin" {
			continue
		}
		var vals []float64
		for j := i + 1; j < len(params) && len(vals) < 4; j++ {
			if params[j].Type != "Number" {
				break
			}
			l, err := ParseLength(params[j].Value)
			if err != nil {
				return margin, fmt.Errorf("margin: %w", err)
			}
			vals = append(vals, l.MM(0))
		}
		switch len(vals) {
		case 0:
			return margin, fmt.Errorf("margin 缺少取值")
		case 1:
			v := vals[0]
			margin = Margin{Top: v, Right: v, Bottom: v, Left: v}
		case 2:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
		case 3:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}
		case 4:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
		}
	}
	return margin, nil
}

// parseArgs 解析 `Name key value ...` 形式的参数；参数个数为奇数时第一个是样式名。
func parseArgs(args []*dsl.Lexeme) (string, map[string]string) {
	result := map[string]string{}
	cursor := 0
	var style string
	if len(args)%2 == 1 && args[0].Type == "Ident" {
		style = args[0].Value
		cursor = 1
	}
	for cursor < len(args)-1 {
		result[args[cursor].Value] = args[cursor+1].Value
		cursor += 2
	}
	return style, result
}

func mergeStyleAttributes(style string, inline map[string]string, styles map[string]Style) map[string]string {
	out := make(map[string]string)
	if s, ok := styles[style]; ok {
		for k, v := range s.Props {
			out[k] = v
		}
	}
	for k, v := range inline {
		out[k] = v
	}
	return out
}
