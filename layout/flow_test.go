package layout

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/textflow/measure"
)

// mono 以等宽方式模拟测量：每个 rune 宽 fontSize/2，行高 fontSize*1.2。
type mono struct{}

func (mono) Measure(text string, s measure.Style) measure.Metrics {
	size := s.FontSize
	if size <= 0 {
		size = 10
	}
	return measure.Metrics{Width: float64(utf8.RuneCountInString(text)) * size / 2, Height: size * 1.2}
}

// kerned 让相邻字符之间各收紧 1，整串测量比逐词相加更窄。
type kerned struct{}

func (kerned) Measure(text string, s measure.Style) measure.Metrics {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return measure.Metrics{Height: 12}
	}
	return measure.Metrics{Width: float64(4*n + 1), Height: 12}
}

// wide 中 "M" 宽 9，其余 rune 宽 1，行高 10。
type wide struct{}

func (wide) Measure(text string, _ measure.Style) measure.Metrics {
	w := 0.0
	for _, r := range text {
		if r == 'M' {
			w += 9
		} else {
			w++
		}
	}
	return measure.Metrics{Width: w, Height: 10}
}

const sample = "Hello kqjsd jsdq sdjklqsjd qksjd qksdjqksjd qkjdqklsdjqklsdj qldj zzz"

func newFlow(t *testing.T, text string) *Flow {
	t.Helper()
	f, err := NewFlow([]StyledRun{{Text: text}}, measure.Style{FontSize: 10}, mono{}, WithSpaceCorrection(0))
	if err != nil {
		t.Fatalf("创建 Flow 失败: %v", err)
	}
	return f
}

func layoutOf(t *testing.T, f *Flow, opts Options) *Layout {
	t.Helper()
	l, err := f.Layout(opts)
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	return l
}

func texts(l *Layout) []string {
	var out []string
	for _, ln := range l.Lines() {
		out = append(out, ln.Text())
	}
	return out
}

func TestLayoutMaxLinesWithEllipsis(t *testing.T) {
	l := layoutOf(t, newFlow(t, sample), Options{Width: Ptr(50.0), MaxLines: Ptr(2)})
	want := []string{"Hello", "kqjsd j..."}
	if diff := cmp.Diff(want, texts(l)); diff != "" {
		t.Fatalf("行文本不符 (-want +got):\n%s", diff)
	}
	if !l.Truncated() {
		t.Fatalf("应标记为截断")
	}
	for i, ln := range l.Lines() {
		if ln.Width > 50 {
			t.Fatalf("第 %d 行宽度 %.2f 超出 50", i, ln.Width)
		}
	}
}

func TestLayoutMaxLinesWithoutEllipsis(t *testing.T) {
	l := layoutOf(t, newFlow(t, sample), Options{Width: Ptr(50.0), MaxLines: Ptr(2), UseThreeDots: Ptr(false)})
	want := []string{"Hello", "kqjsd jsdq"}
	if diff := cmp.Diff(want, texts(l)); diff != "" {
		t.Fatalf("行文本不符 (-want +got):\n%s", diff)
	}
	if strings.HasSuffix(texts(l)[1], "...") {
		t.Fatalf("关闭省略号后不应以 ... 结尾")
	}
}

func TestLayoutUnboundedWrapsEveryWord(t *testing.T) {
	l := layoutOf(t, newFlow(t, sample), Options{Width: Ptr(50.0)})
	want := []string{
		"Hello",
		"kqjsd jsdq",
		"sdjklqsjd",
		"qksjd",
		"qksdjqksjd",
		"qkjdqklsdj",
		"qklsdj",
		"qldj zzz",
	}
	if diff := cmp.Diff(want, texts(l)); diff != "" {
		t.Fatalf("行文本不符 (-want +got):\n%s", diff)
	}
	if l.Truncated() {
		t.Fatalf("未设上限时不应截断")
	}
	if l.TotalHeight() != 12*8 {
		t.Fatalf("总高度应为 96，实际 %.2f", l.TotalHeight())
	}
}

func TestLayoutTinyWidthYieldsNoLines(t *testing.T) {
	l := layoutOf(t, newFlow(t, sample), Options{Width: Ptr(1.0)})
	if l.Len() != 0 {
		t.Fatalf("宽度小于任何字形时应为零行，实际 %v", texts(l))
	}
}

func TestLayoutNonPositiveBoundsYieldNoLines(t *testing.T) {
	f := newFlow(t, sample)
	cases := []Options{
		{Width: Ptr(1000.0), Height: Ptr(-500.0)},
		{Width: Ptr(-500.0), Height: Ptr(200.0)},
		{Width: Ptr(0.0)},
		{Width: Ptr(1000.0), MaxLines: Ptr(0)},
	}
	for i, opts := range cases {
		if l := layoutOf(t, f, opts); l.Len() != 0 {
			t.Errorf("用例 %d 应为零行，实际 %v", i, texts(l))
		}
	}
}

func TestLayoutNoSpuriousEllipsis(t *testing.T) {
	l := layoutOf(t, newFlow(t, "Hey !"), Options{Width: Ptr(1000.0), MaxLines: Ptr(1)})
	if diff := cmp.Diff([]string{"Hey !"}, texts(l)); diff != "" {
		t.Fatalf("行文本不符 (-want +got):\n%s", diff)
	}
	if l.Truncated() {
		t.Fatalf("内容已全部放下，不应截断")
	}
}

func TestLayoutHeightFloorSemantics(t *testing.T) {
	f := newFlow(t, sample)
	lh := f.LineHeight()
	for _, h := range []float64{lh*3 + 1, lh*4 - 1, lh * 3} {
		l := layoutOf(t, f, Options{Width: Ptr(50.0), Height: Ptr(h), UseThreeDots: Ptr(false)})
		if l.Len() != 3 {
			t.Errorf("高度 %.1f 应得到 3 行，实际 %d", h, l.Len())
		}
		if l.TotalHeight() > h {
			t.Errorf("总高度 %.1f 超出上限 %.1f", l.TotalHeight(), h)
		}
		if !l.Truncated() {
			t.Errorf("高度 %.1f 时应标记为截断", h)
		}
	}
}

func TestLayoutStricterBoundWins(t *testing.T) {
	f := newFlow(t, sample)
	l := layoutOf(t, f, Options{Width: Ptr(50.0), Height: Ptr(1000.0), MaxLines: Ptr(2), UseThreeDots: Ptr(false)})
	if l.Len() != 2 {
		t.Fatalf("maxLines 更严格，应为 2 行，实际 %d", l.Len())
	}
	l = layoutOf(t, f, Options{Width: Ptr(50.0), Height: Ptr(f.LineHeight()), MaxLines: Ptr(5), UseThreeDots: Ptr(false)})
	if l.Len() != 1 {
		t.Fatalf("height 更严格，应为 1 行，实际 %d", l.Len())
	}
}

func TestLayoutSplitsLongWordByLetters(t *testing.T) {
	l := layoutOf(t, newFlow(t, "abcdefghij"), Options{Width: Ptr(20.0)})
	if diff := cmp.Diff([]string{"abcd", "efgh", "ij"}, texts(l)); diff != "" {
		t.Fatalf("行文本不符 (-want +got):\n%s", diff)
	}
}

func TestLayoutLetterSplitKeepsGraphemes(t *testing.T) {
	acute := "e\u0301"
	l := layoutOf(t, newFlow(t, strings.Repeat(acute, 6)), Options{Width: Ptr(20.0)})
	want := []string{acute + acute, acute + acute, acute + acute}
	if diff := cmp.Diff(want, texts(l)); diff != "" {
		t.Fatalf("字素簇不应被拆开 (-want +got):\n%s", diff)
	}
}

func TestLayoutDropsWhitespaceOnlyLines(t *testing.T) {
	if l := layoutOf(t, newFlow(t, "   \n  \t "), Options{Width: Ptr(100.0)}); l.Len() != 0 {
		t.Fatalf("纯空白文本应为零行，实际 %q", texts(l))
	}
	l := layoutOf(t, newFlow(t, "ab   cd"), Options{Width: Ptr(15.0)})
	if diff := cmp.Diff([]string{"ab", "cd"}, texts(l)); diff != "" {
		t.Fatalf("行首空白应被跳过 (-want +got):\n%s", diff)
	}
}

func TestLayoutBlankLinePolicy(t *testing.T) {
	f := newFlow(t, "a\n\nb")
	l := layoutOf(t, f, Options{Width: Ptr(100.0)})
	if diff := cmp.Diff([]string{"a", "b"}, texts(l)); diff != "" {
		t.Fatalf("默认应丢弃空行 (-want +got):\n%s", diff)
	}
	l = layoutOf(t, f, Options{Width: Ptr(100.0), PreserveBlankLines: true})
	if diff := cmp.Diff([]string{"a", "", "b"}, texts(l)); diff != "" {
		t.Fatalf("保留空行时结果不符 (-want +got):\n%s", diff)
	}
	if h := l.Lines()[1].Height; h != 12 {
		t.Fatalf("空行高度应为 12，实际 %.2f", h)
	}
	if l.TotalHeight() != 36 {
		t.Fatalf("总高度应为 36，实际 %.2f", l.TotalHeight())
	}
}

func TestLayoutDroppedLetterLeavesNoLeadingSpace(t *testing.T) {
	f, err := NewFlow([]StyledRun{{Text: "M i\t\nxy"}}, measure.Style{}, wide{}, WithSpaceCorrection(0))
	if err != nil {
		t.Fatal(err)
	}
	l := layoutOf(t, f, Options{Width: Ptr(5.0)})
	if diff := cmp.Diff([]string{"i", "xy"}, texts(l)); diff != "" {
		t.Fatalf("丢弃超宽字母后行首不应有空格 (-want +got):\n%s", diff)
	}
	if w := l.Lines()[0].Width; w != 1 {
		t.Fatalf("首行宽度应为 1，实际 %.2f", w)
	}
	var xs []float64
	l.Walk(AlignCenter, AlignTop, func(p Placement) { xs = append(xs, p.X) })
	if xs[0] != 2 {
		t.Fatalf("居中后首行 x 应为 2，实际 %.2f", xs[0])
	}
}

func TestLayoutEllipsisOnPreservedBlankLine(t *testing.T) {
	l := layoutOf(t, newFlow(t, "a\n\n\nb c d"), Options{
		Width:              Ptr(100.0),
		MaxLines:           Ptr(2),
		PreserveBlankLines: true,
	})
	if diff := cmp.Diff([]string{"a", "..."}, texts(l)); diff != "" {
		t.Fatalf("截断停在空行时应显示省略号 (-want +got):\n%s", diff)
	}
	if !l.Truncated() {
		t.Fatalf("应标记为截断")
	}
	last := l.Lines()[1]
	if last.Width != 15 || last.Height != 12 {
		t.Fatalf("省略号行尺寸不符: 宽 %.2f 高 %.2f", last.Width, last.Height)
	}
}

func TestLayoutEllipsisDegradesWhenDotsDoNotFit(t *testing.T) {
	l := layoutOf(t, newFlow(t, "abcdefgh ijk"), Options{Width: Ptr(12.0), MaxLines: Ptr(1)})
	if diff := cmp.Diff([]string{"ab"}, texts(l)); diff != "" {
		t.Fatalf("省略号放不下时应不加 (-want +got):\n%s", diff)
	}
	if !l.Truncated() {
		t.Fatalf("应标记为截断")
	}
}

func TestLayoutEllipsisMayReplaceWholeLine(t *testing.T) {
	l := layoutOf(t, newFlow(t, "abc def"), Options{Width: Ptr(15.0), MaxLines: Ptr(1)})
	if diff := cmp.Diff([]string{"..."}, texts(l)); diff != "" {
		t.Fatalf("行文本不符 (-want +got):\n%s", diff)
	}
	if w := l.Lines()[0].Width; w != 15 {
		t.Fatalf("省略号行宽应为 15，实际 %.2f", w)
	}
}

func TestLayoutExactLineWidths(t *testing.T) {
	f, err := NewFlow([]StyledRun{{Text: "ab cd"}}, measure.Style{}, kerned{}, WithSpaceCorrection(0))
	if err != nil {
		t.Fatalf("创建 Flow 失败: %v", err)
	}
	approx := layoutOf(t, f, Options{Width: Ptr(100.0)})
	exact := layoutOf(t, f, Options{Width: Ptr(100.0), ExactLineWidths: true})
	if got := approx.Lines()[0].Width; got != 22 {
		t.Fatalf("近似行宽应为 22，实际 %.2f", got)
	}
	if got := exact.Lines()[0].Width; got != 21 {
		t.Fatalf("精确行宽应为 21，实际 %.2f", got)
	}
}

func TestLayoutMultipleRuns(t *testing.T) {
	runs := []StyledRun{
		{Text: "Hello "},
		{Text: "big world", Style: measure.Style{FontSize: 20, FontWeight: "bold"}},
	}
	f, err := NewFlow(runs, measure.Style{FontFamily: "Body", FontSize: 10}, mono{}, WithSpaceCorrection(0))
	if err != nil {
		t.Fatalf("创建 Flow 失败: %v", err)
	}
	l := layoutOf(t, f, Options{Width: Ptr(1000.0)})
	lines := l.Lines()
	if len(lines) != 1 || len(lines[0].Spans) != 2 {
		t.Fatalf("期望 1 行 2 段，实际 %+v", lines)
	}
	ln := lines[0]
	if ln.Height != 24 {
		t.Fatalf("行高应取最高 span 的 24，实际 %.2f", ln.Height)
	}
	if ln.Spans[0].Width != 30 || ln.Spans[1].Width != 90 || ln.Width != 120 {
		t.Fatalf("span 宽度不符: %.1f %.1f 行宽 %.1f", ln.Spans[0].Width, ln.Spans[1].Width, ln.Width)
	}
	if ln.Spans[1].Style.FontFamily != "Body" {
		t.Fatalf("未设置的字段应从默认样式继承，实际 %q", ln.Spans[1].Style.FontFamily)
	}
}

func TestLayoutMergesSameRunIntoOneSpan(t *testing.T) {
	l := layoutOf(t, newFlow(t, "one two three"), Options{Width: Ptr(1000.0)})
	if n := len(l.Lines()[0].Spans); n != 1 {
		t.Fatalf("同一 run 的单词应合并为一个 span，实际 %d", n)
	}
}

func TestLayoutConfigurationErrors(t *testing.T) {
	f := newFlow(t, sample)
	cases := map[string]Options{
		"width":    {},
		"maxLines": {Width: Ptr(10.0), MaxLines: Ptr(-1)},
	}
	for option, opts := range cases {
		l, err := f.Layout(opts)
		if l != nil {
			t.Errorf("%s: 配置错误时不应返回 Layout", option)
		}
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("%s: 期望 ErrConfiguration，实际 %v", option, err)
		}
		var ce *ConfigurationError
		if !errors.As(err, &ce) || ce.Option != option {
			t.Errorf("%s: 错误未指明选项: %v", option, err)
		}
	}
	if _, err := NewFlow(nil, measure.Style{}, nil); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("缺少 measurer 时应返回配置错误，实际 %v", err)
	}
}

func TestFlowIsReusableAndConcurrent(t *testing.T) {
	f, err := NewFlow([]StyledRun{{Text: sample}}, measure.Style{FontSize: 10}, measure.NewCache(mono{}), WithSpaceCorrection(0))
	if err != nil {
		t.Fatalf("创建 Flow 失败: %v", err)
	}
	want := texts(layoutOf(t, f, Options{Width: Ptr(50.0)}))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := f.Layout(Options{Width: Ptr(50.0)})
			if err != nil {
				t.Errorf("排版失败: %v", err)
				return
			}
			if diff := cmp.Diff(want, texts(l)); diff != "" {
				t.Errorf("并发排版结果不一致 (-want +got):\n%s", diff)
			}
		}()
	}
	wg.Wait()
	if wide := layoutOf(t, f, Options{Width: Ptr(1000.0)}); wide.Len() != 1 {
		t.Fatalf("宽度 1000 时应为 1 行，实际 %d", wide.Len())
	}
}

func TestLayoutJSON(t *testing.T) {
	l := layoutOf(t, newFlow(t, sample), Options{Width: Ptr(50.0), MaxLines: Ptr(1)})
	raw, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	var v struct {
		Lines     []Line   `json:"lines"`
		Height    *float64 `json:"height"`
		Truncated bool     `json:"truncated"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}
	if !v.Truncated || len(v.Lines) != 1 || v.Height != nil {
		t.Fatalf("JSON 内容不符: %s", raw)
	}
}
