package layout

import (
	"strings"

	"github.com/rivo/uniseg"

	"github.com/ByLCY/textflow/measure"
)

// Word 是可在其后断行的最小单元，Text 至多带一个结尾空格。
// Width 包含结尾空格的宽度 Space。
type Word struct {
	Text  string
	Width float64
	Space float64
}

// visible 返回不计结尾空格时的宽度，用于判断能否放入当前行。
func (w Word) visible() float64 { return w.Width - w.Space }

// Letter 是一个字素簇及其宽度。
type Letter struct {
	Text  string
	Width float64
}

// section 是一个 run 中两个强制换行之间的文本；brk 为 true 时表示换行本身。
type section struct {
	words []Word
	width float64
	brk   bool
}

// runModel 是一个 StyledRun 预先计算好的测量模型，构造后只读。
type runModel struct {
	style      measure.Style
	lineHeight float64
	spaceWidth float64
	sections   []section
}

func buildRun(run StyledRun, m measure.Measurer, correction float64) *runModel {
	rm := &runModel{
		style:      run.Style,
		lineHeight: m.Measure("a", run.Style).Height,
		spaceWidth: measure.SpaceWidth(m, run.Style, correction),
	}
	for _, seg := range Segments(run.Text) {
		if seg.Break {
			rm.sections = append(rm.sections, section{brk: true})
			continue
		}
		sec := section{}
		for _, tok := range Tokenize(seg.Text) {
			w := rm.word(tok, m)
			sec.words = append(sec.words, w)
			sec.width += w.Width
		}
		rm.sections = append(rm.sections, sec)
	}
	return rm
}

// word 测量一个单词：去掉结尾空格后整体测量，再加上 run 级空格宽度。
func (rm *runModel) word(tok string, m measure.Measurer) Word {
	w := Word{Text: tok}
	core := tok
	if strings.HasSuffix(tok, " ") {
		core = tok[:len(tok)-1]
		w.Space = rm.spaceWidth
	}
	w.Width = m.Measure(core, rm.style).Width + w.Space
	return w
}

// letters 按字素簇拆分单词并逐个测量，只在单词宽于整行时调用。
func (rm *runModel) letters(w Word, m measure.Measurer) []Letter {
	var out []Letter
	g := uniseg.NewGraphemes(w.Text)
	for g.Next() {
		s := g.Str()
		l := Letter{Text: s}
		if s == " " {
			l.Width = rm.spaceWidth
		} else {
			l.Width = m.Measure(s, rm.style).Width
		}
		out = append(out, l)
	}
	return out
}

// wordOf 用剩余字母重新拼出一个单词。
func (rm *runModel) wordOf(letters []Letter) Word {
	var b strings.Builder
	w := Word{}
	for _, l := range letters {
		b.WriteString(l.Text)
		w.Width += l.Width
	}
	w.Text = b.String()
	if strings.HasSuffix(w.Text, " ") {
		w.Space = rm.spaceWidth
	}
	return w
}
