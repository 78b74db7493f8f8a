package layout

import (
	"strings"

	"github.com/rivo/uniseg"

	"github.com/ByLCY/textflow/measure"
)

// epsilon 吸收宽度/高度累加时的浮点误差。
const epsilon = 1e-9

const ellipsis = "..."

// fragment 是工作队列中的一项：某个 run 的一段单词，或一个强制换行。
type fragment struct {
	run   *runModel
	words []Word
	brk   bool
}

// workQueue 是片段的双端队列。切片逆序存放，队首在末尾，
// 取队首与把剩余部分放回队首都不需要搬移元素。
type workQueue struct {
	items []fragment
}

func (q *workQueue) popFront() (fragment, bool) {
	if len(q.items) == 0 {
		return fragment{}, false
	}
	f := q.items[len(q.items)-1]
	q.items = q.items[:len(q.items)-1]
	return f, true
}

func (q *workQueue) pushFront(f fragment) {
	q.items = append(q.items, f)
}

// pending reports whether any non-blank word is still queued.
func (q *workQueue) pending() bool {
	for _, f := range q.items {
		for _, w := range f.words {
			if !blank(w.Text) {
				return true
			}
		}
	}
	return false
}

type state int

const (
	stateFilling state = iota
	stateDone
)

// spanBuilder 累积当前行中同一 run 的连续文本。
type spanBuilder struct {
	run   *runModel
	text  strings.Builder
	width float64
}

// compositor 执行一次贪心折行，每次 Layout 调用新建一个。
type compositor struct {
	m   measure.Measurer
	opt resolved

	queue workQueue
	state state

	lines     []Line
	total     float64
	truncated bool

	spans     []*spanBuilder
	remaining float64
	// lastWasBreak 表示上一个消费的片段是强制换行且之后没有放入内容。
	lastWasBreak bool
	// blankRun 是最近一个保留空行所属的 run。
	blankRun *runModel
}

func newCompositor(f *Flow, opt resolved) *compositor {
	c := &compositor{m: f.measurer, opt: opt, remaining: opt.width}
	var all []fragment
	for _, rm := range f.runs {
		for _, sec := range rm.sections {
			all = append(all, fragment{run: rm, words: sec.words, brk: sec.brk})
		}
	}
	c.queue.items = make([]fragment, len(all))
	for i, fr := range all {
		c.queue.items[len(all)-1-i] = fr
	}
	return c
}

func (c *compositor) run() {
	if c.opt.width <= 0 || c.opt.maxLines == 0 || (c.opt.hasHeight && c.opt.height < 0) {
		c.state = stateDone
		return
	}
	for c.state == stateFilling {
		fr, ok := c.queue.popFront()
		if !ok {
			c.finalize()
			c.state = stateDone
			break
		}
		if fr.brk {
			if len(c.spans) == 0 && c.opt.keepBlank && c.lastWasBreak {
				c.blankRun = fr.run
				c.admit(Line{Height: fr.run.lineHeight})
			} else {
				c.finalize()
			}
			c.lastWasBreak = true
			continue
		}
		c.place(fr)
	}
	if c.truncated && c.opt.dots {
		c.ellipsis()
	}
}

// place 尽可能多地把片段放入当前行，剩余部分放回队首。
func (c *compositor) place(fr fragment) {
	words := fr.words
	if len(c.spans) == 0 {
		for len(words) > 0 && blank(words[0].Text) {
			words = words[1:]
		}
	}
	if len(words) == 0 {
		return
	}

	n := fit(words, c.remaining)
	if n > 0 {
		c.appendWords(fr.run, words[:n])
		if n < len(words) {
			c.queue.pushFront(fragment{run: fr.run, words: words[n:]})
			c.finalize()
		}
		return
	}
	if words[0].visible() <= c.opt.width+epsilon && len(c.spans) > 0 {
		// 放得进一个新行，先结束当前行
		c.queue.pushFront(fragment{run: fr.run, words: words})
		c.finalize()
		return
	}
	c.splitLetters(fr.run, words)
}

// fit 返回能放进 room 的最长单词前缀长度；最后一个单词的结尾空格不计入。
func fit(words []Word, room float64) int {
	sum := 0.0
	for i, w := range words {
		if sum+w.visible() > room+epsilon {
			return i
		}
		sum += w.Width
	}
	return len(words)
}

// splitLetters 处理比整行还宽的单词：逐个字母放入当前行。
// 比整行还宽的字母直接丢弃，因此空行上每一轮至少消耗一个字母，不会停滞。
func (c *compositor) splitLetters(rm *runModel, words []Word) {
	letters := rm.letters(words[0], c.m)
	var kept []Letter
	used := 0.0
	i := 0
	for ; i < len(letters); i++ {
		l := letters[i]
		if l.Width > c.opt.width+epsilon {
			continue
		}
		// 行首不留空白，与 place 的处理一致
		if len(c.spans) == 0 && len(kept) == 0 && blank(l.Text) {
			continue
		}
		if used+l.Width > c.remaining+epsilon {
			break
		}
		kept = append(kept, l)
		used += l.Width
	}
	if len(kept) > 0 {
		c.appendWords(rm, []Word{rm.wordOf(kept)})
	}
	rest := words[1:]
	if i < len(letters) {
		rest = append([]Word{rm.wordOf(letters[i:])}, words[1:]...)
	}
	if len(rest) > 0 {
		c.queue.pushFront(fragment{run: rm, words: rest})
	}
	if i < len(letters) {
		c.finalize()
	}
}

func (c *compositor) appendWords(rm *runModel, words []Word) {
	var sb *spanBuilder
	if n := len(c.spans); n > 0 && c.spans[n-1].run == rm {
		sb = c.spans[n-1]
	} else {
		sb = &spanBuilder{run: rm}
		c.spans = append(c.spans, sb)
	}
	for _, w := range words {
		sb.text.WriteString(w.Text)
		sb.width += w.Width
		c.remaining -= w.Width
		if !blank(w.Text) {
			c.lastWasBreak = false
		}
	}
}

// finalize 结束当前行：去掉尾随空白，计算宽高，然后尝试收入结果。
// 只含空白的行被丢弃。
func (c *compositor) finalize() {
	spans := c.trimmedSpans()
	c.spans = nil
	c.remaining = c.opt.width
	if len(spans) == 0 {
		return
	}
	line := Line{Spans: spans}
	for i := range line.Spans {
		if c.opt.exact {
			line.Spans[i].Width = c.m.Measure(line.Spans[i].Text, line.Spans[i].Style).Width
		}
		line.Width += line.Spans[i].Width
		if line.Spans[i].Height > line.Height {
			line.Height = line.Spans[i].Height
		}
	}
	c.admit(line)
}

func (c *compositor) trimmedSpans() []Span {
	out := make([]Span, 0, len(c.spans))
	for _, sb := range c.spans {
		out = append(out, Span{
			Text:   sb.text.String(),
			Style:  sb.run.style,
			Width:  sb.width,
			Height: sb.run.lineHeight,
		})
	}
	for len(out) > 0 {
		last := &out[len(out)-1]
		rm := c.spans[len(out)-1].run
		trimmed := strings.TrimRight(last.Text, " ")
		last.Width -= float64(len(last.Text)-len(trimmed)) * rm.spaceWidth
		if last.Width < 0 {
			last.Width = 0
		}
		last.Text = trimmed
		if trimmed != "" {
			break
		}
		out = out[:len(out)-1]
	}
	return out
}

// admit 在高度与行数限制内收入一行，触及限制时进入 DONE。
func (c *compositor) admit(line Line) {
	if c.opt.hasHeight && c.total+line.Height > c.opt.height+epsilon {
		c.truncated = true
		c.state = stateDone
		return
	}
	c.lines = append(c.lines, line)
	c.total += line.Height
	if c.opt.maxLines >= 0 && len(c.lines) >= c.opt.maxLines {
		c.state = stateDone
		if c.queue.pending() {
			c.truncated = true
		}
	}
}

// ellipsis 在被截断的最后一行末尾加 "..."，必要时逐个字素缩短文本直到放得下。
// 省略号本身比行宽还宽时放弃添加。
func (c *compositor) ellipsis() {
	if len(c.lines) == 0 {
		return
	}
	line := c.lines[len(c.lines)-1]
	if len(line.Spans) == 0 {
		c.blankEllipsis(line)
		return
	}
	tail := line.Spans[len(line.Spans)-1]
	dots := c.m.Measure(ellipsis, tail.Style).Width
	if dots > c.opt.width+epsilon {
		return
	}

	spans := append([]Span(nil), line.Spans...)
	for len(spans) > 0 {
		i := len(spans) - 1
		others := 0.0
		for _, sp := range spans[:i] {
			others += sp.Width
		}
		text := strings.TrimRight(spans[i].Text, " ")
		candidate := text + ellipsis
		w := c.m.Measure(candidate, spans[i].Style).Width
		if others+w <= c.opt.width+epsilon {
			spans[i].Text = candidate
			spans[i].Width = w
			line.Spans = spans
			line.Width = others + w
			c.lines[len(c.lines)-1] = line
			return
		}
		if text == "" {
			spans = spans[:i]
			continue
		}
		spans[i].Text = dropLastGrapheme(text)
	}
	tail.Text = ellipsis
	tail.Width = dots
	line.Spans = []Span{tail}
	line.Width = dots
	c.lines[len(c.lines)-1] = line
}

// blankEllipsis 在保留下来的空行上单独放一个 "..."，样式取产生该空行的 run。
func (c *compositor) blankEllipsis(line Line) {
	if c.blankRun == nil {
		return
	}
	dots := c.m.Measure(ellipsis, c.blankRun.style).Width
	if dots > c.opt.width+epsilon {
		return
	}
	line.Spans = []Span{{
		Text:   ellipsis,
		Style:  c.blankRun.style,
		Width:  dots,
		Height: c.blankRun.lineHeight,
	}}
	line.Width = dots
	c.lines[len(c.lines)-1] = line
}

func dropLastGrapheme(s string) string {
	g := uniseg.NewGraphemes(s)
	cut := 0
	for g.Next() {
		cut, _ = g.Positions()
	}
	return s[:cut]
}

func (c *compositor) result() *Layout {
	return &Layout{
		lines:       c.lines,
		width:       c.opt.width,
		height:      c.opt.height,
		hasHeight:   c.opt.hasHeight,
		totalHeight: c.total,
		truncated:   c.truncated,
	}
}
