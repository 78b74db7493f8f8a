// Package cells 在终端字符格上测量与绘制文本。
//
// 宽度以显示列计（东亚宽字符占两列），每行高度恒为 1。
// 终端无法改变字号，因此 Style.FontSize 不参与测量。
package cells

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ByLCY/textflow/measure"
)

// Measurer 按显示列宽测量文本。
type Measurer struct {
	cond *runewidth.Condition
}

var _ measure.Measurer = Measurer{}

// NewMeasurer 返回测量器；eastAsian 为 true 时模糊宽度字符按两列计。
func NewMeasurer(eastAsian bool) Measurer {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = eastAsian
	return Measurer{cond: cond}
}

func (m Measurer) Measure(text string, _ measure.Style) measure.Metrics {
	return measure.Metrics{Width: float64(m.width(text)), Height: 1}
}

func (m Measurer) width(text string) int {
	if m.cond == nil {
		return runewidth.StringWidth(text)
	}
	return m.cond.StringWidth(text)
}

func (m Measurer) runeWidth(r rune) int {
	if m.cond == nil {
		return runewidth.RuneWidth(r)
	}
	return m.cond.RuneWidth(r)
}

// Grid 是一块按行增长的字符画布，可作为 layout.PaintFunc 的绘制目标。
type Grid struct {
	m     Measurer
	width int
	rows  [][]rune
}

// NewGrid 创建宽 width 列的画布，超出宽度的字符被裁掉。
func NewGrid(width int, m Measurer) *Grid {
	return &Grid{m: m, width: width}
}

// Paint 把 text 写到第 y 行、第 x 列起的位置，小数坐标向下取整。
func (g *Grid) Paint(text string, x, y, _ float64, _ measure.Style) {
	row := int(math.Floor(y))
	col := int(math.Floor(x))
	if row < 0 || col < 0 {
		return
	}
	for len(g.rows) <= row {
		g.rows = append(g.rows, blankRow(g.width))
	}
	line := g.rows[row]
	for _, r := range text {
		w := g.m.runeWidth(r)
		if w == 0 {
			continue
		}
		if col+w > len(line) {
			break
		}
		line[col] = r
		// 宽字符的第二列用 0 占位，输出时跳过
		for i := 1; i < w; i++ {
			line[col+i] = 0
		}
		col += w
	}
}

// Lines 返回每一行去掉行尾空格后的文本。
func (g *Grid) Lines() []string {
	out := make([]string, len(g.rows))
	for i, row := range g.rows {
		var sb strings.Builder
		for _, r := range row {
			if r != 0 {
				sb.WriteRune(r)
			}
		}
		out[i] = strings.TrimRight(sb.String(), " ")
	}
	return out
}

func (g *Grid) String() string {
	return strings.Join(g.Lines(), "\n")
}

func blankRow(width int) []rune {
	row := make([]rune, width)
	for i := range row {
		row[i] = ' '
	}
	return row
}
