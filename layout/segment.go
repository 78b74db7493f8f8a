package layout

import "strings"

// tabSpaces 是制表符展开后的空格数（固定策略）。
const tabSpaces = 4

// Segment 是一段文本在强制换行处切分后的片段；Break 为 true 时表示换行符本身。
type Segment struct {
	Text  string
	Break bool
}

// Segments 将文本按 \n、\r 切分为段落片段，换行符以 Break 片段保留在序列中，
// 以便排版时区分“强制换行”与“宽度换行”。\r\n 视为一次换行，制表符展开为四个空格。
func Segments(text string) []Segment {
	text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", tabSpaces))
	var out []Segment
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '\n' && c != '\r' {
			continue
		}
		if i > start {
			out = append(out, Segment{Text: text[start:i]})
		}
		out = append(out, Segment{Break: true})
		if c == '\r' && i+1 < len(text) && text[i+1] == '\n' {
			i++
		}
		start = i + 1
	}
	if start < len(text) {
		out = append(out, Segment{Text: text[start:]})
	}
	return out
}

// Tokenize 将一段不含换行的文本切分为单词：每个空格结束当前单词并归属于该单词，
// 末尾没有空格的部分也单独成词。所有单词拼接后与输入完全一致。
func Tokenize(text string) []string {
	var words []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == ' ' {
			words = append(words, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		words = append(words, text[start:])
	}
	return words
}

// SplitWords 把 \t、\n、\r 视为空格后按空格切分，丢弃空串。
// 拼接结果等于规范化输入去掉首尾及重复空白。
func SplitWords(text string) []string {
	text = strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return ' '
		}
		return r
	}, text)
	var out []string
	for _, w := range strings.Split(text, " ") {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// blank reports whether a token is nothing but spaces.
func blank(s string) bool {
	return strings.Trim(s, " ") == ""
}
