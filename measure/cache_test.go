package measure

import (
	"sync"
	"sync/atomic"
	"testing"
	"unicode/utf8"
)

// countingMeasurer 以等宽字符模拟测量：每个字符 fontSize/2，行高 fontSize*1.2。
type countingMeasurer struct {
	calls atomic.Int64
}

func (m *countingMeasurer) Measure(text string, s Style) Metrics {
	m.calls.Add(1)
	size := s.FontSize
	if size <= 0 {
		size = 10
	}
	return Metrics{Width: float64(utf8.RuneCountInString(text)) * size / 2, Height: size * 1.2}
}

func TestCacheReusesMeasurements(t *testing.T) {
	inner := &countingMeasurer{}
	c := NewCache(inner)
	s := Style{FontFamily: "Body", FontSize: 10}

	first := c.Measure("Hello", s)
	second := c.Measure("Hello", s)
	if first != second {
		t.Fatalf("缓存结果不一致: %+v vs %+v", first, second)
	}
	if got := inner.calls.Load(); got != 1 {
		t.Fatalf("底层测量应只调用一次，实际 %d", got)
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("计数错误: hits=%d misses=%d", hits, misses)
	}
}

func TestCacheKeyIgnoresColor(t *testing.T) {
	inner := &countingMeasurer{}
	c := NewCache(inner)
	c.Measure("abc", Style{FontSize: 10, Color: "#ff0000"})
	c.Measure("abc", Style{FontSize: 10, Color: "#00ff00"})
	if got := inner.calls.Load(); got != 1 {
		t.Fatalf("颜色不应参与缓存键，底层调用 %d 次", got)
	}
	c.Measure("abc", Style{FontSize: 10, FontWeight: "bold"})
	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("字重应参与缓存键，底层调用 %d 次", got)
	}
	if c.Len() != 2 {
		t.Fatalf("期望 2 个缓存项，实际 %d", c.Len())
	}
}

func TestCacheEmptyTextHasZeroWidth(t *testing.T) {
	c := NewCache(MeasurerFunc(func(text string, s Style) Metrics {
		return Metrics{Width: 3, Height: 12}
	}))
	if w := c.Measure("", Style{}).Width; w != 0 {
		t.Fatalf("空串宽度应为 0，实际 %g", w)
	}
}

func TestCacheReset(t *testing.T) {
	inner := &countingMeasurer{}
	c := NewCache(inner)
	c.Measure("a", Style{})
	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("Reset 后缓存应为空")
	}
	c.Measure("a", Style{})
	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("Reset 后应重新测量，底层调用 %d 次", got)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	inner := &countingMeasurer{}
	c := NewCache(inner)
	s := Style{FontSize: 12}
	words := []string{"alpha", "beta", "gamma", "delta"}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w := words[(i+j)%len(words)]
				if got := c.Measure(w, s).Width; got != float64(len(w))*6 {
					t.Errorf("并发测量结果错误: %s => %g", w, got)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	if c.Len() != len(words) {
		t.Fatalf("期望 %d 个缓存项，实际 %d", len(words), c.Len())
	}
	if got := inner.calls.Load(); got != int64(len(words)) {
		t.Fatalf("每个键只应测量一次，实际底层调用 %d 次", got)
	}
	hits, misses := c.Stats()
	if misses != uint64(len(words)) || hits == 0 || hits+misses > 32*100 {
		t.Fatalf("并发计数错误: hits=%d misses=%d", hits, misses)
	}
}

func TestCacheKeyStringIsUnambiguous(t *testing.T) {
	a := keyOf("t", Style{FontFamily: "A", FontSize: 10, FontWeight: "x/y"})
	b := keyOf("/t", Style{FontFamily: "A", FontSize: 10, FontWeight: "x", FontStyle: "y"})
	if a == b {
		t.Fatalf("两个键本应不同")
	}
	if a.String() == b.String() {
		t.Fatalf("不同的键生成了相同的字符串: %s", a.String())
	}
}

func TestSpaceWidth(t *testing.T) {
	m := &countingMeasurer{}
	s := Style{FontSize: 10}
	if got := SpaceWidth(m, s, 0); got != 5 {
		t.Fatalf("无修正时空格宽度应为 5，实际 %g", got)
	}
	if got := SpaceWidth(m, s, DefaultSpaceCorrection); got != 5.5 {
		t.Fatalf("默认修正后空格宽度应为 5.5，实际 %g", got)
	}
	zero := MeasurerFunc(func(string, Style) Metrics { return Metrics{} })
	if got := SpaceWidth(zero, s, -1); got != 0 {
		t.Fatalf("空格宽度不应为负，实际 %g", got)
	}
}

func TestStyleInherit(t *testing.T) {
	def := Style{FontFamily: "Body", FontSize: 12, Color: "#333333"}
	got := Style{FontWeight: "bold"}.Inherit(def)
	want := Style{FontFamily: "Body", FontSize: 12, FontWeight: "bold", Color: "#333333"}
	if got != want {
		t.Fatalf("Inherit 结果错误: got=%+v want=%+v", got, want)
	}
	if !got.Bold() || got.Italic() {
		t.Fatalf("Bold/Italic 判断错误: %+v", got)
	}
	if !(Style{FontWeight: "700"}).Bold() || (Style{FontWeight: "400"}).Bold() {
		t.Fatalf("数字字重判断错误")
	}
}
