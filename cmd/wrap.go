package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/textflow/layout"
	"github.com/ByLCY/textflow/measure"
	"github.com/ByLCY/textflow/renderer/cells"
)

type wrapFlags struct {
	width     int
	maxLines  int
	height    int
	align     hAlignValue
	valign    vAlignValue
	noDots    bool
	exact     bool
	keepBlank bool
	eastAsian bool
	asJSON    bool
}

func newWrapCmd(a *app) *cobra.Command {
	f := &wrapFlags{valign: vAlignValue{align: layout.AlignTop}}
	cmd := &cobra.Command{
		Use:   "wrap [text...]",
		Short: "在终端中按列宽折行",
		Long: `wrap 按显示列宽折行并打印结果。没有参数时从标准输入读取文本。

宽度、行数与高度均以字符格计，高度等于行数。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.wrap(cmd, args, f)
		},
	}
	cmd.Flags().IntVarP(&f.width, "width", "w", 0, "行宽（列），默认取配置 wrap.width")
	cmd.Flags().IntVarP(&f.maxLines, "max-lines", "n", -1, "最大行数，负数表示不限")
	cmd.Flags().IntVar(&f.height, "height", -1, "最大高度（行），负数表示不限")
	cmd.Flags().Var(&f.align, "align", "水平对齐：left|center|right，默认取配置 wrap.align")
	cmd.Flags().Var(&f.valign, "valign", "垂直对齐：top|middle|bottom，需要 --height")
	cmd.Flags().BoolVar(&f.noDots, "no-dots", false, "截断时不加省略号")
	cmd.Flags().BoolVar(&f.exact, "exact", false, "逐行重新测量宽度")
	cmd.Flags().BoolVar(&f.keepBlank, "keep-blank", false, "保留连续换行产生的空行")
	cmd.Flags().BoolVar(&f.eastAsian, "east-asian", false, "模糊宽度字符按两列计")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "输出排版结果 JSON")
	return cmd
}

func (a *app) wrap(cmd *cobra.Command, args []string, f *wrapFlags) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("读取标准输入失败: %w", err)
		}
		text = strings.TrimRight(string(b), "\n")
	}

	width := f.width
	if !cmd.Flags().Changed("width") {
		width = a.cfg.Wrap.Width
	}
	align := a.cfg.WrapAlign()
	if f.align.set {
		align = f.align.align
	}

	opts := layout.Options{
		Width:              layout.Ptr(float64(width)),
		UseThreeDots:       layout.Ptr(!f.noDots),
		ExactLineWidths:    f.exact,
		PreserveBlankLines: f.keepBlank,
	}
	if f.maxLines >= 0 {
		opts.MaxLines = layout.Ptr(f.maxLines)
	}
	if f.height >= 0 {
		opts.Height = layout.Ptr(float64(f.height))
	}

	m := cells.NewMeasurer(f.eastAsian)
	// 终端中空格恰好一列，不需要额外修正
	flow, err := layout.NewFlow([]layout.StyledRun{{Text: text}}, measure.Style{}, m, layout.WithSpaceCorrection(0))
	if err != nil {
		return err
	}
	res, err := flow.Layout(opts)
	if err != nil {
		return err
	}
	a.logger.Debug("折行完成", "width", width, "lines", res.Len(), "truncated", res.Truncated())

	out := cmd.OutOrStdout()
	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	grid := cells.NewGrid(width, m)
	res.Render(align, f.valign.align, grid.Paint)
	lines := grid.Lines()
	if h, ok := res.Height(); ok {
		for len(lines) < int(math.Floor(h)) {
			lines = append(lines, "")
		}
	}
	for _, ln := range lines {
		fmt.Fprintln(out, ln)
	}
	return nil
}
