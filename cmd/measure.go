package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/textflow/document"
	"github.com/ByLCY/textflow/measure"
	canvasrenderer "github.com/ByLCY/textflow/renderer/canvas"
)

type measureFlags struct {
	font     string
	fontFile string
	size     float64
	weight   string
	style    string
}

func newMeasureCmd(a *app) *cobra.Command {
	f := &measureFlags{}
	cmd := &cobra.Command{
		Use:   "measure text...",
		Short: "打印文本在指定字体下的宽高（mm）",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.measure(cmd, strings.Join(args, " "), f)
		},
	}
	cmd.Flags().StringVar(&f.font, "font", "Body", "字体族名")
	cmd.Flags().StringVar(&f.fontFile, "font-file", "", "字体文件或 embed:<name>，注册到 --font 指定的字体族")
	cmd.Flags().Float64Var(&f.size, "size", 0, "字号（pt），默认取配置 defaults.size")
	cmd.Flags().StringVar(&f.weight, "weight", "", "字重，例如 bold")
	cmd.Flags().StringVar(&f.style, "style", "", "字形，例如 italic")
	return cmd
}

func (a *app) measure(cmd *cobra.Command, text string, f *measureFlags) error {
	baseDir := a.cfg.FontDir
	if baseDir == "" {
		baseDir = "."
	}
	r := canvasrenderer.New(canvasrenderer.Options{BaseDir: baseDir, Logger: a.logger})
	if f.fontFile != "" {
		font := document.FontResource{
			Name:   f.font,
			Src:    f.fontFile,
			Family: f.font,
			Weight: strings.ToLower(f.weight),
			Style:  strings.ToLower(f.style),
		}
		if err := r.RegisterFont(font); err != nil {
			return err
		}
	}

	st := measure.Style{
		FontFamily: f.font,
		FontSize:   f.size,
		FontWeight: strings.ToLower(f.weight),
		FontStyle:  strings.ToLower(f.style),
	}.Inherit(a.cfg.DefaultStyle())
	m := r.Measure(text, st)
	space := measure.SpaceWidth(r, st, a.cfg.SpaceCorrection)
	fmt.Fprintf(cmd.OutOrStdout(), "width=%.3fmm height=%.3fmm space=%.3fmm\n", m.Width, m.Height, space)
	return nil
}
