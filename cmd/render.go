package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/textflow/document"
	"github.com/ByLCY/textflow/dsl"
	canvasrenderer "github.com/ByLCY/textflow/renderer/canvas"
)

type renderFlags struct {
	in       string
	out      string
	data     string
	dataFile string
	debug    string
}

func newRenderCmd(a *app) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "排版 .tf 文档并输出 PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.render(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.in, "in", "", "文档路径")
	cmd.Flags().StringVar(&f.out, "out", "", "PDF 输出路径，默认与输入同名")
	cmd.Flags().StringVar(&f.data, "data", "", "绑定到文档的 JSON 数据")
	cmd.Flags().StringVar(&f.dataFile, "data-file", "", "从文件读取绑定数据")
	cmd.Flags().StringVar(&f.debug, "debug", "", "排版调试 JSON 输出路径")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

// render 串联解析、排版与渲染。
func (a *app) render(cmd *cobra.Command, f *renderFlags) error {
	data, err := loadData(f.data, f.dataFile)
	if err != nil {
		return err
	}
	doc, err := dsl.ParseFile(f.in)
	if err != nil {
		return err
	}

	baseDir := a.cfg.FontDir
	if baseDir == "" {
		baseDir = filepath.Dir(f.in)
	}
	r := canvasrenderer.New(canvasrenderer.Options{BaseDir: baseDir, Logger: a.logger})
	correction := a.cfg.SpaceCorrection
	res, err := document.Build(doc, data, document.BuildOptions{
		Measurer:        r,
		Fonts:           r,
		DefaultStyle:    a.cfg.DefaultStyle(),
		SpaceCorrection: &correction,
		Logger:          a.logger,
	})
	if err != nil {
		return fmt.Errorf("排版失败: %w", err)
	}

	if f.debug != "" {
		if err := document.WriteDebugJSON(res, f.debug); err != nil {
			return err
		}
	}

	out := f.out
	if out == "" {
		out = strings.TrimSuffix(f.in, filepath.Ext(f.in)) + ".pdf"
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("创建 PDF 文件失败: %w", err)
	}
	if err := r.RenderTo(file, res); err != nil {
		file.Close()
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已生成 PDF：%s\n", out)
	return nil
}

func loadData(inline, path string) (any, error) {
	raw := []byte(inline)
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取数据文件失败: %w", err)
		}
		raw = b
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return data, nil
}
