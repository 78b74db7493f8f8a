package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ByLCY/textflow/internal/config"
)

var version = "dev"

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
}

// app 保存一次命令执行共享的配置与日志。
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "textflow",
		Short: "贪心折行与段落排版工具",
		Long: `textflow 按给定宽度、行数与高度把文本折成若干行。

render 将 .tf 文档排版并输出 PDF，wrap 在终端中按字符宽度折行，
measure 打印一段文字在指定字体下的宽高。`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultFile, "配置文件路径")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "日志级别：debug|info|warn|error")

	root.AddCommand(
		newRenderCmd(a),
		newWrapCmd(a),
		newMeasureCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return nil
}

// Execute runs the root command
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本号",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "textflow", version)
		},
	}
}
