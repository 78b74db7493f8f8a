package layout

import (
	"errors"
	"fmt"
)

// ErrConfiguration 是所有配置错误的哨兵值，可用 errors.Is 判断。
var ErrConfiguration = errors.New("layout: 配置错误")

// ConfigurationError 表示必需选项缺失或取值非法，排版不会部分执行。
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("layout: 选项 %s %s", e.Option, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }
