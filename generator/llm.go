package generator

import (
	"context"
	"errors"
)

// ErrModelUnavailable 表示模型调用失败（网络、超时或后端错误），整个运行随之失败。
var ErrModelUnavailable = errors.New("model unavailable")

// LLMClient 抽象大模型客户端，便于替换/Mock。
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
