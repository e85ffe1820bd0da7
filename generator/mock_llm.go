package generator

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
// 它从标题中挑选标签，并把结果包在 Markdown 代码块里，模拟常见的模型输出。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	if prompt.Stage == StageReviewer {
		return "YES", nil
	}
	title := mockField(prompt.User, "Blog Title:")
	var tags []string
	for _, w := range strings.FieldsFunc(title, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		if len([]rune(w)) > 3 {
			tags = append(tags, fmt.Sprintf("%q", strings.ToLower(w)))
		}
		if len(tags) == 3 {
			break
		}
	}

	var sb strings.Builder
	sb.WriteString("Here is the result:\n\n```json\n")
	sb.WriteString(fmt.Sprintf("{\"tags\": [%s], \"summary\": %q}\n", strings.Join(tags, ", "),
		fmt.Sprintf("This post explains %s.", strings.ToLower(strings.TrimSpace(title)))))
	sb.WriteString("```\n")
	return sb.String(), nil
}

func mockField(text, label string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, label) {
			return strings.TrimSpace(strings.TrimPrefix(line, label))
		}
	}
	return ""
}
