package generator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt 表示发送给 LLM 的消息集合及采样参数。
type Prompt struct {
	// Stage 标记发起调用的阶段，仅用于日志和 Mock，不发送给模型。
	Stage       Stage
	System      string
	User        string
	History     []Message
	Temperature float64
	MaxTokens   int
}

// Message 用于少量历史（可选）。
type Message struct {
	Role    string
	Content string
}

// BuildPlannerPrompt 生成 Planner 提示词；如有上一轮审查意见则附上，便于模型自我修正。
func BuildPlannerPrompt(item WorkItem, prev *ReviewVerdict, maxWords int) Prompt {
	var sb strings.Builder
	sb.WriteString("You are the Planner agent. Return ONLY a JSON object, no other text.\n")
	sb.WriteString("Keys: tags, summary.\n")
	sb.WriteString("- tags: JSON array of exactly 3 topical tag strings\n")
	sb.WriteString(fmt.Sprintf("- summary: ONE sentence, at most %d words\n", maxWords))
	sb.WriteString("No markdown. No explanations.")

	var user strings.Builder
	user.WriteString(fmt.Sprintf("Blog Title: %s\nBlog Content: %s\n", item.Title, item.Content))
	if prev != nil && prev.HasIssues {
		user.WriteString("\nThe Reviewer found problems with your previous answer. Fix these issues:\n")
		user.WriteString(prev.Issues)
		user.WriteString("\n")
	}
	user.WriteString(fmt.Sprintf("\nReturn this exact JSON format:\n{\"tags\": [\"tag1\", \"tag2\", \"tag3\"], \"summary\": \"one sentence, max %d words\"}", maxWords))

	return Prompt{
		Stage:       StagePlanner,
		System:      sb.String(),
		User:        user.String(),
		Temperature: 0.5,
		MaxTokens:   220,
	}
}

// BuildRelevancePrompt 生成语义相关性检查的 YES/NO 提示词。
func BuildRelevancePrompt(tags []string, content string, excerptRunes int) Prompt {
	user := fmt.Sprintf("Are these tags relevant to the content? Tags: %s. Content: %s. Answer only YES or NO.",
		strings.Join(tags, ", "), excerpt(content, excerptRunes))
	return Prompt{
		Stage:       StageReviewer,
		User:        user,
		Temperature: 0,
		MaxTokens:   8,
	}
}

// BuildFinalizerPrompt 生成最终润色提示词，约束比 Planner 更严格。
func BuildFinalizerPrompt(item WorkItem, reviewed Proposal, maxWords int) Prompt {
	var sb strings.Builder
	sb.WriteString("You are the Finalizer agent. Produce the final, polished output.\n")
	sb.WriteString("Return ONLY valid JSON with these exact keys:\n")
	sb.WriteString("- tags: array of EXACTLY 3 topical, specific tags (strings)\n")
	sb.WriteString(fmt.Sprintf("- summary: ONE sentence, <=%d words, ends with a period\n\n", maxWords))
	sb.WriteString("Tags must be specific to the blog content, multi-word phrases when possible ")
	sb.WriteString("(e.g. 'local models' not just 'models'), and never generic ('general', 'content', 'information').\n")
	sb.WriteString("The summary must be concise, capture the main point and be exactly one sentence.\n")
	sb.WriteString("No markdown. No extra text. No code. Just pure JSON.")

	prev, _ := json.Marshal(reviewed)
	user := fmt.Sprintf("Blog Title: %s\n\nREVIEWED_OUTPUT:\n%s\n\nProduce the final, polished tags and summary.",
		item.Title, prev)

	return Prompt{
		Stage:       StageFinalizer,
		System:      sb.String(),
		User:        user,
		Temperature: 0.1,
		MaxTokens:   180,
	}
}

func excerpt(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
