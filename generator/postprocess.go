package generator

import "strings"

const (
	// TagCount is the exact number of tags in a normalized proposal.
	TagCount = 3
	// DefaultMaxSummaryWords bounds the summary length.
	DefaultMaxSummaryWords = 25
)

// fillerTags 用于补足标签数量，已存在的会被跳过以保证唯一。
// 缺几个就最多占用几个已存在的 filler，所以三个候选总是够用。
var fillerTags = []string{"general", "misc", "other"}

// DefaultProposal 是模型输出无法解析时使用的安全兜底结果。
func DefaultProposal() Proposal {
	return Proposal{
		Tags:    []string{"tag1", "tag2", "tag3"},
		Summary: "Unavailable.",
	}
}

// Normalize 把任意记录整理为合法的 Proposal：恰好 3 个非空唯一标签，摘要不超过 maxWords 个词。
// 只做截断/补齐，不会再次请求模型。
func Normalize(rec Record, maxWords int) Proposal {
	if maxWords <= 0 {
		maxWords = DefaultMaxSummaryWords
	}
	return Proposal{
		Tags:    normalizeTags(rec.Tags),
		Summary: truncateWords(strings.TrimSpace(rec.Summary), maxWords),
	}
}

func normalizeTags(raw []any) []string {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, TagCount)
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, s)
		if len(tags) == TagCount {
			return tags
		}
	}
	return padTags(tags, seen)
}

func padTags(tags []string, seen map[string]struct{}) []string {
	for _, f := range fillerTags {
		if len(tags) == TagCount {
			return tags
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tags = append(tags, f)
	}
	return tags
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

func truncateWords(s string, limit int) string {
	words := strings.Fields(s)
	if len(words) <= limit {
		return s
	}
	return strings.Join(words[:limit], " ")
}
