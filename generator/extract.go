package generator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrExtraction matches every *ExtractionError.
var ErrExtraction = errors.New("could not parse JSON from model output")

// ExtractionError carries the model text that no strategy could parse.
type ExtractionError struct {
	Text string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%v: %q", ErrExtraction, excerpt(e.Text, 160))
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

type strategy struct {
	name string
	run  func(string) (Record, bool)
}

// strategies 按从严格到宽松的顺序排列，第一个成功的结果生效。
var strategies = []strategy{
	{"fenced", fromFences},
	{"brace", fromBraceSpan},
	{"relaxed", fromRelaxedBraceSpan},
	{"regex", fromLooseFields},
}

// Extract 从模型的自由文本中恢复 tags/summary 记录。
func Extract(raw string) (Record, error) {
	rec, _, err := extractWith(raw)
	return rec, err
}

func extractWith(raw string) (Record, string, error) {
	s := strings.TrimSpace(raw)
	for _, st := range strategies {
		if rec, ok := st.run(s); ok {
			return rec, st.name, nil
		}
	}
	return Record{}, "", &ExtractionError{Text: raw}
}

func fromFences(s string) (Record, bool) {
	if !strings.Contains(s, "```") {
		return Record{}, false
	}
	for _, block := range fencedBlocks(s) {
		if rec, ok := parseStrict(skipLanguageLine(block)); ok {
			return rec, true
		}
	}
	// 处理单行或不闭合的代码块，goldmark 不会把它们识别为 fenced block。
	parts := strings.Split(s, "```")
	for _, part := range parts[1:] {
		if rec, ok := parseStrict(skipLanguageLine(part)); ok {
			return rec, true
		}
	}
	return Record{}, false
}

func fencedBlocks(s string) []string {
	src := []byte(s)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	var blocks []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(src))
		}
		blocks = append(blocks, b.String())
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

// skipLanguageLine drops a leading "json"-style tag line.
func skipLanguageLine(block string) string {
	block = strings.TrimLeft(block, " \t\r\n")
	if strings.HasPrefix(block, "{") {
		return strings.TrimSpace(block)
	}
	if i := strings.IndexByte(block, '\n'); i >= 0 {
		return strings.TrimSpace(block[i+1:])
	}
	// "json {...}" on a single line
	if i := strings.IndexByte(block, '{'); i >= 0 && !strings.ContainsAny(block[:i], "\"[]}:") {
		return strings.TrimSpace(block[i:])
	}
	return strings.TrimSpace(block)
}

func braceSpan(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func fromBraceSpan(s string) (Record, bool) {
	span, ok := braceSpan(s)
	if !ok {
		return Record{}, false
	}
	return parseStrict(span)
}

// fromRelaxedBraceSpan 容忍注释和尾随逗号。
func fromRelaxedBraceSpan(s string) (Record, bool) {
	span, ok := braceSpan(s)
	if !ok {
		return Record{}, false
	}
	return parseStrict(string(jsonc.ToJSON([]byte(span))))
}

// parseStrict accepts only a JSON object with a tags array and a string summary.
func parseStrict(candidate string) (Record, bool) {
	candidate = strings.TrimSpace(candidate)
	if !strings.HasPrefix(candidate, "{") || !gjson.Valid(candidate) {
		return Record{}, false
	}
	obj := gjson.Parse(candidate)
	if !obj.IsObject() {
		return Record{}, false
	}
	tags := obj.Get("tags")
	summary := obj.Get("summary")
	if !tags.IsArray() || summary.Type != gjson.String {
		return Record{}, false
	}
	rec := Record{Summary: summary.String()}
	for _, t := range tags.Array() {
		rec.Tags = append(rec.Tags, t.Value())
	}
	return rec, true
}

var (
	looseTagsRe          = regexp.MustCompile(`\[([^\]]+)\]`)
	looseQuotedSummaryRe = regexp.MustCompile(`(?i)summary["']?\s*[:=]\s*"((?:[^"\\]|\\.)*)"`)
	looseSummaryRe       = regexp.MustCompile(`(?i)summary["'\s:=]+([^"}\]\n]+)`)
)

func fromLooseFields(s string) (Record, bool) {
	var tags []any
	if m := looseTagsRe.FindStringSubmatch(s); m != nil {
		for _, t := range strings.Split(m[1], ",") {
			t = strings.Trim(strings.TrimSpace(t), `"'`)
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			tags = append(tags, t)
			if len(tags) == 3 {
				break
			}
		}
	}

	var summary string
	if m := looseQuotedSummaryRe.FindStringSubmatch(s); m != nil {
		summary = m[1]
		if u, err := strconv.Unquote(`"` + m[1] + `"`); err == nil {
			summary = u
		}
	} else if m := looseSummaryRe.FindStringSubmatch(s); m != nil {
		summary = m[1]
	}
	summary = strings.TrimSpace(strings.Trim(strings.TrimSpace(summary), `"'`))

	if len(tags) == 0 || summary == "" {
		return Record{}, false
	}
	return Record{Tags: tags, Summary: summary}, true
}
