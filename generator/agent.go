package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// StageFunc consumes a state snapshot and returns a partial update.
type StageFunc func(ctx context.Context, s State) (Update, error)

// Agent 持有模型客户端，提供 Planner / Reviewer / Finalizer 三个阶段。
type Agent struct {
	llm  LLMClient
	opts Options
	log  *zap.Logger
}

func NewAgent(llm LLMClient, opts ...Option) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	o := buildOptions(opts)
	return &Agent{llm: llm, opts: o, log: o.Logger}, nil
}

// Options returns the resolved options.
func (a *Agent) Options() Options {
	return a.opts
}

// Stages 返回阶段表，供 Session 驱动。
func (a *Agent) Stages() map[Stage]StageFunc {
	return map[Stage]StageFunc{
		StagePlanner:   a.Plan,
		StageReviewer:  a.Review,
		StageFinalizer: a.Finalize,
	}
}

// invoke 为单次模型调用加上超时，并把失败统一包装为 ErrModelUnavailable。
func (a *Agent) invoke(ctx context.Context, prompt Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.CallTimeout)
	defer cancel()
	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", prompt.Stage, ErrModelUnavailable, err)
	}
	return raw, nil
}

// Plan 请求模型给出 tags 和 summary；解析失败时退回 DefaultProposal，保证循环总有结果可路由。
func (a *Agent) Plan(ctx context.Context, s State) (Update, error) {
	raw, err := a.invoke(ctx, BuildPlannerPrompt(s.Item, s.Verdict, a.opts.MaxSummaryWords))
	if err != nil {
		return Update{}, err
	}
	a.log.Debug("planner raw output", zap.String("run_id", s.RunID), zap.String("text", raw))

	var p Proposal
	rec, via, err := extractWith(raw)
	if err != nil {
		p = DefaultProposal()
		a.log.Warn("planner output unparseable, using fallback proposal",
			zap.String("run_id", s.RunID), zap.Error(err))
	} else {
		p = Normalize(rec, a.opts.MaxSummaryWords)
		a.log.Info("planner proposal",
			zap.String("run_id", s.RunID),
			zap.String("strategy", via),
			zap.Strings("tags", p.Tags),
			zap.Int("words", WordCount(p.Summary)))
	}
	return Update{Proposal: &p, ClearVerdict: true}, nil
}

// Review 校验当前 Proposal，所有规则独立判断、一并汇总。
func (a *Agent) Review(ctx context.Context, s State) (Update, error) {
	if s.Proposal == nil {
		return Update{Verdict: &ReviewVerdict{HasIssues: true, Issues: "No proposal received from Planner."}}, nil
	}
	p := s.Proposal
	maxWords := a.opts.MaxSummaryWords

	var issues []string
	if len(p.Tags) != TagCount {
		issues = append(issues, fmt.Sprintf("Need exactly %d tags (got %d)", TagCount, len(p.Tags)))
	}
	if n := WordCount(p.Summary); n > maxWords {
		issues = append(issues, fmt.Sprintf("Summary too long (%d words, max %d)", n, maxWords))
	}
	for _, t := range p.Tags {
		if strings.TrimSpace(t) == "" {
			issues = append(issues, "One or more tags are empty")
			break
		}
	}
	if strings.TrimSpace(p.Summary) == "" {
		issues = append(issues, "Summary is empty")
	}

	verdict := ReviewVerdict{}
	if a.opts.SemanticCheck != SemanticOff {
		relevant, err := a.checkRelevance(ctx, s)
		if err != nil {
			return Update{}, err
		}
		verdict.Relevant = &relevant
		if !relevant {
			a.log.Info("reviewer judged tags not relevant",
				zap.String("run_id", s.RunID),
				zap.String("mode", string(a.opts.SemanticCheck)))
			if a.opts.SemanticCheck == SemanticAuthoritative {
				issues = append(issues, "Tags are not relevant to the content")
			}
		}
	}
	if a.opts.ForceIssue {
		issues = append(issues, "FORCED TEST ISSUE: Please revise the tags to be more specific.")
	}

	if len(issues) > 0 {
		verdict.HasIssues = true
		verdict.Issues = strings.Join(issues, "; ")
		a.log.Info("reviewer found issues", zap.String("run_id", s.RunID), zap.String("issues", verdict.Issues))
	} else {
		a.log.Info("reviewer approved proposal", zap.String("run_id", s.RunID))
	}
	return Update{Verdict: &verdict}, nil
}

func (a *Agent) checkRelevance(ctx context.Context, s State) (bool, error) {
	raw, err := a.invoke(ctx, BuildRelevancePrompt(s.Proposal.Tags, s.Item.Content, a.opts.ExcerptRunes))
	if err != nil {
		return false, err
	}
	answer := strings.ToUpper(strings.TrimSpace(raw))
	a.log.Debug("relevance answer", zap.String("run_id", s.RunID), zap.String("answer", answer))
	return strings.HasPrefix(answer, "YES"), nil
}

// Finalize 对已审查的结果做最后一次润色；解析失败时保留审查通过的版本。
func (a *Agent) Finalize(ctx context.Context, s State) (Update, error) {
	base := DefaultProposal()
	if s.Proposal != nil {
		base = *s.Proposal
	}
	raw, err := a.invoke(ctx, BuildFinalizerPrompt(s.Item, base, a.opts.MaxSummaryWords))
	if err != nil {
		return Update{}, err
	}
	a.log.Debug("finalizer raw output", zap.String("run_id", s.RunID), zap.String("text", raw))

	rec, err := Extract(raw)
	if err != nil {
		a.log.Warn("finalizer output unparseable, keeping reviewed proposal",
			zap.String("run_id", s.RunID), zap.Error(err))
		final := base.clone()
		return Update{Final: &final}, nil
	}
	final := Normalize(rec, a.opts.MaxSummaryWords)
	a.log.Info("finalizer proposal", zap.String("run_id", s.RunID), zap.Strings("tags", final.Tags))
	return Update{Final: &final}, nil
}
