package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	OutcomeApproved  = "approved"
	OutcomeTurnLimit = "turn_limit"
)

// Session 持有一次工作流的状态，反复执行 计数 → 路由 → 阶段 → 合并，直到终止。
type Session struct {
	ID      string
	History []Turn

	state    State
	stages   map[Stage]StageFunc
	route    RouteConfig
	maxWords int
	log      *zap.Logger
}

// NewSession 创建 session，运行 ID 由 session 自己分配。
func NewSession(item WorkItem, agent *Agent) *Session {
	o := agent.Options()
	return NewSessionWithStages(item, agent.Stages(), RouteConfig{MaxTurns: o.MaxTurns, Finalize: o.Finalize}, o.MaxSummaryWords, o.Logger)
}

// NewSessionWithStages lets callers plug in their own stage functions.
func NewSessionWithStages(item WorkItem, stages map[Stage]StageFunc, route RouteConfig, maxWords int, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if maxWords <= 0 {
		maxWords = DefaultMaxSummaryWords
	}
	id := uuid.NewString()
	return &Session{
		ID:       id,
		state:    State{RunID: id, Item: item},
		stages:   stages,
		route:    route,
		maxWords: maxWords,
		log:      log.With(zap.String("run_id", id)),
	}
}

// State returns a copy of the current workflow state.
func (s *Session) State() State {
	return s.state.snapshot()
}

// Run 驱动循环直到审查通过或达到轮数上限。只有模型调用失败会返回错误。
func (s *Session) Run(ctx context.Context) (FinalRecord, error) {
	s.log.Info("workflow started", zap.String("title", s.state.Item.Title), zap.Int("max_turns", s.route.MaxTurns))
	for {
		s.state.TurnCount++
		d := Route(s.state, s.route)
		s.log.Debug("route",
			zap.Int("turn", s.state.TurnCount),
			zap.String("stage", string(d.Next)),
			zap.String("route", string(d.State)))
		if d.State.IsTerminal() {
			rec := s.result(d.State)
			s.log.Info("workflow finished",
				zap.Int("turns", rec.TotalTurns),
				zap.String("outcome", rec.Outcome),
				zap.String("review_status", rec.ReviewStatus))
			return rec, nil
		}

		fn, ok := s.stages[d.Next]
		if !ok || fn == nil {
			return FinalRecord{}, fmt.Errorf("no stage registered for %q", d.Next)
		}
		u, err := fn(ctx, s.state.snapshot())
		if err != nil {
			s.log.Error("stage failed", zap.String("stage", string(d.Next)), zap.Error(err))
			return FinalRecord{}, err
		}
		s.state.merge(u)
		s.appendTurn(d.Next, u)
	}
}

func (s *Session) appendTurn(stage Stage, u Update) {
	t := Turn{Number: s.state.TurnCount, Stage: stage, CreatedAt: time.Now()}
	if p := u.Proposal; p != nil {
		c := p.clone()
		t.Proposal = &c
	}
	if p := u.Final; p != nil {
		c := p.clone()
		t.Proposal = &c
	}
	if v := u.Verdict; v != nil {
		c := v.clone()
		t.Verdict = &c
	}
	s.History = append(s.History, t)
}

// result 总是返回满足约束的记录：没有任何 Proposal 时使用兜底值。
func (s *Session) result(final RouteState) FinalRecord {
	p := DefaultProposal()
	switch {
	case s.state.Final != nil:
		p = s.state.Final.clone()
	case s.state.Proposal != nil:
		p = s.state.Proposal.clone()
	}
	raw := make([]any, len(p.Tags))
	for i, t := range p.Tags {
		raw[i] = t
	}
	p = Normalize(Record{Tags: raw, Summary: p.Summary}, s.maxWords)
	if strings.TrimSpace(p.Summary) == "" {
		p.Summary = DefaultProposal().Summary
	}

	rec := FinalRecord{
		RunID:        s.ID,
		Title:        s.state.Item.Title,
		Tags:         p.Tags,
		Summary:      p.Summary,
		TotalTurns:   s.state.TurnCount,
		ReviewStatus: StatusNeedsRevision,
		Outcome:      OutcomeTurnLimit,
		Transcript:   append([]Turn(nil), s.History...),
	}
	if v := s.state.Verdict; v != nil {
		if v.HasIssues {
			rec.Issues = v.Issues
		} else {
			rec.ReviewStatus = StatusApproved
		}
	}
	if final == Approved {
		rec.Outcome = OutcomeApproved
	}
	return rec
}

// Run is the workflow entry point: one WorkItem, processed to completion.
func Run(ctx context.Context, llm LLMClient, title, content string, opts ...Option) (FinalRecord, error) {
	agent, err := NewAgent(llm, opts...)
	if err != nil {
		return FinalRecord{}, err
	}
	return NewSession(WorkItem{Title: title, Content: content}, agent).Run(ctx)
}
