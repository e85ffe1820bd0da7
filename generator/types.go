package generator

import "time"

// WorkItem 是一次工作流的输入，创建后不再修改。
type WorkItem struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// Record 是从模型文本中抽取出的原始结果，尚未校验。
// Tags 可能包含非字符串元素，由 Normalize 过滤。
type Record struct {
	Tags    []any
	Summary string
}

// Proposal is the tags+summary candidate passed between stages.
type Proposal struct {
	Tags    []string `json:"tags"`
	Summary string   `json:"summary"`
}

func (p Proposal) clone() Proposal {
	return Proposal{Tags: append([]string(nil), p.Tags...), Summary: p.Summary}
}

// ReviewVerdict 记录 Reviewer 的判定。
type ReviewVerdict struct {
	HasIssues bool   `json:"has_issues"`
	Issues    string `json:"issues,omitempty"`
	// Relevant 为语义相关性检查的结果，未执行检查时为 nil。
	Relevant *bool `json:"relevant,omitempty"`
}

func (v ReviewVerdict) clone() ReviewVerdict {
	if v.Relevant != nil {
		r := *v.Relevant
		v.Relevant = &r
	}
	return v
}

// State is the shared workflow state. Only the Session mutates it; stages
// receive a snapshot and return an Update.
type State struct {
	RunID     string
	Item      WorkItem
	Proposal  *Proposal
	Verdict   *ReviewVerdict
	Final     *Proposal
	TurnCount int
}

func (s State) snapshot() State {
	out := s
	if s.Proposal != nil {
		p := s.Proposal.clone()
		out.Proposal = &p
	}
	if s.Verdict != nil {
		v := s.Verdict.clone()
		out.Verdict = &v
	}
	if s.Final != nil {
		f := s.Final.clone()
		out.Final = &f
	}
	return out
}

// Update 是阶段返回的增量；nil 字段表示不修改对应键。
type Update struct {
	Proposal *Proposal
	Verdict  *ReviewVerdict
	Final    *Proposal
	// ClearVerdict drops the previous verdict so a revised proposal is reviewed again.
	ClearVerdict bool
}

// merge applies u with shallow key overwrite.
func (s *State) merge(u Update) {
	if u.ClearVerdict {
		s.Verdict = nil
	}
	if u.Proposal != nil {
		s.Proposal = u.Proposal
	}
	if u.Verdict != nil {
		s.Verdict = u.Verdict
	}
	if u.Final != nil {
		s.Final = u.Final
	}
}

// Turn 记录一次循环（路由 + 阶段执行），用于输出过程记录。
type Turn struct {
	Number    int            `json:"turn"`
	Stage     Stage          `json:"stage"`
	Proposal  *Proposal      `json:"proposal,omitempty"`
	Verdict   *ReviewVerdict `json:"verdict,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

const (
	StatusApproved      = "approved"
	StatusNeedsRevision = "needs_revision"
)

// FinalRecord is the schema-valid result of a workflow run.
type FinalRecord struct {
	RunID        string   `json:"run_id"`
	Title        string   `json:"title"`
	Tags         []string `json:"tags"`
	Summary      string   `json:"summary"`
	TotalTurns   int      `json:"total_turns"`
	ReviewStatus string   `json:"review_status"`
	Outcome      string   `json:"outcome"`
	Issues       string   `json:"issues,omitempty"`
	Transcript   []Turn   `json:"transcript,omitempty"`
}
