package generator

// Stage names a step of the workflow.
type Stage string

const (
	StagePlanner   Stage = "planner"
	StageReviewer  Stage = "reviewer"
	StageFinalizer Stage = "finalizer"
	StageEnd       Stage = "end"
)

// RouteState 描述路由决策的原因。
type RouteState string

const (
	NeedProposal  RouteState = "NEED_PROPOSAL"
	NeedReview    RouteState = "NEED_REVIEW"
	NeedsRevision RouteState = "NEEDS_REVISION"
	NeedFinal     RouteState = "NEED_FINAL"
	Approved      RouteState = "APPROVED"
	TurnLimit     RouteState = "TURN_LIMIT"
)

// IsTerminal reports whether the workflow stops in this state.
func (r RouteState) IsTerminal() bool {
	return r == Approved || r == TurnLimit
}

// DefaultMaxTurns is the hard ceiling on loop ticks.
const DefaultMaxTurns = 5

// RouteConfig 是路由所需的静态配置。
type RouteConfig struct {
	MaxTurns int
	Finalize bool
}

// Decision is the router's output for one tick.
type Decision struct {
	Next  Stage
	State RouteState
}

// Route 是纯函数：同样的状态与配置总是得到同样的决策。
func Route(s State, cfg RouteConfig) Decision {
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	switch {
	case s.TurnCount >= maxTurns:
		return Decision{Next: StageEnd, State: TurnLimit}
	case s.Proposal == nil:
		return Decision{Next: StagePlanner, State: NeedProposal}
	case s.Verdict == nil:
		return Decision{Next: StageReviewer, State: NeedReview}
	case s.Verdict.HasIssues:
		return Decision{Next: StagePlanner, State: NeedsRevision}
	case cfg.Finalize && s.Final == nil:
		return Decision{Next: StageFinalizer, State: NeedFinal}
	default:
		return Decision{Next: StageEnd, State: Approved}
	}
}
