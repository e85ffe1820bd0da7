package generator

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SemanticCheck controls how the Reviewer uses the YES/NO relevance call.
type SemanticCheck string

const (
	SemanticOff           SemanticCheck = "off"
	SemanticAdvisory      SemanticCheck = "advisory"
	SemanticAuthoritative SemanticCheck = "authoritative"
)

// ParseSemanticCheck 解析配置中的模式，空字符串视为 advisory。
func ParseSemanticCheck(s string) (SemanticCheck, error) {
	switch SemanticCheck(s) {
	case "":
		return SemanticAdvisory, nil
	case SemanticOff, SemanticAdvisory, SemanticAuthoritative:
		return SemanticCheck(s), nil
	default:
		return "", fmt.Errorf("unknown semantic check mode %q (want off, advisory or authoritative)", s)
	}
}

const (
	// DefaultCallTimeout absorbs cold-start latency of local models.
	DefaultCallTimeout  = 180 * time.Second
	DefaultExcerptRunes = 200
)

// Options 汇总一次工作流的可调参数。
type Options struct {
	MaxTurns        int
	MaxSummaryWords int
	// Finalize 打开后，审查通过的结果会再经过 Finalizer 润色一次。
	Finalize      bool
	SemanticCheck SemanticCheck
	ExcerptRunes  int
	CallTimeout   time.Duration
	// ForceIssue makes every review report an issue. Test harnesses only.
	ForceIssue bool
	Logger     *zap.Logger
}

// Option mutates Options.
type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		MaxTurns:        DefaultMaxTurns,
		MaxSummaryWords: DefaultMaxSummaryWords,
		SemanticCheck:   SemanticAdvisory,
		ExcerptRunes:    DefaultExcerptRunes,
		CallTimeout:     DefaultCallTimeout,
	}
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.MaxTurns <= 0 {
		o.MaxTurns = DefaultMaxTurns
	}
	if o.MaxSummaryWords <= 0 {
		o.MaxSummaryWords = DefaultMaxSummaryWords
	}
	if o.SemanticCheck == "" {
		o.SemanticCheck = SemanticAdvisory
	}
	if o.ExcerptRunes <= 0 {
		o.ExcerptRunes = DefaultExcerptRunes
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func WithMaxTurns(n int) Option { return func(o *Options) { o.MaxTurns = n } }

func WithMaxSummaryWords(n int) Option { return func(o *Options) { o.MaxSummaryWords = n } }

func WithFinalize(on bool) Option { return func(o *Options) { o.Finalize = on } }

func WithSemanticCheck(m SemanticCheck) Option { return func(o *Options) { o.SemanticCheck = m } }

func WithExcerptRunes(n int) Option { return func(o *Options) { o.ExcerptRunes = n } }

func WithCallTimeout(d time.Duration) Option { return func(o *Options) { o.CallTimeout = d } }

func WithLogger(l *zap.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithForceIssue is a diagnostic switch for exercising the revision loop.
func WithForceIssue() Option { return func(o *Options) { o.ForceIssue = true } }

// WithOptions replaces all options at once, e.g. from loaded config.
func WithOptions(src Options) Option { return func(o *Options) { *o = src } }
