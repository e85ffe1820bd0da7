package generator

import (
	"context"
	"sync"
)

// scriptedLLM replays canned replies per stage; the last reply repeats.
type scriptedLLM struct {
	mu      sync.Mutex
	replies map[Stage][]string
	err     error
	calls   []Prompt
}

func newScriptedLLM(replies map[Stage][]string) *scriptedLLM {
	return &scriptedLLM{replies: replies}
}

func (f *scriptedLLM) Complete(_ context.Context, p Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	if f.err != nil {
		return "", f.err
	}
	q := f.replies[p.Stage]
	if len(q) == 0 {
		return "", nil
	}
	r := q[0]
	if len(q) > 1 {
		f.replies[p.Stage] = q[1:]
	}
	return r, nil
}

func (f *scriptedLLM) callsFor(stage Stage) []Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Prompt
	for _, p := range f.calls {
		if p.Stage == stage {
			out = append(out, p)
		}
	}
	return out
}

// blockingLLM waits for the context to expire.
type blockingLLM struct{}

func (blockingLLM) Complete(ctx context.Context, _ Prompt) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
