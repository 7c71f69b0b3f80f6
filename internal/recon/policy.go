package recon

// DefaultThreshold is the auto-accept confidence used when an interactive
// prompter is available.
const DefaultThreshold = 0.95

// BatchThreshold is the lower auto-accept confidence used when no prompter
// is available and the run cannot ask anyone.
const BatchThreshold = 0.6

// promptLimit caps how many candidates are shown for manual disambiguation.
const promptLimit = 5

// Policy decides, per distinct raw beneficiary name, whether to auto-accept
// the best roster candidate, ask the prompter, or give up. Decisions are
// memoized for the run: repeated names never re-rank and never re-prompt,
// and an unresolved name stays unresolved.
//
// Policy is owned by a single Runner and is not safe for concurrent use.
type Policy struct {
	threshold float64
	prompter  Prompter
	memo      map[string]ResolutionResult
}

// NewPolicy builds a resolution policy. prompter may be nil, in which case
// every sub-threshold name is skipped instead of prompted.
func NewPolicy(threshold float64, prompter Prompter) *Policy {
	return &Policy{
		threshold: threshold,
		prompter:  prompter,
		memo:      make(map[string]ResolutionResult),
	}
}

// Resolve maps a raw beneficiary name to a roster identity. The top
// candidate is auto-accepted when its score meets the threshold
// (inclusive). Below threshold the prompter, if any, sees at most five
// candidates and may pick one or signal a skip.
func (p *Policy) Resolve(name string, roster []BillpayerIdentity) ResolutionResult {
	if res, ok := p.memo[name]; ok {
		return res
	}

	res := p.decide(name, Rank(name, roster))
	p.memo[name] = res
	return res
}

func (p *Policy) decide(name string, candidates []Candidate) ResolutionResult {
	if len(candidates) == 0 {
		return ResolutionResult{SourceName: name}
	}

	top := candidates[0]
	if top.Score >= p.threshold {
		id := top.Identity
		return ResolutionResult{SourceName: name, Matched: &id, Confidence: top.Score}
	}

	if p.prompter == nil {
		return ResolutionResult{SourceName: name}
	}

	shown := candidates
	if len(shown) > promptLimit {
		shown = shown[:promptLimit]
	}
	idx, ok := p.prompter.Choose(name, shown)
	if !ok || idx < 0 || idx >= len(shown) {
		return ResolutionResult{SourceName: name}
	}

	picked := shown[idx]
	id := picked.Identity
	return ResolutionResult{SourceName: name, Matched: &id, Confidence: picked.Score}
}
