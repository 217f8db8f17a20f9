// Package scoring computes problem values and team totals.
package scoring

import (
	"github.com/keeper-project/homepage-api/internal/config"
	"github.com/keeper-project/homepage-api/internal/types"
)

// Dynamic value parameters of a problem after config defaults are applied
type Params struct {
	Base  int64
	Min   int64
	Decay int64
}

// Resolves the parameters of a problem. `minScore` and `decay` may be nil,
// in which case the config defaults apply.
func ParamsFor(cfg config.ScoringConfig, base int64, minScore, decay *int64) Params {
	p := Params{
		Base:  base,
		Min:   base * cfg.MinScorePercent / 100,
		Decay: cfg.Decay,
	}
	if minScore != nil {
		p.Min = *minScore
	}
	if decay != nil {
		p.Decay = *decay
	}
	if p.Min > p.Base {
		p.Min = p.Base
	}
	if p.Min < 0 {
		p.Min = 0
	}

	return p
}

// Value of a dynamic problem every solver is awarded once `solvers` distinct
// teams solved it. Non-increasing in `solvers` and never below Min.
func (p Params) Value(solvers int64) int64 {
	if solvers <= 1 {
		return p.Base
	}

	// base - decay*(n-1) without overflowing on large decays
	steps := solvers - 1
	if p.Decay > 0 && steps > (p.Base-p.Min)/p.Decay {
		return p.Min
	}

	v := p.Base - p.Decay*steps
	if v < p.Min {
		return p.Min
	}

	return v
}

// Problem as seen by the scoring engine
type Problem struct {
	Type   types.ProblemType
	Params Params
	// distinct solving teams
	Solvers int64
}

// Points a single solve of the problem is currently worth
func (p Problem) Award() int64 {
	if p.Type == types.ProblemTypeDynamic {
		return p.Params.Value(p.Solvers)
	}

	return p.Params.Base
}
