package dice

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Roller wraps a Source and logger to provide logged proc rolling.
// Every branch is logged at debug level with proc name, chance, override, and outcome.
// Roller counts the values it draws so callers can assert draw-free evaluation.
type Roller struct {
	src    Source
	logger *zap.Logger
	draws  atomic.Int64
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src must be non-nil; a nil logger is replaced by zap.NewNop().
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Chance evaluates one named branch and logs the result at debug level.
//
// Postcondition: Draws() increases by one exactly when the result was sampled.
func (r *Roller) Chance(proc string, p float64, o Override) bool {
	res := Chance(r.src, proc, p, o)
	if res.Sampled {
		r.draws.Add(1)
	}
	if ce := r.logger.Check(zap.DebugLevel, "proc roll"); ce != nil {
		ce.Write(
			zap.String("proc", res.Proc),
			zap.Float64("chance", res.Chance),
			zap.Stringer("override", res.Override),
			zap.Bool("sampled", res.Sampled),
			zap.Float64("draw", res.Draw),
			zap.Bool("fired", res.Fired),
		)
	}
	return res.Fired
}

// Float64 draws one raw value, counting it.
func (r *Roller) Float64() float64 {
	r.draws.Add(1)
	return r.src.Float64()
}

// Draws reports how many values have been drawn from the underlying Source.
func (r *Roller) Draws() int64 {
	return r.draws.Load()
}
