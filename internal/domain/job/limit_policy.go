package job

import "errors"

// ErrInvalidLimitPolicy indicates the configured default or ceiling is not usable.
var ErrInvalidLimitPolicy = errors.New("list limit default must be positive and not exceed the ceiling")

// LimitSource identifies how a list limit was resolved.
type LimitSource string

const (
	// LimitSourceExplicit indicates the caller supplied a limit within range.
	LimitSourceExplicit LimitSource = "explicit"
	// LimitSourceDefault indicates the default limit was used.
	LimitSourceDefault LimitSource = "default"
	// LimitSourceClamped indicates the requested limit was clamped to the ceiling.
	LimitSourceClamped LimitSource = "clamped"
)

// LimitPolicy normalises row caps for job listings.
type LimitPolicy struct {
	defaultLimit int
	maxLimit     int
}

// NewLimitPolicy constructs a LimitPolicy.
func NewLimitPolicy(defaultLimit, maxLimit int) (*LimitPolicy, error) {
	if defaultLimit <= 0 || maxLimit < defaultLimit {
		return nil, ErrInvalidLimitPolicy
	}
	return &LimitPolicy{defaultLimit: defaultLimit, maxLimit: maxLimit}, nil
}

// LimitDecision captures the outcome of resolving a limit request.
type LimitDecision struct {
	Limit     int
	Source    LimitSource
	Requested int
}

// Resolve maps a requested limit onto [1, ceiling]. Zero or negative means "use the default".
func (p *LimitPolicy) Resolve(requested int) LimitDecision {
	d := LimitDecision{Requested: requested}
	switch {
	case requested <= 0:
		d.Limit = p.defaultLimit
		d.Source = LimitSourceDefault
	case requested > p.maxLimit:
		d.Limit = p.maxLimit
		d.Source = LimitSourceClamped
	default:
		d.Limit = requested
		d.Source = LimitSourceExplicit
	}
	return d
}

// Max returns the ceiling.
func (p *LimitPolicy) Max() int { return p.maxLimit }
