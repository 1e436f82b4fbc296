package tree

import (
	"fmt"
	"strings"

	"github.com/tree-builder/pkg/utils"
)

// CyclePolicy decides what a build does with records whose parent chain never
// reaches a root.
type CyclePolicy int

const (
	// CycleReject fails the build with a circular reference error.
	CycleReject CyclePolicy = iota

	// CycleKeep links cycle members under each other anyway. They end up
	// attached to one another and are missing from the returned roots.
	CycleKeep
)

// String returns the configuration name of the policy.
func (p CyclePolicy) String() string {
	switch p {
	case CycleReject:
		return "reject"
	case CycleKeep:
		return "keep"
	default:
		return fmt.Sprintf("CyclePolicy(%d)", int(p))
	}
}

// ParseCyclePolicy parses "reject" or "keep". Empty means reject.
func ParseCyclePolicy(s string) (CyclePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return CycleReject, nil
	case "keep":
		return CycleKeep, nil
	default:
		return CycleReject, fmt.Errorf("invalid cycle policy: %q (valid: reject, keep)", s)
	}
}

type options struct {
	cycles CyclePolicy
	logger utils.Logger
}

// Option configures a build.
type Option func(*options)

// WithCyclePolicy sets the policy for parent cycles. The default is CycleReject.
func WithCyclePolicy(p CyclePolicy) Option {
	return func(o *options) {
		o.cycles = p
	}
}

// WithLogger sets a logger for build statistics at debug level.
// If nil is passed, logging is disabled.
func WithLogger(l utils.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = &utils.NullLogger{}
		}
		o.logger = l
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		cycles: CycleReject,
		logger: &utils.NullLogger{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
