// Package safety classifies every action as safe, dangerous or blocked
// and aggregates a plan-level verdict that gates execution. Any blocked
// action voids the whole plan; this is deliberately fail-closed.
package safety

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/arjunsk/max/internal/plan"
)

// Class is the three-tier per-action risk classification.
type Class int

const (
	ClassSafe Class = iota
	ClassDangerous
	ClassBlocked
)

func (c Class) String() string {
	switch c {
	case ClassSafe:
		return "safe"
	case ClassDangerous:
		return "dangerous"
	case ClassBlocked:
		return "blocked"
	}
	return "unknown"
}

// pathParams are the parameter keys carrying filesystem paths.
var pathParams = []string{"path", "source", "destination"}

// blockedURLPatterns deny schemes that can execute or exfiltrate.
var blockedURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^javascript:`),
	regexp.MustCompile(`^data:`),
	regexp.MustCompile(`^file:///`),
}

// sensitiveDirs are system directory names that make a path dangerous
// (but not blocked) when they appear as a path component.
var sensitiveDirs = map[string]bool{
	"system32": true,
	"syswow64": true,
	"boot":     true,
	"recovery": true,
}

// dangerousKeyCombos require confirmation; none are blocked outright.
var dangerousKeyCombos = []string{
	"alt+f4",
	"ctrl+alt+delete",
	"ctrl+shift+delete",
	"win+l",
}

// Policy is the immutable rule set the classifier evaluates against.
// Constructed once at startup and passed by reference.
type Policy struct {
	protectedRoots []string
}

// NewPolicy canonicalizes the protected roots. Paths that cannot be
// made absolute are kept verbatim; containment checks will still apply.
func NewPolicy(protectedPaths []string) *Policy {
	roots := make([]string, 0, len(protectedPaths))
	for _, p := range protectedPaths {
		if abs, err := filepath.Abs(p); err == nil {
			roots = append(roots, abs)
		} else {
			roots = append(roots, p)
		}
	}
	return &Policy{protectedRoots: roots}
}

// ProtectedRoots returns the canonical protected roots, for logging.
func (p *Policy) ProtectedRoots() []string {
	return append([]string(nil), p.protectedRoots...)
}

// Verdict is the plan-level aggregation of per-action classes.
// Invariants: Approved is false whenever BlockedIdx is non-empty, and
// NeedsConfirmation is true whenever DangerousIdx is non-empty.
type Verdict struct {
	Approved          bool
	NeedsConfirmation bool
	BlockedIdx        []int
	DangerousIdx      []int
	SafeIdx           []int
	Reasons           []string
}

// Validator applies the policy to actions and plans. The safe-mode flag
// is the only mutable cell: when set, any dangerous action forces
// confirmation regardless of what the plan claims.
type Validator struct {
	policy   *Policy
	safeMode atomic.Bool
}

func NewValidator(policy *Policy, safeMode bool) *Validator {
	v := &Validator{policy: policy}
	v.safeMode.Store(safeMode)
	return v
}

func (v *Validator) SetSafeMode(on bool) { v.safeMode.Store(on) }
func (v *Validator) SafeMode() bool      { return v.safeMode.Load() }

// Classify labels a single action. Path checks run for every
// path-bearing parameter regardless of the action's type, so a
// protected-root path always blocks.
func (v *Validator) Classify(action plan.Action) Class {
	if !plan.AllActionTypes[action.Type] {
		return ClassBlocked
	}

	dangerous := false
	for _, key := range pathParams {
		raw, ok := action.Parameters[key].(string)
		if !ok {
			continue
		}
		switch v.checkPath(raw) {
		case ClassBlocked:
			return ClassBlocked
		case ClassDangerous:
			dangerous = true
		}
	}

	if raw, ok := action.Parameters["url"].(string); ok {
		if checkURL(raw) == ClassBlocked {
			return ClassBlocked
		}
	}

	if action.Type == "press_key" {
		if combo, ok := action.Parameters["key"].(string); ok {
			switch checkKeyCombo(combo) {
			case ClassBlocked:
				return ClassBlocked
			case ClassDangerous:
				dangerous = true
			}
		}
	}

	if dangerous || plan.DangerousActions[action.Type] {
		return ClassDangerous
	}
	return ClassSafe
}

// ValidatePlan classifies every action by index and aggregates the
// verdict. A reason string is recorded for every non-safe action.
func (v *Validator) ValidatePlan(p *plan.Plan) Verdict {
	verdict := Verdict{
		Approved:          true,
		NeedsConfirmation: p.RequiresConfirmation,
	}

	for i, action := range p.Actions {
		switch v.Classify(action) {
		case ClassBlocked:
			verdict.BlockedIdx = append(verdict.BlockedIdx, i)
			verdict.Reasons = append(verdict.Reasons,
				fmt.Sprintf("Action %d (%s) is BLOCKED: violates safety policy", i+1, action.Type))
		case ClassDangerous:
			verdict.DangerousIdx = append(verdict.DangerousIdx, i)
			verdict.NeedsConfirmation = true
			verdict.Reasons = append(verdict.Reasons,
				fmt.Sprintf("Action %d (%s) requires confirmation", i+1, action.Type))
		default:
			verdict.SafeIdx = append(verdict.SafeIdx, i)
		}
	}

	if len(verdict.BlockedIdx) > 0 {
		verdict.Approved = false
	}
	if v.SafeMode() && len(verdict.DangerousIdx) > 0 {
		verdict.NeedsConfirmation = true
	}
	return verdict
}

// checkPath resolves the path and tests exact containment against each
// protected root (canonical comparison, not substring). Outside the
// protected roots, sensitive directory names downgrade to dangerous.
func (v *Validator) checkPath(raw string) Class {
	abs, err := filepath.Abs(raw)
	if err != nil {
		return ClassBlocked
	}

	for _, root := range v.policy.protectedRoots {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return ClassBlocked
		}
	}

	// Windows-style paths may arrive from the model; split on both
	// separators so component checks work either way.
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == '/' || r == '\\'
	}) {
		if sensitiveDirs[strings.ToLower(part)] {
			return ClassDangerous
		}
	}

	return ClassSafe
}

// checkURL accepts http/https and bare scheme-less strings (implicitly
// upgraded to https downstream); everything else is blocked.
func checkURL(raw string) Class {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	for _, re := range blockedURLPatterns {
		if re.MatchString(lowered) {
			return ClassBlocked
		}
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ClassBlocked
	}
	if parsed.Scheme == "" {
		return ClassSafe
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ClassBlocked
	}
	return ClassSafe
}

func checkKeyCombo(combo string) Class {
	normalized := strings.ReplaceAll(strings.ToLower(combo), " ", "")
	for _, dangerous := range dangerousKeyCombos {
		if normalized == dangerous {
			return ClassDangerous
		}
	}
	return ClassSafe
}
