package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/workbridge/workbridge/internal/shared"
)

// Policy is the authorization requirement of one endpoint. The zero Policy
// admits any authenticated principal.
type Policy struct {
	Role      shared.Role
	Ownership OwnershipRule
}

// Name is the label used for logs and metrics.
func (p Policy) Name() string {
	switch {
	case p.Ownership != nil && p.Role != "":
		return "role:" + string(p.Role) + "+" + p.Ownership.Name()
	case p.Ownership != nil:
		return p.Ownership.Name()
	case p.Role != "":
		return "role:" + string(p.Role)
	default:
		return "authenticated"
	}
}

// Validate rejects policies that reference unknown roles, fields or kinds.
func (p Policy) Validate() error {
	if p.Role != "" && !p.Role.Valid() {
		return fmt.Errorf("authz: unknown role %q", p.Role)
	}
	if p.Ownership != nil {
		return p.Ownership.validate()
	}
	return nil
}

// Reason tags the outcome of a decision.
type Reason string

// Decision reasons.
const (
	ReasonAllowed      Reason = "allowed"
	ReasonForbidden    Reason = "forbidden"
	ReasonNotFound     Reason = "not_found"
	ReasonNoToken      Reason = "no_token"
	ReasonTokenInvalid Reason = "token_invalid"
	ReasonUserNotFound Reason = "user_not_found"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
	Message string
}

// Err converts a deny into its taxonomy error; it returns nil on allow.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	var base error
	switch d.Reason {
	case ReasonNotFound:
		base = shared.ErrNotFound
	case ReasonNoToken:
		base = shared.ErrNoToken
	case ReasonTokenInvalid:
		base = shared.ErrTokenInvalid
	case ReasonUserNotFound:
		base = shared.ErrUserNotFound
	default:
		base = shared.ErrForbidden
	}
	if d.Message == "" {
		return base
	}
	return &denyError{base: base, msg: d.Message}
}

type denyError struct {
	base error
	msg  string
}

func (e *denyError) Error() string { return e.msg }
func (e *denyError) Unwrap() error { return e.base }

// DecisionFromAuthError maps a principal resolution failure to a deny.
func DecisionFromAuthError(err error) Decision {
	switch {
	case errors.Is(err, shared.ErrNoToken):
		return Decision{Reason: ReasonNoToken}
	case errors.Is(err, shared.ErrUserNotFound):
		return Decision{Reason: ReasonUserNotFound}
	default:
		return Decision{Reason: ReasonTokenInvalid}
	}
}

func allow() Decision { return Decision{Allowed: true, Reason: ReasonAllowed} }

func forbid(msg string) Decision {
	return Decision{Reason: ReasonForbidden, Message: msg}
}

// Loader fetches the row a rule is evaluated against.
type Loader interface {
	Load(ctx context.Context, ref ResourceRef) (Resource, error)
}

// Recorder observes decisions, typically as metrics.
type Recorder interface {
	ObserveDecision(policy string, reason string)
}

// Decide applies policy to an already loaded resource. A nil resource means
// the target does not exist, which is reported before any ownership check.
// Admin satisfies every role requirement and bypasses ownership.
func Decide(p shared.Principal, res *Resource, policy Policy) Decision {
	if policy.Role != "" && p.Role != policy.Role && !p.IsAdmin() {
		return forbid("requires role " + string(policy.Role))
	}
	if policy.Ownership == nil {
		return allow()
	}
	if res == nil {
		return Decision{Reason: ReasonNotFound}
	}
	if p.IsAdmin() || policy.Ownership.allows(p, *res) {
		return allow()
	}
	return forbid(policy.Ownership.Name() + " check failed")
}

// Evaluator resolves resources and applies policies.
type Evaluator struct {
	loader   Loader
	recorder Recorder
}

// NewEvaluator constructs an Evaluator. recorder may be nil.
func NewEvaluator(loader Loader, recorder Recorder) *Evaluator {
	return &Evaluator{loader: loader, recorder: recorder}
}

// Authorize evaluates policy for p against the resource located by req.
// The role requirement short-circuits before any load. The returned error
// is non-nil only for malformed locators (shared.ErrInvalidInput) and
// storage failures; denials are reported through the Decision.
func (e *Evaluator) Authorize(ctx context.Context, p shared.Principal, policy Policy, req Request) (Decision, error) {
	d, err := e.authorize(ctx, p, policy, req)
	switch {
	case err == nil:
		e.observe(policy, d.Reason)
	case errors.Is(err, shared.ErrInvalidInput):
		e.observe(policy, "invalid_input")
	}
	return d, err
}

func (e *Evaluator) authorize(ctx context.Context, p shared.Principal, policy Policy, req Request) (Decision, error) {
	if d := Decide(p, nil, Policy{Role: policy.Role}); !d.Allowed {
		return d, nil
	}
	if policy.Ownership == nil {
		return allow(), nil
	}
	res, err := policy.Ownership.resolve(ctx, e.loader, req)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			d := Decide(p, nil, policy)
			d.Message = err.Error()
			return d, nil
		}
		return Decision{}, err
	}
	return Decide(p, &res, policy), nil
}

func (e *Evaluator) observe(policy Policy, reason Reason) {
	if e.recorder != nil {
		e.recorder.ObserveDecision(policy.Name(), string(reason))
	}
}
