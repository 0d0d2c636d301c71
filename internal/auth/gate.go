// Package auth decides which thought operations require an access token
// and resolves presented tokens to a principal.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/happythoughts/apiserver/types"
)

// Operation names a thought operation that can be gated.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationDelete Operation = "delete"
	OperationLike   Operation = "like"
	OperationList   Operation = "list"
	OperationGet    Operation = "get"
)

// ErrUnauthorized is returned when a gated operation is attempted without
// a token that resolves to a user.
var ErrUnauthorized = errors.New("unauthorized")

var knownOperations = map[Operation]bool{
	OperationCreate: true,
	OperationDelete: true,
	OperationLike:   true,
	OperationList:   true,
	OperationGet:    true,
}

// Policy maps an operation to whether it requires authentication.
// Operations absent from the map are open.
type Policy map[Operation]bool

// ParsePolicy builds a policy from operation names. The single name
// "none" yields an empty policy.
func ParsePolicy(names []string) (Policy, error) {
	policy := Policy{}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if name == "none" {
			if len(names) > 1 {
				return nil, errors.New(`"none" cannot be combined with other operations`)
			}
			return Policy{}, nil
		}
		op := Operation(name)
		if !knownOperations[op] {
			return nil, fmt.Errorf("unknown operation %q", name)
		}
		policy[op] = true
	}
	return policy, nil
}

// TokenResolver finds the user owning an access token.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (types.User, bool, error)
}

// Gate applies a Policy using a TokenResolver.
type Gate struct {
	resolver TokenResolver
	policy   Policy
}

func NewGate(resolver TokenResolver, policy Policy) *Gate {
	if policy == nil {
		policy = Policy{}
	}
	return &Gate{resolver: resolver, policy: policy}
}

// Requires reports whether op needs an authenticated caller.
func (g *Gate) Requires(op Operation) bool {
	return g.policy[op]
}

// Authenticate resolves token to a principal. Lookup failures other than
// a missing match are returned wrapped so callers can tell them apart
// from ErrUnauthorized.
func (g *Gate) Authenticate(ctx context.Context, token string) (types.Principal, error) {
	if token == "" {
		return types.Principal{}, ErrUnauthorized
	}
	user, found, err := g.resolver.ResolveToken(ctx, token)
	if err != nil {
		return types.Principal{}, fmt.Errorf("authenticate: %w", err)
	}
	if !found {
		return types.Principal{}, ErrUnauthorized
	}
	return types.Principal{UserID: user.ID, Name: user.Name}, nil
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p types.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (types.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(types.Principal)
	return p, ok
}
