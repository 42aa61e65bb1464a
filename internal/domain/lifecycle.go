package domain

const (
	// TokenName is the name of the managed project access token.
	TokenName = "ci-publish-token"
	// VariableKey is the CI/CD variable holding the token value.
	VariableKey = "CI_PUBLISH_TOKEN"
	// VariableDescription is written with the variable on every set or update.
	VariableDescription = "Project access token managed by tokenkeeper"
	// LeaseKey is the CI/CD variable used as a run lease.
	LeaseKey = "CI_PUBLISH_TOKEN_LEASE"

	// RequiredScope must be granted to the acting credential.
	RequiredScope = "api"
	// MaintainerAccessLevel is GitLab's numeric Maintainer role.
	MaintainerAccessLevel = 40
)

// TokenScopes are granted to a newly created token.
var TokenScopes = []string{"api", "write_repository"}

// TokenState is what the inspector found in the token registry.
type TokenState struct {
	Present   bool
	ID        int
	ExpiresAt string
}

// VariableState is what the inspector found in the variable store.
type VariableState struct {
	Present bool
}

// Action is the single lifecycle decision for a run.
type Action string

const (
	ActionCreate       Action = "CREATE"
	ActionRotate       Action = "ROTATE"
	ActionRotateAndSet Action = "ROTATE_AND_SET"
	ActionSkip         Action = "SKIP"
)

// TokenWrite is the registry mutation of a plan.
type TokenWrite string

const (
	TokenWriteNone   TokenWrite = ""
	TokenWriteCreate TokenWrite = "create"
	TokenWriteRotate TokenWrite = "rotate"
)

// VariableWrite is the variable store mutation of a plan.
type VariableWrite string

const (
	VariableWriteNone   VariableWrite = ""
	VariableWriteSet    VariableWrite = "set"
	VariableWriteUpdate VariableWrite = "update"
)

// Plan is an action together with the exact writes it performs.
type Plan struct {
	Action        Action
	Token         TokenState
	Variable      VariableState
	TokenWrite    TokenWrite
	VariableWrite VariableWrite
}

// Mutates reports whether executing the plan writes anything.
func (p Plan) Mutates() bool {
	return p.TokenWrite != TokenWriteNone || p.VariableWrite != VariableWriteNone
}
