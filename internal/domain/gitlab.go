package domain

import "context"

// TokenRecord is a project access token as listed by the token registry.
// It never carries the token value.
type TokenRecord struct {
	ID          int
	Name        string
	ExpiresAt   string // YYYY-MM-DD, empty when the token never expires.
	Scopes      []string
	AccessLevel int
	Active      bool
	Revoked     bool
}

// TokenSpec describes a project access token to create.
type TokenSpec struct {
	Name        string
	Scopes      []string
	AccessLevel int
	ExpiresAt   string
}

// VariableRecord is a CI/CD variable as listed by the variable store.
// The value is write-only and never decoded.
type VariableRecord struct {
	Key              string
	Masked           bool
	Protected        bool
	Description      string
	EnvironmentScope string
}

// VariableSpec describes the attributes written alongside a variable value.
type VariableSpec struct {
	Key         string
	Masked      bool
	Protected   bool
	Description string
}

// TokenRegistry lists, creates and rotates project access tokens.
type TokenRegistry interface {
	ListTokens(ctx context.Context, project string) ([]TokenRecord, error)
	CreateToken(ctx context.Context, project string, spec TokenSpec) (SecretValue, TokenRecord, error)
	RotateToken(ctx context.Context, project string, tokenID int, expiresAt string) (SecretValue, TokenRecord, error)
}

// VariableStore lists and writes project CI/CD variables.
type VariableStore interface {
	ListVariables(ctx context.Context, project string) ([]VariableRecord, error)
	SetVariable(ctx context.Context, project string, spec VariableSpec, value SecretValue) error
	UpdateVariable(ctx context.Context, project string, spec VariableSpec, value SecretValue) error
}

// PermissionClient answers questions about the acting credential.
type PermissionClient interface {
	SelfScopes(ctx context.Context) ([]string, error)
	CurrentUserID(ctx context.Context) (int, error)
	AccessLevel(ctx context.Context, project string, userID int) (int, error)
}

// LeaseStore keeps plain, non-secret marker variables used for run leases.
type LeaseStore interface {
	// CreateVariable fails with ErrAlreadyExists when the key is taken.
	CreateVariable(ctx context.Context, project, key, value string) error
	GetVariableValue(ctx context.Context, project, key string) (string, error)
	DeleteVariable(ctx context.Context, project, key string) error
}

// RemoteInspector reads the URL of a git remote in the working directory.
type RemoteInspector interface {
	RemoteURL(ctx context.Context, remote string) (string, error)
}
