package domain

// GitLabServices contains the API collaborators bound to one credential.
type GitLabServices struct {
	Tokens      TokenRegistry
	Variables   VariableStore
	Permissions PermissionClient
	Leases      LeaseStore
}

// GitLabServiceFactory creates GitLab services with the appropriate HTTP configuration.
type GitLabServiceFactory interface {
	CreateServices(env Environment, insecureSkipTLS bool) GitLabServices
}
