package domain

import "fmt"

// Environment is the resolved context of one run. It is built once by the
// environment resolver and handed to every later stage.
type Environment struct {
	Host               string
	Scheme             string
	ProjectPath        string
	EncodedProjectPath string
	UserID             int
	Credential         string
	CredentialSource   string
	// ProjectSource names where Host and ProjectPath came from.
	ProjectSource string
}

// APIBaseURL returns the REST API v4 root for the resolved host.
func (e Environment) APIBaseURL() string {
	scheme := e.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/api/v4", scheme, e.Host)
}
