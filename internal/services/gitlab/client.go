// Package gitlab implements the token registry, variable store, permission
// and lease collaborators over the GitLab REST API v4.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tokenkeeper/internal/domain"
	apperrors "tokenkeeper/internal/errors"
)

const (
	perPage  = 100
	maxPages = 50

	variableTypeEnv = "env_var"
)

// Client handles all GitLab API operations for one credential.
type Client struct {
	httpAdapter domain.HTTPAdapter
	baseURL     string
	token       string
	strategy    Strategy
	logger      *slog.Logger
}

// NewClient creates a new GitLab client bound to env's host and credential.
func NewClient(httpAdapter domain.HTTPAdapter, env domain.Environment, logger *slog.Logger) *Client {
	return &Client{
		httpAdapter: httpAdapter,
		baseURL:     strings.TrimSuffix(env.APIBaseURL(), "/"),
		token:       env.Credential,
		strategy:    HTTPStrategy(),
		logger:      logger,
	}
}

// ListTokens returns all project access tokens of project.
func (c *Client) ListTokens(ctx context.Context, project string) ([]domain.TokenRecord, error) {
	var tokens []domain.TokenRecord
	path := fmt.Sprintf("/projects/%s/access_tokens", project)

	err := c.paginate(ctx, "list_tokens", path, func(body []byte) (int, error) {
		var page []tokenData
		if err := json.Unmarshal(body, &page); err != nil {
			return 0, fmt.Errorf("failed to decode access tokens: %w", err)
		}
		for _, t := range page {
			tokens = append(tokens, t.record())
		}
		return len(page), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list access tokens: %w", err)
	}

	c.logger.DebugContext(ctx, "Listed project access tokens", "project", project, "count", len(tokens))
	return tokens, nil
}

// CreateToken creates a project access token and returns its value.
func (c *Client) CreateToken(
	ctx context.Context,
	project string,
	spec domain.TokenSpec,
) (domain.SecretValue, domain.TokenRecord, error) {
	payload := createTokenRequest{
		Name:        spec.Name,
		Scopes:      spec.Scopes,
		AccessLevel: spec.AccessLevel,
		ExpiresAt:   spec.ExpiresAt,
	}

	var resp tokenData
	path := fmt.Sprintf("/projects/%s/access_tokens", project)
	if err := c.doJSON(ctx, callWrite, "create_token", http.MethodPost, path, payload, &resp); err != nil {
		return domain.SecretValue{}, domain.TokenRecord{}, fmt.Errorf("failed to create access token: %w", err)
	}

	return c.sealTokenResponse(ctx, resp, "Created project access token")
}

// RotateToken rotates the token with tokenID and returns the new value.
func (c *Client) RotateToken(
	ctx context.Context,
	project string,
	tokenID int,
	expiresAt string,
) (domain.SecretValue, domain.TokenRecord, error) {
	var resp tokenData
	path := fmt.Sprintf("/projects/%s/access_tokens/%d/rotate", project, tokenID)
	payload := rotateTokenRequest{ExpiresAt: expiresAt}
	if err := c.doJSON(ctx, callWrite, "rotate_token", http.MethodPost, path, payload, &resp); err != nil {
		return domain.SecretValue{}, domain.TokenRecord{}, fmt.Errorf("failed to rotate access token %d: %w", tokenID, err)
	}

	return c.sealTokenResponse(ctx, resp, "Rotated project access token")
}

// ListVariables returns all CI/CD variables of project without their values.
func (c *Client) ListVariables(ctx context.Context, project string) ([]domain.VariableRecord, error) {
	var variables []domain.VariableRecord
	path := fmt.Sprintf("/projects/%s/variables", project)

	err := c.paginate(ctx, "list_variables", path, func(body []byte) (int, error) {
		var page []variableData
		if err := json.Unmarshal(body, &page); err != nil {
			return 0, fmt.Errorf("failed to decode variables: %w", err)
		}
		for _, v := range page {
			variables = append(variables, v.record())
		}
		return len(page), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list variables: %w", err)
	}

	c.logger.DebugContext(ctx, "Listed project variables", "project", project, "count", len(variables))
	return variables, nil
}

// SetVariable creates a CI/CD variable holding value.
func (c *Client) SetVariable(
	ctx context.Context,
	project string,
	spec domain.VariableSpec,
	value domain.SecretValue,
) error {
	buf, err := value.Open()
	if err != nil {
		return fmt.Errorf("failed to open token value: %w", err)
	}
	defer buf.Destroy()

	payload := variableRequest{
		Key:          spec.Key,
		Value:        buf.String(),
		VariableType: variableTypeEnv,
		Masked:       spec.Masked,
		Protected:    spec.Protected,
		Description:  spec.Description,
	}
	path := fmt.Sprintf("/projects/%s/variables", project)
	err = c.doJSON(ctx, callWrite, "set_variable", http.MethodPost, path, payload, nil)
	if isTakenError(err) {
		return fmt.Errorf("variable %s: %w: %w", spec.Key, apperrors.ErrAlreadyExists, err)
	}
	if err != nil {
		return fmt.Errorf("failed to set variable %s: %w", spec.Key, err)
	}

	c.logger.InfoContext(ctx, "Set project variable",
		"key", spec.Key, "masked", spec.Masked, "protected", spec.Protected)
	return nil
}

// UpdateVariable replaces the value and attributes of an existing CI/CD variable.
func (c *Client) UpdateVariable(
	ctx context.Context,
	project string,
	spec domain.VariableSpec,
	value domain.SecretValue,
) error {
	buf, err := value.Open()
	if err != nil {
		return fmt.Errorf("failed to open token value: %w", err)
	}
	defer buf.Destroy()

	payload := variableRequest{
		Value:        buf.String(),
		VariableType: variableTypeEnv,
		Masked:       spec.Masked,
		Protected:    spec.Protected,
		Description:  spec.Description,
	}
	path := fmt.Sprintf("/projects/%s/variables/%s", project, url.PathEscape(spec.Key))
	if err := c.doJSON(ctx, callWrite, "update_variable", http.MethodPut, path, payload, nil); err != nil {
		return fmt.Errorf("failed to update variable %s: %w", spec.Key, err)
	}

	c.logger.InfoContext(ctx, "Updated project variable",
		"key", spec.Key, "masked", spec.Masked, "protected", spec.Protected)
	return nil
}

// SelfScopes returns the scopes granted to the acting credential.
func (c *Client) SelfScopes(ctx context.Context) ([]string, error) {
	var resp selfTokenResponse
	if err := c.doJSON(ctx, callRead, "self_scopes", http.MethodGet, "/personal_access_tokens/self", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to read access token scopes: %w", err)
	}
	return resp.Scopes, nil
}

// CurrentUserID returns the id of the user owning the acting credential.
func (c *Client) CurrentUserID(ctx context.Context) (int, error) {
	var resp userResponse
	if err := c.doJSON(ctx, callRead, "current_user", http.MethodGet, "/user", nil, &resp); err != nil {
		return 0, fmt.Errorf("failed to read current user: %w", err)
	}
	return resp.ID, nil
}

// AccessLevel returns the effective (inherited included) access level of
// userID on project. Non-members have level 0.
func (c *Client) AccessLevel(ctx context.Context, project string, userID int) (int, error) {
	var resp memberResponse
	path := fmt.Sprintf("/projects/%s/members/all/%d", project, userID)
	err := c.doJSON(ctx, callRead, "access_level", http.MethodGet, path, nil, &resp)
	if apperrors.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read access level of user %d: %w", userID, err)
	}
	return resp.AccessLevel, nil
}

// CreateVariable creates a plain, unmasked, unprotected variable. It fails
// with ErrAlreadyExists when key is taken.
func (c *Client) CreateVariable(ctx context.Context, project, key, value string) error {
	payload := variableRequest{
		Key:          key,
		Value:        value,
		VariableType: variableTypeEnv,
	}
	path := fmt.Sprintf("/projects/%s/variables", project)
	err := c.doJSON(ctx, callWrite, "create_variable", http.MethodPost, path, payload, nil)
	if isTakenError(err) {
		return fmt.Errorf("variable %s: %w: %w", key, apperrors.ErrAlreadyExists, err)
	}
	if err != nil {
		return fmt.Errorf("failed to create variable %s: %w", key, err)
	}
	return nil
}

// GetVariableValue reads the value of a plain variable.
func (c *Client) GetVariableValue(ctx context.Context, project, key string) (string, error) {
	var resp plainVariableResponse
	path := fmt.Sprintf("/projects/%s/variables/%s", project, url.PathEscape(key))
	if err := c.doJSON(ctx, callRead, "get_variable", http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to read variable %s: %w", key, err)
	}
	return resp.Value, nil
}

// DeleteVariable removes a variable.
func (c *Client) DeleteVariable(ctx context.Context, project, key string) error {
	path := fmt.Sprintf("/projects/%s/variables/%s", project, url.PathEscape(key))
	if err := c.doJSON(ctx, callWrite, "delete_variable", http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete variable %s: %w", key, err)
	}
	return nil
}

func (c *Client) sealTokenResponse(
	ctx context.Context,
	resp tokenData,
	message string,
) (domain.SecretValue, domain.TokenRecord, error) {
	record := resp.record()
	value, err := domain.NewSecretValue([]byte(resp.Token))
	if err != nil {
		return domain.SecretValue{}, record, fmt.Errorf("token registry returned no value for token %d: %w", record.ID, err)
	}

	c.logger.InfoContext(ctx, message,
		"id", record.ID,
		"name", record.Name,
		"expires_at", record.ExpiresAt)
	return value, record, nil
}

// paginate walks an offset-paginated listing, calling decode on each page body.
func (c *Client) paginate(
	ctx context.Context,
	operation, path string,
	decode func(body []byte) (int, error),
) error {
	page := 1
	for range maxPages {
		pagePath := fmt.Sprintf("%s?per_page=%d&page=%d", path, perPage, page)

		var body []byte
		var header http.Header
		err := c.doWithRetry(ctx, callRead, operation, func() error {
			var reqErr error
			body, header, reqErr = c.request(ctx, http.MethodGet, pagePath, nil)
			return reqErr
		})
		if err != nil {
			return err
		}

		count, err := decode(body)
		if err != nil {
			return err
		}

		next := header.Get("X-Next-Page")
		if next == "" || count == 0 {
			return nil
		}
		nextPage, convErr := strconv.Atoi(next)
		if convErr != nil || nextPage <= page {
			return nil
		}
		page = nextPage
	}

	c.logger.WarnContext(ctx, "Stopped paginating after page limit", "path", path, "pages", maxPages)
	return nil
}

// doJSON performs a request with retries and decodes a JSON response into out.
func (c *Client) doJSON(
	ctx context.Context,
	kind callKind,
	operation, method, path string,
	payload, out any,
) error {
	return c.doWithRetry(ctx, kind, operation, func() error {
		body, _, err := c.request(ctx, method, path, payload)
		if err != nil {
			return err
		}
		if out == nil || len(body) == 0 {
			return nil
		}
		if decodeErr := json.Unmarshal(body, out); decodeErr != nil {
			return fmt.Errorf("failed to decode %s response: %w", operation, decodeErr)
		}
		return nil
	})
}

// request performs a single call and converts non-2xx responses into HTTPError.
func (c *Client) request(ctx context.Context, method, path string, payload any) ([]byte, http.Header, error) {
	fullURL := c.baseURL + path

	var (
		resp *http.Response
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = c.httpAdapter.GetWithAuth(ctx, fullURL, c.token)
	case http.MethodPost:
		resp, err = c.httpAdapter.PostWithAuth(ctx, fullURL, c.token, payload)
	case http.MethodPut:
		resp, err = c.httpAdapter.PutWithAuth(ctx, fullURL, c.token, payload)
	case http.MethodDelete:
		resp, err = c.httpAdapter.DeleteWithAuth(ctx, fullURL, c.token)
	default:
		return nil, nil, fmt.Errorf("unsupported method %s", method)
	}
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, apperrors.NewNetworkError(method, fullURL, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, apperrors.NewHTTPError(resp.StatusCode, method, fullURL, errorMessage(body))
	}
	return body, resp.Header, nil
}

// errorMessage extracts GitLab's "message" or "error" field from an error body.
func errorMessage(body []byte) string {
	var parsed struct {
		Message any    `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Message != nil:
			if s, ok := parsed.Message.(string); ok {
				return s
			}
			encoded, _ := json.Marshal(parsed.Message)
			return string(encoded)
		case parsed.Error != "":
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(body))
}

// isTakenError matches GitLab's validation failure for a duplicate variable key.
func isTakenError(err error) bool {
	if err == nil {
		return false
	}
	if apperrors.IsHTTPStatus(err, http.StatusConflict) {
		return true
	}
	return apperrors.IsHTTPStatus(err, http.StatusBadRequest) && strings.Contains(err.Error(), "has already been taken")
}

type tokenData struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Scopes      []string `json:"scopes"`
	ExpiresAt   string   `json:"expires_at"`
	AccessLevel int      `json:"access_level"`
	Active      bool     `json:"active"`
	Revoked     bool     `json:"revoked"`
	Token       string   `json:"token,omitempty"`
}

func (t tokenData) record() domain.TokenRecord {
	return domain.TokenRecord{
		ID:          t.ID,
		Name:        t.Name,
		ExpiresAt:   t.ExpiresAt,
		Scopes:      t.Scopes,
		AccessLevel: t.AccessLevel,
		Active:      t.Active,
		Revoked:     t.Revoked,
	}
}

type createTokenRequest struct {
	Name        string   `json:"name"`
	Scopes      []string `json:"scopes"`
	AccessLevel int      `json:"access_level"`
	ExpiresAt   string   `json:"expires_at"`
}

type rotateTokenRequest struct {
	ExpiresAt string `json:"expires_at,omitempty"`
}

// variableData deliberately has no value field.
type variableData struct {
	Key              string `json:"key"`
	Masked           bool   `json:"masked"`
	Protected        bool   `json:"protected"`
	Description      string `json:"description"`
	EnvironmentScope string `json:"environment_scope"`
}

func (v variableData) record() domain.VariableRecord {
	return domain.VariableRecord{
		Key:              v.Key,
		Masked:           v.Masked,
		Protected:        v.Protected,
		Description:      v.Description,
		EnvironmentScope: v.EnvironmentScope,
	}
}

type variableRequest struct {
	Key          string `json:"key,omitempty"`
	Value        string `json:"value"`
	VariableType string `json:"variable_type"`
	Masked       bool   `json:"masked"`
	Protected    bool   `json:"protected"`
	Description  string `json:"description,omitempty"`
}

type plainVariableResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type selfTokenResponse struct {
	Scopes []string `json:"scopes"`
}

type userResponse struct {
	ID int `json:"id"`
}

type memberResponse struct {
	AccessLevel int `json:"access_level"`
}
