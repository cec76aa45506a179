package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"cascade.dev/cascade/internal/cerrors"
)

// BitbucketConfig carries the coordinates of one Bitbucket Server project/repo.
type BitbucketConfig struct {
	BaseURL  string // e.g. "https://bitbucket.example.com"
	Project  string
	Repo     string
	Token    string // bearer token; empty to use BasicUser/BasicPass instead
	BasicUser string
	BasicPass string
}

// Bitbucket implements Provider against a self-hosted Bitbucket Server's
// REST API v1.0, per spec.md §6. It always supports in-place source-branch
// updates (SupportsSourceBranchUpdate returns true).
type Bitbucket struct {
	cfg    BitbucketConfig
	client *http.Client
}

var _ Provider = (*Bitbucket)(nil)
var _ SupportsSourceBranchUpdate = (*Bitbucket)(nil)

// NewBitbucket builds a Bitbucket client. When cfg.Token is set it
// authenticates with Bearer auth via oauth2.StaticTokenSource; otherwise it
// falls back to HTTP Basic auth for app-password accounts.
func NewBitbucket(cfg BitbucketConfig) *Bitbucket {
	var httpClient *http.Client
	if cfg.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), src)
	} else {
		httpClient = &http.Client{Transport: &basicAuthTransport{user: cfg.BasicUser, pass: cfg.BasicPass}}
	}
	return &Bitbucket{cfg: cfg, client: httpClient}
}

func (b *Bitbucket) SupportsSourceBranchUpdate() bool { return true }

type basicAuthTransport struct {
	user, pass string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.user, t.pass)
	return http.DefaultTransport.RoundTrip(req)
}

func (b *Bitbucket) apiURL(path string) string {
	return fmt.Sprintf("%s/rest/api/1.0/projects/%s/repos/%s%s", b.cfg.BaseURL, b.cfg.Project, b.cfg.Repo, path)
}

func (b *Bitbucket) do(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal request: %v", cerrors.ErrProvider, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return cerrors.NewProviderError(method+" "+url, 0, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return cerrors.NewProviderError(method+" "+url, 0, "request failed", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return cerrors.NewProviderError(method+" "+url, resp.StatusCode, string(respBody), nil)
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return cerrors.NewProviderError(method+" "+url, resp.StatusCode, "decode response", err)
		}
	}
	return nil
}

// pullRequestDTO is the Bitbucket Server wire shape for one pull request.
type pullRequestDTO struct {
	ID          int    `json:"id"`
	Version     int    `json:"version"`
	Title       string `json:"title"`
	Description string `json:"description"`
	State       string `json:"state"` // OPEN | MERGED | DECLINED
	Author      struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"author"`
	FromRef struct {
		DisplayID string `json:"displayId"`
	} `json:"fromRef"`
	ToRef struct {
		DisplayID string `json:"displayId"`
	} `json:"toRef"`
	Reviewers []struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"reviewers"`
	Links struct {
		Self []struct {
			Href string `json:"href"`
		} `json:"self"`
	} `json:"links"`
	CreatedDate int64 `json:"createdDate"`
	UpdatedDate int64 `json:"updatedDate"`
}

func (dto pullRequestDTO) toPr() Pr {
	status := StatusOpen
	switch dto.State {
	case "MERGED":
		status = StatusMerged
	case "DECLINED":
		status = StatusDeclined
	}
	reviewers := make([]string, len(dto.Reviewers))
	for i, r := range dto.Reviewers {
		reviewers[i] = r.User.Name
	}
	webURL := ""
	if len(dto.Links.Self) > 0 {
		webURL = dto.Links.Self[0].Href
	}
	return Pr{
		ID:        strconv.Itoa(dto.ID),
		Title:     dto.Title,
		Body:      dto.Description,
		Source:    dto.FromRef.DisplayID,
		Target:    dto.ToRef.DisplayID,
		Author:    dto.Author.User.Name,
		Status:    status,
		WebURL:    webURL,
		Reviewers: reviewers,
		CreatedAt: time.UnixMilli(dto.CreatedDate).UTC(),
		UpdatedAt: time.UnixMilli(dto.UpdatedDate).UTC(),
	}
}

func (b *Bitbucket) HealthCheck(ctx context.Context) error {
	return b.do(ctx, http.MethodGet, b.apiURL(""), nil, nil)
}

func (b *Bitbucket) CreatePR(ctx context.Context, req CreatePrRequest) (Pr, error) {
	body := map[string]any{
		"title":       req.Title,
		"description": req.Description,
		"fromRef":     map[string]string{"id": "refs/heads/" + req.Source},
		"toRef":       map[string]string{"id": "refs/heads/" + req.Target},
	}
	var dto pullRequestDTO
	if err := b.do(ctx, http.MethodPost, b.apiURL("/pull-requests"), body, &dto); err != nil {
		return Pr{}, err
	}
	return dto.toPr(), nil
}

func (b *Bitbucket) getPRDTO(ctx context.Context, id string) (pullRequestDTO, error) {
	var dto pullRequestDTO
	err := b.do(ctx, http.MethodGet, b.apiURL("/pull-requests/"+id), nil, &dto)
	return dto, err
}

func (b *Bitbucket) GetPR(ctx context.Context, id string) (Pr, error) {
	dto, err := b.getPRDTO(ctx, id)
	if err != nil {
		return Pr{}, err
	}
	return dto.toPr(), nil
}

// UpdatePR, DeclinePR, and MergePR all refetch the PR first to learn its
// current version: Bitbucket Server rejects a mutating request whose
// "version" doesn't match the server's, which is its optimistic-locking
// guard against two clients racing on the same PR.
func (b *Bitbucket) UpdatePR(ctx context.Context, id string, patch PrPatch) (Pr, error) {
	currentDTO, err := b.getPRDTO(ctx, id)
	if err != nil {
		return Pr{}, err
	}
	current := currentDTO.toPr()
	body := map[string]any{"version": currentDTO.Version}
	if patch.Title != nil {
		body["title"] = *patch.Title
	} else {
		body["title"] = current.Title
	}
	if patch.Description != nil {
		body["description"] = *patch.Description
	}
	if patch.Source != nil {
		body["fromRef"] = map[string]string{"id": "refs/heads/" + *patch.Source}
	}
	if patch.Target != nil {
		body["toRef"] = map[string]string{"id": "refs/heads/" + *patch.Target}
	}

	var dto pullRequestDTO
	if err := b.do(ctx, http.MethodPut, b.apiURL("/pull-requests/"+id), body, &dto); err != nil {
		return Pr{}, err
	}
	return dto.toPr(), nil
}

func (b *Bitbucket) DeclinePR(ctx context.Context, id string, reason string) error {
	currentDTO, err := b.getPRDTO(ctx, id)
	if err != nil {
		return err
	}
	return b.do(ctx, http.MethodPost, b.apiURL("/pull-requests/"+id+"/decline"), map[string]any{"version": currentDTO.Version, "comment": reason}, nil)
}

func (b *Bitbucket) MergePR(ctx context.Context, id string, strategy MergeStrategy) (MergeResult, error) {
	currentDTO, err := b.getPRDTO(ctx, id)
	if err != nil {
		return MergeResult{}, err
	}
	var resp struct {
		ToRef struct {
			LatestCommit string `json:"latestCommit"`
		} `json:"toRef"`
	}
	if err := b.do(ctx, http.MethodPost, b.apiURL("/pull-requests/"+id+"/merge"), map[string]any{"version": currentDTO.Version}, &resp); err != nil {
		return MergeResult{}, err
	}
	return MergeResult{MergedHash: resp.ToRef.LatestCommit}, nil
}

func (b *Bitbucket) BranchExists(ctx context.Context, name string) (bool, error) {
	err := b.do(ctx, http.MethodGet, b.apiURL("/branches?filterText="+name), nil, nil)
	if err != nil {
		var provErr *cerrors.ProviderError
		if errors.As(err, &provErr) && provErr.Status == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *Bitbucket) BuildStatus(ctx context.Context, commit string) (BuildStatus, error) {
	var resp struct {
		Values []struct {
			State string `json:"state"`
			URL   string `json:"url"`
			Key   string `json:"key"`
		} `json:"values"`
	}
	url := fmt.Sprintf("%s/rest/build-status/1.0/commits/%s", b.cfg.BaseURL, commit)
	if err := b.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return BuildStatus{}, err
	}
	if len(resp.Values) == 0 {
		return BuildStatus{Status: "pending"}, nil
	}
	v := resp.Values[0]
	status := "pending"
	switch v.State {
	case "SUCCESSFUL":
		status = "success"
	case "FAILED":
		status = "failed"
	}
	return BuildStatus{Status: status, URL: v.URL, Context: v.Key}, nil
}

func (b *Bitbucket) WaitForBuilds(ctx context.Context, commit string, timeout time.Duration) (BuildStatus, error) {
	deadline := time.Now().Add(timeout)
	const pollInterval = 30 * time.Second
	for {
		status, err := b.BuildStatus(ctx, commit)
		if err != nil {
			return BuildStatus{}, err
		}
		if status.Status != "pending" {
			return status, nil
		}
		if time.Now().After(deadline) {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return BuildStatus{}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
