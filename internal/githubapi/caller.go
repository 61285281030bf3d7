// Package githubapi is the single place the crawler talks to the GitHub
// REST API. The caller authenticates with the configured token, paces
// requests through the per-second limiter, and reports the quota metadata
// of every response to the governor so the crawl suspends before the API
// key runs dry.
package githubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/govgraph/gov-crawler/cfg"
	"github.com/govgraph/gov-crawler/internal/limiter"
	"github.com/govgraph/gov-crawler/pkg/log"
)

// ErrNotFound marks a resource the platform no longer knows: a deleted or
// renamed organization or repository. Callers skip, they do not fail.
var ErrNotFound = errors.New("githubapi: resource not found")

type Caller struct {
	Logger   log.Logger
	Config   *cfg.Config
	Governor *limiter.Governor

	pacer  *limiter.RateLimiter
	client *http.Client
}

func NewCaller(logger log.Logger, config *cfg.Config, governor *limiter.Governor) *Caller {
	return &Caller{
		Logger:   logger,
		Config:   config,
		Governor: governor,
		pacer:    limiter.NewRateLimiter(config.GithubApi.RequestsPerSecond),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Organization fetches one organization's metadata.
func (c *Caller) Organization(ctx context.Context, login string) (*OrganizationResponse, error) {
	org := &OrganizationResponse{}
	url := fmt.Sprintf("%s/orgs/%s", c.Config.GithubApi.ApiUrl, login)
	if err := c.get(ctx, url, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Repository fetches one repository's detail record. The detail record is
// the only response carrying the fork source chain.
func (c *Caller) Repository(ctx context.Context, owner, name string) (*RepositoryResponse, error) {
	repo := &RepositoryResponse{}
	url := fmt.Sprintf("%s/repos/%s/%s", c.Config.GithubApi.ApiUrl, owner, name)
	if err := c.get(ctx, url, repo); err != nil {
		return nil, err
	}
	return repo, nil
}

// OrganizationRepos pages through every repository the organization owns.
func (c *Caller) OrganizationRepos(ctx context.Context, login string) ([]RepositoryResponse, error) {
	var all []RepositoryResponse
	base := fmt.Sprintf("%s/orgs/%s/repos", c.Config.GithubApi.ApiUrl, login)
	err := c.paginate(ctx, base, func(body []byte) (int, error) {
		var batch []RepositoryResponse
		if err := json.Unmarshal(body, &batch); err != nil {
			return 0, err
		}
		all = append(all, batch...)
		return len(batch), nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// OrganizationMembers pages through the organization's member list.
func (c *Caller) OrganizationMembers(ctx context.Context, login string) ([]PersonResponse, error) {
	base := fmt.Sprintf("%s/orgs/%s/members", c.Config.GithubApi.ApiUrl, login)
	return c.personList(ctx, base)
}

// RepoContributors pages through a repository's contributor list. An empty
// repository answers 204 and yields an empty list.
func (c *Caller) RepoContributors(ctx context.Context, owner, name string) ([]PersonResponse, error) {
	base := fmt.Sprintf("%s/repos/%s/%s/contributors", c.Config.GithubApi.ApiUrl, owner, name)
	return c.personList(ctx, base)
}

func (c *Caller) personList(ctx context.Context, base string) ([]PersonResponse, error) {
	var all []PersonResponse
	err := c.paginate(ctx, base, func(body []byte) (int, error) {
		var batch []PersonResponse
		if err := json.Unmarshal(body, &batch); err != nil {
			return 0, err
		}
		all = append(all, batch...)
		return len(batch), nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// paginate walks ?page=N until a short page. decode returns how many items
// the page held.
func (c *Caller) paginate(ctx context.Context, base string, decode func([]byte) (int, error)) error {
	perPage := c.Config.GithubApi.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s?per_page=%d&page=%d", base, perPage, page)
		body, err := c.getRaw(ctx, url)
		if err != nil {
			return err
		}
		if body == nil {
			return nil
		}
		n, err := decode(body)
		if err != nil {
			return fmt.Errorf("failed to decode page %d of %s: %w", page, base, err)
		}
		if n < perPage {
			return nil
		}
	}
}

func (c *Caller) get(ctx context.Context, url string, out interface{}) error {
	body, err := c.getRaw(ctx, url)
	if err != nil {
		return err
	}
	if body == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response of %s: %w", url, err)
	}
	return nil
}

// getRaw performs one API call. A nil body with a nil error means the
// resource exists but has no content (HTTP 204).
func (c *Caller) getRaw(ctx context.Context, url string) ([]byte, error) {
	// Pace request bursts
	for !c.pacer.Allow() {
		time.Sleep(time.Duration(c.Config.GithubApi.ThrottleDelay) * time.Millisecond)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.Config.GithubApi.AccessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("token %s", c.Config.GithubApi.AccessToken))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.Logger.Error(ctx, "Cannot send request to %s: %v", url, err)
		return nil, err
	}
	defer resp.Body.Close()

	// Report quota to the governor after every call. The governor blocks
	// here when the remaining quota has dropped below the buffer.
	c.Governor.Observe(ctx, parseRate(resp))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected response from %s: %s", url, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// parseRate reads the X-RateLimit headers. Absent or malformed headers
// yield a zero Rate, which never throttles.
func parseRate(resp *http.Response) limiter.Rate {
	remainingStr := resp.Header.Get("X-RateLimit-Remaining")
	resetStr := resp.Header.Get("X-RateLimit-Reset")
	if remainingStr == "" || resetStr == "" {
		return limiter.Rate{}
	}
	remaining, err := strconv.Atoi(remainingStr)
	if err != nil {
		return limiter.Rate{}
	}
	reset, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return limiter.Rate{}
	}
	return limiter.Rate{
		Remaining: remaining,
		Reset:     time.Unix(reset, 0),
		Ok:        true,
	}
}
