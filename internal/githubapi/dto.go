// Data transfer objects for the GitHub REST responses the crawler
// consumes. Only the fields the store persists are decoded.
package githubapi

import "time"

type OrganizationResponse struct {
	ID        int64      `json:"id"`
	Login     string     `json:"login"`
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type PersonResponse struct {
	ID        int64      `json:"id"`
	Login     string     `json:"login"`
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type OwnerResponse struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

type LicenseResponse struct {
	Name string `json:"name"`
}

// SourceResponse is the repository a fork was copied from. Only present on
// the repository detail endpoint, and only for forks.
type SourceResponse struct {
	ID    int64          `json:"id"`
	Name  string         `json:"name"`
	Owner *OwnerResponse `json:"owner"`
}

type RepositoryResponse struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Language        string           `json:"language"`
	License         *LicenseResponse `json:"license"`
	Fork            bool             `json:"fork"`
	PushedAt        *time.Time       `json:"pushed_at"`
	CreatedAt       *time.Time       `json:"created_at"`
	ForksCount      int              `json:"forks_count"`
	StargazersCount int              `json:"stargazers_count"`
	NetworkCount    int              `json:"network_count"`
	WatchersCount   int              `json:"watchers_count"`
	Source          *SourceResponse  `json:"source"`
}

// SourceOwnerLogin resolves the fork origin owner's login, or "" when any
// link of the source chain is absent.
func (r *RepositoryResponse) SourceOwnerLogin() string {
	if r.Source == nil || r.Source.Owner == nil {
		return ""
	}
	return r.Source.Owner.Login
}

// LicenseName resolves the license name, or "" when none is attached.
func (r *RepositoryResponse) LicenseName() string {
	if r.License == nil {
		return ""
	}
	return r.License.Name
}
