// Package cloudmodel holds the types shared between the sync client, the
// server and its stores.
package cloudmodel

// OrgRepo identifies a project as "org/repo".
type OrgRepo string

func (o OrgRepo) String() string {
	return string(o)
}

// UserId is a GitHub user ID in string form.
type UserId string

func (u UserId) String() string {
	return string(u)
}

// EnvPair is one environment variable in a deployment profile.
type EnvPair struct {
	Key   string `datastore:"key" json:"key"`
	Value string `datastore:"value,noindex" json:"value"`
}

// Profile is a named set of environment variables for one deployment
// environment of a project.
type Profile struct {
	ProjectID   OrgRepo   `datastore:"project_id"`
	Environment string    `datastore:"environment"`
	Vars        []EnvPair `datastore:"vars,noindex"`
}

// VarsMap converts the stored pairs to a map.
func (p Profile) VarsMap() map[string]string {
	out := make(map[string]string, len(p.Vars))
	for _, pair := range p.Vars {
		out[pair.Key] = pair.Value
	}
	return out
}

// PairsFromMap converts a map to stored pairs (order unspecified).
func PairsFromMap(vars map[string]string) []EnvPair {
	out := make([]EnvPair, 0, len(vars))
	for k, v := range vars {
		out = append(out, EnvPair{Key: k, Value: v})
	}
	return out
}

// User is a registered sync server user.
type User struct {
	GitHubID string `datastore:"github_id" json:"github_id"`
	Username string `datastore:"username" json:"username"`
}
