package model

// StandardsRule is one denylist entry from a project's coding standards.
// Pattern is a regular expression matched against candidate code.
type StandardsRule struct {
	ID          string `json:"id"`
	Pattern     string `json:"pattern"`
	Description string `json:"description,omitempty"`
}

// Standards is the denylist for one project. Version participates in the cache
// fingerprint so a standards change never serves suggestions validated under
// older rules.
type Standards struct {
	ProjectID string          `json:"project_id"`
	Version   string          `json:"version"`
	Rules     []StandardsRule `json:"rules,omitempty"`
}
