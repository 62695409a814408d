package server

// AddRepositoryRequest is the POST /repos payload.
type AddRepositoryRequest struct {
	Owner              string   `json:"owner" binding:"required"`
	Repo               string   `json:"repo" binding:"required"`
	TagFilter          string   `json:"tag_filter"`
	VersionRequirement []string `json:"version_requirement"`
	Lightweight        bool     `json:"lightweight"`
	ImportEnabled      *bool    `json:"import_enabled"`
	Channels           []string `json:"channels"`
}

// UpdateRepositoryRequest is the PUT /repos/:param payload. It replaces
// the repository's configuration; owner and repo are identity and stay.
type UpdateRepositoryRequest struct {
	TagFilter          string   `json:"tag_filter"`
	VersionRequirement []string `json:"version_requirement"`
	Lightweight        bool     `json:"lightweight"`
	ImportEnabled      *bool    `json:"import_enabled"`
	Channels           []string `json:"channels"`
}

// ImportResult reports how many new releases an import run created.
type ImportResult struct {
	Imported int `json:"imported"`
}
