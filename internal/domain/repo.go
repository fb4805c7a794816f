package domain

// GitURLOption selects the clone URL flavour.
type GitURLOption string

const (
	GitURLDefault GitURLOption = "default"
	GitURLSSH     GitURLOption = "ssh"
)

// PlatformParams configures the platform session.
type PlatformParams struct {
	Endpoint  string
	Token     string
	GitAuthor string
}

// PlatformResult is what the platform reports after initialization.
type PlatformResult struct {
	Endpoint  string
	GitAuthor string
}

// RepoParams configures a repository session.
type RepoParams struct {
	Repository      string
	CloneSubmodules bool
	IgnorePrAuthor  bool
	GitURL          GitURLOption
	// LocalDir is the working copy used for branch lookups. It is cloned when empty.
	LocalDir string
}

// RepoResult is what the platform reports about an initialized repository.
type RepoResult struct {
	DefaultBranch string
	IsFork        bool
}
