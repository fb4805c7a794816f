package domain

// Issue is a repository issue.
type Issue struct {
	Number int
	Title  string
	Body   string
}

// EnsureIssueConfig describes the desired state of an issue identified by title.
type EnsureIssueConfig struct {
	Title        string
	ReuseTitle   string
	Body         string
	Labels       []string
	Confidential bool
}

// EnsureIssueResult reports what EnsureIssue changed.
type EnsureIssueResult string

const (
	EnsureIssueCreated   EnsureIssueResult = "created"
	EnsureIssueUpdated   EnsureIssueResult = "updated"
	EnsureIssueUnchanged EnsureIssueResult = ""
)

// EnsureCommentConfig describes a comment that must exist on a merge request.
// With a Topic the comment is matched by its heading, otherwise by exact content.
type EnsureCommentConfig struct {
	Number  int
	Topic   string
	Content string
}

// CommentRemovalType selects how EnsureCommentRemoval finds the comment.
type CommentRemovalType string

const (
	CommentRemovalByTopic   CommentRemovalType = "by-topic"
	CommentRemovalByContent CommentRemovalType = "by-content"
)

// EnsureCommentRemovalConfig describes a comment that must not exist.
type EnsureCommentRemovalConfig struct {
	Type    CommentRemovalType
	Number  int
	Topic   string
	Content string
}

// VulnerabilityAlert is a security alert raised by the platform.
type VulnerabilityAlert struct {
	Package  string
	Severity string
}
