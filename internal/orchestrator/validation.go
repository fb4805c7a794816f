package orchestrator

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// branchNameRegex matches valid git branch names
	branchNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)
	// packageSegmentRegex matches one namespace or project segment
	packageSegmentRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// ValidatePackageName validates a slash separated package path.
func ValidatePackageName(name string) error {
	if name == "" {
		return fmt.Errorf("package name cannot be empty")
	}
	if len(name) > 1024 {
		return fmt.Errorf("package name too long: %d characters (max: 1024)", len(name))
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return fmt.Errorf("invalid package name: %s", name)
		}
		if !packageSegmentRegex.MatchString(segment) {
			return fmt.Errorf("invalid package name segment %q in %s", segment, name)
		}
	}
	return nil
}

// ValidateBranchName validates a git branch name.
func ValidateBranchName(branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if len(branch) > 255 {
		return fmt.Errorf("branch name too long: %d characters (max: 255)", len(branch))
	}
	if strings.HasPrefix(branch, "/") || strings.HasSuffix(branch, "/") {
		return fmt.Errorf("branch name cannot start or end with slash: %s", branch)
	}
	if strings.Contains(branch, "..") {
		return fmt.Errorf("branch name cannot contain consecutive dots: %s", branch)
	}
	if strings.HasSuffix(branch, ".lock") {
		return fmt.Errorf("branch name cannot end with .lock: %s", branch)
	}
	if !branchNameRegex.MatchString(branch) {
		return fmt.Errorf("invalid branch name format: %s", branch)
	}
	return nil
}

// ValidateRegistryURL accepts an empty value or an absolute http(s) URL.
func ValidateRegistryURL(registryURL string) error {
	if registryURL == "" {
		return nil
	}
	u, err := url.Parse(registryURL)
	if err != nil {
		return fmt.Errorf("invalid registry URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("registry URL must use http or https: %s", registryURL)
	}
	if u.Host == "" {
		return fmt.Errorf("registry URL must include a host: %s", registryURL)
	}
	return nil
}
