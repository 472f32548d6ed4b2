package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const managedComment = "; Managed by daintree"

// SyncEntry is one profile to write into the shared credentials file.
type SyncEntry struct {
	Profile     string
	Label       string
	Credentials Credentials
}

// CredentialsFilePath returns AWS_SHARED_CREDENTIALS_FILE or
// ~/.aws/credentials.
func CredentialsFilePath() string {
	if p := os.Getenv("AWS_SHARED_CREDENTIALS_FILE"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".aws", "credentials")
}

// SyncToAWS writes entries into the credentials file at path, replacing any
// existing section with the same profile name together with its daintree
// comment. Expired entries are skipped. It returns how many were written.
func SyncToAWS(path string, entries []SyncEntry, now time.Time) (int, error) {
	var active []SyncEntry
	for _, e := range entries {
		if e.Credentials.Valid() && !e.Credentials.Expired(now) {
			active = append(active, e)
		}
	}
	if len(active) == 0 {
		return 0, nil
	}
	replacing := func(profile string) bool {
		return slices.ContainsFunc(active, func(e SyncEntry) bool { return e.Profile == profile })
	}

	content, err := os.ReadFile(path)
	var existingLines []string
	if err == nil {
		existingLines = strings.Split(string(content), "\n")
	}

	newLines := []string{}
	skipSection := false
	for i := 0; i < len(existingLines); i++ {
		line := existingLines[i]
		trimmed := strings.TrimSpace(line)

		if isSectionHeader(trimmed) {
			skipSection = replacing(strings.Trim(trimmed, "[]"))
		}

		// Drop our comment when the section it annotates is being replaced.
		if strings.HasPrefix(trimmed, managedComment) {
			if next := nextSection(existingLines[i+1:]); next != "" && replacing(next) {
				continue
			}
		}

		if !skipSection {
			newLines = append(newLines, line)
		}
	}

	for len(newLines) > 0 && strings.TrimSpace(newLines[len(newLines)-1]) == "" {
		newLines = newLines[:len(newLines)-1]
	}
	if len(newLines) > 0 {
		newLines = append(newLines, "")
	}

	for _, e := range active {
		expires := "never"
		if e.Credentials.Expiration != nil {
			expires = FormatTime(*e.Credentials.Expiration)
		}
		newLines = append(newLines,
			fmt.Sprintf("%s (%s) - Expires: %s", managedComment, e.Label, expires),
			fmt.Sprintf("[%s]", e.Profile),
			fmt.Sprintf("aws_access_key_id = %s", e.Credentials.AccessKeyID),
			fmt.Sprintf("aws_secret_access_key = %s", e.Credentials.SecretAccessKey),
		)
		if e.Credentials.SessionToken != "" {
			newLines = append(newLines, fmt.Sprintf("aws_session_token = %s", e.Credentials.SessionToken))
		}
		newLines = append(newLines, "")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, []byte(strings.Join(newLines, "\n")), 0o600); err != nil {
		return 0, fmt.Errorf("failed to write credentials file: %w", err)
	}
	return len(active), nil
}

func isSectionHeader(s string) bool {
	return strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")
}

// nextSection returns the profile of the first section header in lines,
// skipping blanks and comments.
func nextSection(lines []string) string {
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" || strings.HasPrefix(t, ";") || strings.HasPrefix(t, "#") {
			continue
		}
		if isSectionHeader(t) {
			return strings.Trim(t, "[]")
		}
		return ""
	}
	return ""
}
