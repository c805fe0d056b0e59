// Package secrets supplies account credentials at assembly time.
package secrets

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PasswordGetter resolves a secret for a named account or repository.
type PasswordGetter interface {
	Password(accountID string) (string, error)
}

// PromptGetter asks for the secret on a terminal-style stream: it writes the
// prompt to out and reads one line from in.
type PromptGetter struct {
	promptFormat string
	in           *bufio.Reader
	out          io.Writer
}

var _ PasswordGetter = (*PromptGetter)(nil)

// NewPromptGetter creates a prompt getter. promptFormat must contain one %s
// verb for the account id, e.g. "Password for account %s: ".
func NewPromptGetter(promptFormat string, in io.Reader, out io.Writer) *PromptGetter {
	return &PromptGetter{
		promptFormat: promptFormat,
		in:           bufio.NewReader(in),
		out:          out,
	}
}

// Password prompts and reads one line, trimming the trailing newline.
func (g *PromptGetter) Password(accountID string) (string, error) {
	if _, err := fmt.Fprintf(g.out, g.promptFormat, accountID); err != nil {
		return "", err
	}
	line, err := g.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password for %q: %w", accountID, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Static returns secrets from a fixed map, for tests and non-interactive
// runs.
type Static map[string]string

var _ PasswordGetter = Static(nil)

// Password looks the account id up in the map.
func (s Static) Password(accountID string) (string, error) {
	secret, ok := s[accountID]
	if !ok {
		return "", fmt.Errorf("no secret configured for %q", accountID)
	}
	return secret, nil
}
