package config

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/types"
)

// RepoToken is substituted with a source name in mirror templates
const RepoToken = "$repo"

// LoadMirrors reads the mirror list at path and returns the templates in
// file order. Blank lines and lines starting with # are skipped.
func LoadMirrors(fsys types.FS, path string) ([]string, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read mirror list %s", path).
			WithDetail("path", path)
	}
	return ParseMirrors(data)
}

// ParseMirrors parses mirror list content
func ParseMirrors(data []byte) ([]string, error) {
	var templates []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, RepoToken) {
			return nil, errors.Newf(errors.ErrMirrorsInvalid, "mirror on line %d does not contain %s: %s", lineNo, RepoToken, line).
				WithDetail("line", lineNo)
		}
		templates = append(templates, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrMirrorsInvalid, "failed to scan mirror list")
	}
	return templates, nil
}

// Expand substitutes the source name into a template
func Expand(template, repo string) string {
	return strings.ReplaceAll(template, RepoToken, repo)
}
