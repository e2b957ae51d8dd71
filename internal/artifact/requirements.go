package artifact

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Requirement is a single fully-pinned dependency.
type Requirement struct {
	// Name is the package name as it appears in the requirements list.
	Name string
	// Version is the exact pinned version.
	Version string
}

var (
	// errRequirementUnpinned is returned for any requirement that is not an exact pin.
	errRequirementUnpinned = errors.New("requirement is not exactly pinned")
	// errRequirementHashed is returned when a requirement carries a hash digest.
	// Hashes are intentionally rejected: they differ across build platforms.
	errRequirementHashed = errors.New("requirement carries a hash digest")
	// errRequirementsEmpty is returned when the exported list names no packages.
	errRequirementsEmpty = errors.New("requirements list is empty")
)

// ParseRequirements parses an exported requirements list and enforces the
// reproducibility contract: every entry must be pinned to an exact version
// (name==version) and must not carry hash fields. Environment markers after
// a semicolon are tolerated and ignored.
func ParseRequirements(contents []byte) ([]Requirement, error) {
	var requirements []Requirement

	scanner := bufio.NewScanner(bytes.NewReader(contents))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.Contains(line, "--hash") || strings.Contains(line, "sha256:") {
			return nil, fmt.Errorf("%q: %w", line, errRequirementHashed)
		}

		// Environment marker, e.g. `foo==1.2.3 ; python_version >= "3.9"`.
		if marker := strings.Index(line, ";"); marker >= 0 {
			line = strings.TrimSpace(line[:marker])
		}

		name, version, ok := strings.Cut(line, "==")
		if !ok || name == "" || version == "" || strings.ContainsAny(version, "<>~=!*") {
			return nil, fmt.Errorf("%q: %w", line, errRequirementUnpinned)
		}

		requirements = append(requirements, Requirement{
			Name:    strings.TrimSpace(name),
			Version: strings.TrimSpace(version),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan requirements: %w", err)
	}

	if len(requirements) == 0 {
		return nil, errRequirementsEmpty
	}

	return requirements, nil
}
