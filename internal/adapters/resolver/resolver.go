// Package resolver maps Solidity source text onto one build of a fixed,
// ordered table of compiler builds.
package resolver

import (
	_ "embed"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/trebuchet-org/solplay/internal/domain"
)

//go:embed builds.toml
var defaultBuilds string

var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe  = regexp.MustCompile(`//[^\n]*`)
	pragmaRe       = regexp.MustCompile(`\bpragma\s+solidity\s+([^;]+);`)
	contractRe     = regexp.MustCompile(`\bcontract\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	clauseRe       = regexp.MustCompile(`(\^|~|>=|<=|>|<|=)?\s*v?(\d+)\.(\d+)(?:\.(\d+))?`)
)

// buildTable mirrors builds.toml
type buildTable struct {
	Build []struct {
		Version string `toml:"version"`
		Commit  string `toml:"commit"`
	} `toml:"build"`
}

// Resolver selects compiler builds from pragma constraints. It holds no
// mutable state, so the same source always resolves to the same build.
type Resolver struct {
	builds []domain.Build
}

// New creates a resolver over the embedded build table
func New() (*Resolver, error) {
	return Parse(defaultBuilds)
}

// Parse creates a resolver from a TOML build table
func Parse(table string) (*Resolver, error) {
	var raw buildTable
	if _, err := toml.Decode(table, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse build table: %w", err)
	}
	if len(raw.Build) == 0 {
		return nil, fmt.Errorf("build table is empty")
	}

	builds := make([]domain.Build, 0, len(raw.Build))
	for _, b := range raw.Build {
		major, minor, err := parseMajorMinor(b.Version)
		if err != nil {
			return nil, fmt.Errorf("invalid build version %q: %w", b.Version, err)
		}
		builds = append(builds, domain.Build{
			ID:      domain.BuildID(fmt.Sprintf("v%s+commit.%s", b.Version, b.Commit)),
			Version: b.Version,
			Major:   major,
			Minor:   minor,
		})
	}

	return &Resolver{builds: builds}, nil
}

// Builds returns the build table in resolution order
func (r *Resolver) Builds() []domain.Build {
	out := make([]domain.Build, len(r.builds))
	copy(out, r.builds)
	return out
}

// Resolve extracts the pragma constraint and primary contract name from
// source and picks the first build in table order that satisfies it.
func (r *Resolver) Resolve(source string) (*domain.Resolution, error) {
	code := stripComments(source)

	m := pragmaRe.FindStringSubmatch(code)
	if m == nil {
		return nil, &domain.ResolutionError{Err: domain.ErrNoPragmaFound}
	}
	constraint := strings.TrimSpace(m[1])

	c := contractRe.FindStringSubmatch(code)
	if c == nil {
		return nil, &domain.ResolutionError{Constraint: constraint, Err: domain.ErrNoContractFound}
	}

	build, err := r.match(constraint)
	if err != nil {
		return nil, &domain.ResolutionError{Constraint: constraint, Err: err}
	}

	return &domain.Resolution{
		Constraint:   constraint,
		ContractName: c[1],
		Build:        build,
	}, nil
}

func (r *Resolver) match(constraint string) (domain.Build, error) {
	var alternatives [][]clause
	for _, part := range strings.Split(constraint, "||") {
		clauses := parseClauses(part)
		if len(clauses) == 0 {
			return domain.Build{}, domain.ErrNoMatchingVersion
		}
		alternatives = append(alternatives, clauses)
	}

	for _, b := range r.builds {
		for _, clauses := range alternatives {
			if satisfiesAll(b, clauses) {
				return b, nil
			}
		}
	}
	return domain.Build{}, domain.ErrNoMatchingVersion
}

// clause is one comparison of a constraint, evaluated on major.minor only.
// Caret, tilde and bare versions pin major.minor.
type clause struct {
	op    string
	major int
	minor int
}

func parseClauses(constraint string) []clause {
	var clauses []clause
	for _, m := range clauseRe.FindAllStringSubmatch(constraint, -1) {
		major, _ := strconv.Atoi(m[2])
		minor, _ := strconv.Atoi(m[3])
		clauses = append(clauses, clause{op: m[1], major: major, minor: minor})
	}
	return clauses
}

func (c clause) satisfiedBy(b domain.Build) bool {
	cmp := compareMajorMinor(b.Major, b.Minor, c.major, c.minor)
	switch c.op {
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	default:
		return cmp == 0
	}
}

func satisfiesAll(b domain.Build, clauses []clause) bool {
	for _, c := range clauses {
		if !c.satisfiedBy(b) {
			return false
		}
	}
	return true
}

func compareMajorMinor(aMajor, aMinor, bMajor, bMinor int) int {
	if aMajor != bMajor {
		if aMajor < bMajor {
			return -1
		}
		return 1
	}
	switch {
	case aMinor < bMinor:
		return -1
	case aMinor > bMinor:
		return 1
	}
	return 0
}

func parseMajorMinor(version string) (int, int, error) {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("expected major.minor[.patch]")
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return major, minor, nil
}

func stripComments(source string) string {
	source = blockCommentRe.ReplaceAllString(source, " ")
	return lineCommentRe.ReplaceAllString(source, "")
}
