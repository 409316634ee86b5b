package usecase

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/trebuchet-org/solplay/internal/domain"
)

// ListVersionsParams contains parameters for listing compiler versions
type ListVersionsParams struct {
	Limit          int  // 0 means all
	IncludeNightly bool // keep prerelease builds
}

// ListVersionsResult contains the published compiler builds, newest first
type ListVersionsResult struct {
	Versions []domain.BuildDescriptor `json:"versions" yaml:"versions"`
	Total    int                      `json:"total" yaml:"total"`
	Pinned   []domain.Build           `json:"pinned" yaml:"pinned"`
}

// ListVersions is a use case for listing published compiler versions next to
// the builds solplay deploys with
type ListVersions struct {
	compiler CompilerBridge
	resolver VersionResolver
}

// NewListVersions creates a new ListVersions use case
func NewListVersions(compiler CompilerBridge, resolver VersionResolver) *ListVersions {
	return &ListVersions{
		compiler: compiler,
		resolver: resolver,
	}
}

// Run executes the use case
func (uc *ListVersions) Run(ctx context.Context, params ListVersionsParams) (*ListVersionsResult, error) {
	builds, err := uc.compiler.ListVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list compiler versions: %w", err)
	}

	if !params.IncludeNightly {
		builds = lo.Filter(builds, func(b domain.BuildDescriptor, _ int) bool { return b.Prerelease == "" })
	}
	// The manifest lists oldest first
	builds = lo.Reverse(builds)
	total := len(builds)
	if params.Limit > 0 && len(builds) > params.Limit {
		builds = builds[:params.Limit]
	}

	return &ListVersionsResult{
		Versions: builds,
		Total:    total,
		Pinned:   uc.resolver.Builds(),
	}, nil
}
