package usecase

import (
	"github.com/trebuchet-org/solplay/internal/domain"
)

// ResolveVersion reports which compiler build a source file selects
type ResolveVersion struct {
	resolver VersionResolver
}

// NewResolveVersion creates a new ResolveVersion use case
func NewResolveVersion(resolver VersionResolver) *ResolveVersion {
	return &ResolveVersion{resolver: resolver}
}

// Run resolves source without contacting any engine
func (uc *ResolveVersion) Run(source string) (*domain.Resolution, error) {
	return uc.resolver.Resolve(source)
}

// Builds returns the pinned build table
func (uc *ResolveVersion) Builds() []domain.Build {
	return uc.resolver.Builds()
}
