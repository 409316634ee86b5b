package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/solplay/internal/domain"
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func TestBuildsTable(t *testing.T) {
	r := newResolver(t)

	builds := r.Builds()
	require.Len(t, builds, 5)
	assert.Equal(t, domain.BuildID("v0.4.26+commit.4563c3fc"), builds[0].ID)
	assert.Equal(t, domain.BuildID("v0.8.16+commit.07a7930e"), builds[4].ID)
	assert.Equal(t, 0, builds[4].Major)
	assert.Equal(t, 8, builds[4].Minor)

	// Callers must not be able to mutate the table
	builds[0].ID = "tampered"
	assert.Equal(t, domain.BuildID("v0.4.26+commit.4563c3fc"), r.Builds()[0].ID)
}

func TestResolve(t *testing.T) {
	r := newResolver(t)

	tests := []struct {
		name         string
		source       string
		wantBuild    domain.BuildID
		wantContract string
		wantErr      error
	}{
		{
			name:         "caret selects matching minor",
			source:       "pragma solidity ^0.8.10;\ncontract Foo {}",
			wantBuild:    "v0.8.16+commit.07a7930e",
			wantContract: "Foo",
		},
		{
			name:         "caret ignores patch digits",
			source:       "pragma solidity ^0.8.99; contract Foo {}",
			wantBuild:    "v0.8.16+commit.07a7930e",
			wantContract: "Foo",
		},
		{
			name:         "caret on older minor",
			source:       "pragma solidity ^0.5.0; contract Legacy {}",
			wantBuild:    "v0.5.17+commit.d19bba13",
			wantContract: "Legacy",
		},
		{
			name:         "single line scenario",
			source:       "pragma solidity ^0.8.16; contract Foo { function get() public pure returns (uint) { return 42; } }",
			wantBuild:    "v0.8.16+commit.07a7930e",
			wantContract: "Foo",
		},
		{
			name:         "range picks lowest satisfying entry",
			source:       "pragma solidity >=0.8.0 <0.9.0;\ncontract Foo {}",
			wantBuild:    "v0.8.16+commit.07a7930e",
			wantContract: "Foo",
		},
		{
			name:         "wide range picks first in table order",
			source:       "pragma solidity >=0.4.22 <0.9.0;\ncontract Foo {}",
			wantBuild:    "v0.4.26+commit.4563c3fc",
			wantContract: "Foo",
		},
		{
			name:         "exclusive lower bound",
			source:       "pragma solidity >0.6.0 <=0.8.0;\ncontract Foo {}",
			wantBuild:    "v0.7.6+commit.7338295f",
			wantContract: "Foo",
		},
		{
			name:         "spaces between operator and version",
			source:       "pragma solidity >= 0.6.0 < 0.7.0;\ncontract Foo {}",
			wantBuild:    "v0.6.12+commit.27d51765",
			wantContract: "Foo",
		},
		{
			name:         "exact version",
			source:       "pragma solidity 0.7.6;\ncontract Foo {}",
			wantBuild:    "v0.7.6+commit.7338295f",
			wantContract: "Foo",
		},
		{
			name:         "alternatives",
			source:       "pragma solidity ^0.3.0 || ^0.6.0;\ncontract Foo {}",
			wantBuild:    "v0.6.12+commit.27d51765",
			wantContract: "Foo",
		},
		{
			name:         "interfaces and libraries are skipped",
			source:       "pragma solidity ^0.8.0;\ninterface IFoo {}\nlibrary Lib {}\ncontract Impl is IFoo {}",
			wantBuild:    "v0.8.16+commit.07a7930e",
			wantContract: "Impl",
		},
		{
			name:         "abstract contract counts",
			source:       "pragma solidity ^0.8.0;\nabstract contract Base {}",
			wantBuild:    "v0.8.16+commit.07a7930e",
			wantContract: "Base",
		},
		{
			name:         "commented out pragma is ignored",
			source:       "// pragma solidity ^0.4.0;\n/* pragma solidity ^0.5.0; */\npragma solidity ^0.7.0;\ncontract Foo {}",
			wantBuild:    "v0.7.6+commit.7338295f",
			wantContract: "Foo",
		},
		{
			name:    "range above table fails",
			source:  "pragma solidity >=0.9.0 <0.10.0;\ncontract Foo {}",
			wantErr: domain.ErrNoMatchingVersion,
		},
		{
			name:    "caret outside table fails",
			source:  "pragma solidity ^0.3.6;\ncontract Foo {}",
			wantErr: domain.ErrNoMatchingVersion,
		},
		{
			name:    "unparseable constraint fails",
			source:  "pragma solidity latest;\ncontract Foo {}",
			wantErr: domain.ErrNoMatchingVersion,
		},
		{
			name:    "missing pragma",
			source:  "contract Foo { function get() public pure returns (uint) { return 42; } }",
			wantErr: domain.ErrNoPragmaFound,
		},
		{
			name:    "missing contract",
			source:  "pragma solidity ^0.8.0;\nlibrary Lib {}",
			wantErr: domain.ErrNoContractFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(tt.source)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				var resErr *domain.ResolutionError
				assert.True(t, errors.As(err, &resErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBuild, res.Build.ID)
			assert.Equal(t, tt.wantContract, res.ContractName)
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := newResolver(t)
	source := "pragma solidity >=0.5.0 <0.7.0;\ncontract Foo {}"

	first, err := r.Resolve(source)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := r.Resolve(source)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)

	_, err = Parse("[[build]]\nversion = \"eight\"\ncommit = \"x\"\n")
	assert.Error(t, err)
}
