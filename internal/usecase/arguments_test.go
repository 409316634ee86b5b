package usecase_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/solplay/internal/domain"
	"github.com/trebuchet-org/solplay/internal/usecase"
)

func argumentsOf(t *testing.T, types ...string) abi.Arguments {
	t.Helper()
	args := make(abi.Arguments, 0, len(types))
	for _, ty := range types {
		typ, err := abi.NewType(ty, "", nil)
		require.NoError(t, err)
		args = append(args, abi.Argument{Name: "arg", Type: typ})
	}
	return args
}

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name    string
		types   []string
		raw     []string
		want    []any
		wantErr bool
	}{
		{
			name:  "uint256 decimal",
			types: []string{"uint256"},
			raw:   []string{"42"},
			want:  []any{big.NewInt(42)},
		},
		{
			name:  "uint256 hex",
			types: []string{"uint256"},
			raw:   []string{"0x2a"},
			want:  []any{big.NewInt(42)},
		},
		{
			name:  "small ints use native types",
			types: []string{"uint8", "int64"},
			raw:   []string{"255", "-5"},
			want:  []any{uint8(255), int64(-5)},
		},
		{
			name:    "uint8 overflow",
			types:   []string{"uint8"},
			raw:     []string{"256"},
			wantErr: true,
		},
		{
			name:    "negative unsigned",
			types:   []string{"uint256"},
			raw:     []string{"-1"},
			wantErr: true,
		},
		{
			name:  "int256 negative",
			types: []string{"int256"},
			raw:   []string{"-7"},
			want:  []any{big.NewInt(-7)},
		},
		{
			name:  "bool, address and string",
			types: []string{"bool", "address", "string"},
			raw:   []string{"true", "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", "hello"},
			want:  []any{true, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), "hello"},
		},
		{
			name:  "dynamic bytes",
			types: []string{"bytes"},
			raw:   []string{"0xdeadbeef"},
			want:  []any{[]byte{0xde, 0xad, 0xbe, 0xef}},
		},
		{
			name:  "fixed bytes are right padded",
			types: []string{"bytes4"},
			raw:   []string{"0xdead"},
			want:  []any{[4]byte{0xde, 0xad, 0, 0}},
		},
		{
			name:    "fixed bytes too long",
			types:   []string{"bytes2"},
			raw:     []string{"0xdeadbeef"},
			wantErr: true,
		},
		{
			name:    "wrong argument count",
			types:   []string{"uint256", "bool"},
			raw:     []string{"1"},
			wantErr: true,
		},
		{
			name:    "arrays are not supported",
			types:   []string{"uint256[]"},
			raw:     []string{"1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := usecase.ParseArguments(argumentsOf(t, tt.types...), tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArguments_InvalidAddress(t *testing.T) {
	_, err := usecase.ParseArguments(argumentsOf(t, "address"), []string{"0x1234"})
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "42", usecase.FormatValue(big.NewInt(42)))
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		usecase.FormatValue(common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")))
	assert.Equal(t, "0xdead", usecase.FormatValue([]byte{0xde, 0xad}))
	assert.Equal(t, "0xdead0000", usecase.FormatValue([4]byte{0xde, 0xad}))
	assert.Equal(t, `"hi"`, usecase.FormatValue("hi"))
	assert.Equal(t, "true", usecase.FormatValue(true))
	assert.Equal(t, "[1, 2]", usecase.FormatValue([]*big.Int{big.NewInt(1), big.NewInt(2)}))
}
