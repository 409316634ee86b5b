package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
)

// devKeys are the well-known anvil/hardhat development keys
var devKeys = []string{
	"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	"5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a",
	"7c852118294e51e653712a81e05800f419141751be58f605c371e15141b007a6",
	"47e179ec197488593b187f80a00eb0da91f1b9d0b13f8733639f19c30a34926a",
}

// DefaultDeployer is the first development account
var DefaultDeployer = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

// devBalance is what every development account starts with: 10,000 ETH
var devBalance = new(big.Int).Mul(big.NewInt(10_000), big.NewInt(params.Ether))

type devAccount struct {
	address common.Address
	key     *ecdsa.PrivateKey
}

func loadDevAccounts() ([]devAccount, error) {
	accounts := make([]devAccount, 0, len(devKeys))
	for i, hexKey := range devKeys {
		key, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			return nil, fmt.Errorf("invalid dev key %d: %w", i, err)
		}
		accounts = append(accounts, devAccount{
			address: crypto.PubkeyToAddress(key.PublicKey),
			key:     key,
		})
	}
	return accounts, nil
}

func genesisAlloc(accounts []devAccount) types.GenesisAlloc {
	alloc := make(types.GenesisAlloc, len(accounts))
	for _, acc := range accounts {
		alloc[acc.address] = types.Account{Balance: new(big.Int).Set(devBalance)}
	}
	return alloc
}
