package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/solplay/internal/domain/config"
)

// ListAccountsResult contains the funded accounts of the simulated chain
type ListAccountsResult struct {
	Accounts []common.Address `json:"accounts" yaml:"accounts"`
	Deployer common.Address   `json:"deployer" yaml:"deployer"`
}

// ListAccounts is a use case for listing the simulated chain's accounts
type ListAccounts struct {
	chain    ChainBridge
	deployer common.Address
}

// NewListAccounts creates a new ListAccounts use case
func NewListAccounts(chain ChainBridge, cfg *config.RuntimeConfig) *ListAccounts {
	return &ListAccounts{
		chain:    chain,
		deployer: common.HexToAddress(cfg.Chain.Deployer),
	}
}

// Run executes the use case
func (uc *ListAccounts) Run(ctx context.Context) (*ListAccountsResult, error) {
	accounts, err := uc.chain.GetAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return &ListAccountsResult{Accounts: accounts, Deployer: uc.deployer}, nil
}
