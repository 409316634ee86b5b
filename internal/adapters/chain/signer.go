package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	bind "github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Signer transacts on the simulated chain as one development account
type Signer struct {
	bridge   *Bridge
	provider *Provider
	address  common.Address
}

func (s *Signer) Address() common.Address {
	return s.address
}

// SendTransaction submits a transaction from the signer's account. A nil
// recipient creates a contract. The engine mines it before replying.
func (s *Signer) SendTransaction(ctx context.Context, to *common.Address, data []byte, value *big.Int) (common.Hash, error) {
	from := s.address
	args := callArgs{From: &from, To: to}
	if len(data) > 0 {
		input := hexutil.Bytes(data)
		args.Input = &input
	}
	if value != nil {
		args.Value = (*hexutil.Big)(value)
	}

	var hash common.Hash
	if err := s.bridge.Call(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Call runs a read-only call from the signer's account against the latest block
func (s *Signer) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return s.provider.CallContract(ctx, ethereum.CallMsg{From: s.address, To: &to, Data: data}, nil)
}

// WaitMined blocks until the transaction has a receipt
func (s *Signer) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return bind.WaitMined(ctx, s.provider, txHash)
}

func (s *Signer) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	return s.provider.CodeAt(ctx, address, nil)
}
