package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Provider exposes the bridge through go-ethereum's reader interfaces
type Provider struct {
	bridge *Bridge
}

// TransactionReceipt returns ethereum.NotFound until the transaction is mined
func (p *Provider) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	q, err := NewQuery("eth_getTransactionReceipt", txHash)
	if err != nil {
		return nil, err
	}
	raw, err := p.bridge.Send(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ethereum.NotFound
	}

	var receipt types.Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("failed to decode receipt: %w", err)
	}
	return &receipt, nil
}

func (p *Provider) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	var code hexutil.Bytes
	if err := p.bridge.Call(ctx, &code, "eth_getCode", account, toBlockNumArg(blockNumber)); err != nil {
		return nil, err
	}
	return code, nil
}

func (p *Provider) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	var balance hexutil.Big
	if err := p.bridge.Call(ctx, &balance, "eth_getBalance", account, toBlockNumArg(blockNumber)); err != nil {
		return nil, err
	}
	return balance.ToInt(), nil
}

func (p *Provider) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out hexutil.Bytes
	if err := p.bridge.Call(ctx, &out, "eth_call", toCallArgs(msg), toBlockNumArg(blockNumber)); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Provider) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas hexutil.Uint64
	if err := p.bridge.Call(ctx, &gas, "eth_estimateGas", toCallArgs(msg)); err != nil {
		return 0, err
	}
	return uint64(gas), nil
}

func (p *Provider) ChainID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := p.bridge.Call(ctx, &id, "eth_chainId"); err != nil {
		return nil, err
	}
	return id.ToInt(), nil
}

func (p *Provider) BlockNumber(ctx context.Context) (uint64, error) {
	var n hexutil.Uint64
	if err := p.bridge.Call(ctx, &n, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

func toBlockNumArg(number *big.Int) string {
	if number == nil {
		return "latest"
	}
	return hexutil.EncodeBig(number)
}

func toCallArgs(msg ethereum.CallMsg) callArgs {
	args := callArgs{To: msg.To}
	if msg.From != (common.Address{}) {
		from := msg.From
		args.From = &from
	}
	if len(msg.Data) > 0 {
		data := hexutil.Bytes(msg.Data)
		args.Input = &data
	}
	if msg.Value != nil {
		args.Value = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		gas := hexutil.Uint64(msg.Gas)
		args.Gas = &gas
	}
	return args
}
