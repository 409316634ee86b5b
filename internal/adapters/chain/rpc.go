package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/samber/lo"
)

// callArgs is the transaction object accepted by eth_call, eth_estimateGas
// and eth_sendTransaction
type callArgs struct {
	From                 *common.Address `json:"from,omitempty"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  *hexutil.Uint64 `json:"gas,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value,omitempty"`
	Nonce                *hexutil.Uint64 `json:"nonce,omitempty"`
	Data                 *hexutil.Bytes  `json:"data,omitempty"`
	Input                *hexutil.Bytes  `json:"input,omitempty"`
}

func (a callArgs) data() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

func (a callArgs) callMsg() ethereum.CallMsg {
	msg := ethereum.CallMsg{To: a.To, Data: a.data()}
	if a.From != nil {
		msg.From = *a.From
	}
	if a.Gas != nil {
		msg.Gas = uint64(*a.Gas)
	}
	if a.Value != nil {
		msg.Value = a.Value.ToInt()
	}
	return msg
}

// dispatch runs one query against the simulated client. Transaction sending
// signs with the dev keys and mines immediately.
func (e *Engine) dispatch(ctx context.Context, q Query) (any, error) {
	switch q.Method {
	case "eth_accounts":
		return lo.Map(e.accounts, func(acc devAccount, _ int) common.Address { return acc.address }), nil

	case "eth_chainId":
		id, err := e.client.ChainID(ctx)
		if err != nil {
			return nil, err
		}
		return (*hexutil.Big)(id), nil

	case "eth_blockNumber":
		n, err := e.client.BlockNumber(ctx)
		return hexutil.Uint64(n), err

	case "eth_gasPrice":
		price, err := e.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, err
		}
		return (*hexutil.Big)(price), nil

	case "eth_maxPriorityFeePerGas":
		tip, err := e.client.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, err
		}
		return (*hexutil.Big)(tip), nil

	case "eth_getBalance":
		var addr common.Address
		var block string
		if err := decodeParams(q, &addr, &block); err != nil {
			return nil, err
		}
		num, err := blockNumberArg(block)
		if err != nil {
			return nil, err
		}
		bal, err := e.client.BalanceAt(ctx, addr, num)
		if err != nil {
			return nil, err
		}
		return (*hexutil.Big)(bal), nil

	case "eth_getCode":
		var addr common.Address
		var block string
		if err := decodeParams(q, &addr, &block); err != nil {
			return nil, err
		}
		num, err := blockNumberArg(block)
		if err != nil {
			return nil, err
		}
		code, err := e.client.CodeAt(ctx, addr, num)
		return hexutil.Bytes(code), err

	case "eth_getTransactionCount":
		var addr common.Address
		var block string
		if err := decodeParams(q, &addr, &block); err != nil {
			return nil, err
		}
		if block == "pending" {
			nonce, err := e.client.PendingNonceAt(ctx, addr)
			return hexutil.Uint64(nonce), err
		}
		num, err := blockNumberArg(block)
		if err != nil {
			return nil, err
		}
		nonce, err := e.client.NonceAt(ctx, addr, num)
		return hexutil.Uint64(nonce), err

	case "eth_call":
		var args callArgs
		var block string
		if err := decodeParams(q, &args, &block); err != nil {
			return nil, err
		}
		num, err := blockNumberArg(block)
		if err != nil {
			return nil, err
		}
		out, err := e.client.CallContract(ctx, args.callMsg(), num)
		return hexutil.Bytes(out), err

	case "eth_estimateGas":
		var args callArgs
		if err := decodeParams(q, &args); err != nil {
			return nil, err
		}
		gas, err := e.client.EstimateGas(ctx, args.callMsg())
		return hexutil.Uint64(gas), err

	case "eth_sendTransaction":
		var args callArgs
		if err := decodeParams(q, &args); err != nil {
			return nil, err
		}
		return e.sendTransaction(ctx, args)

	case "eth_sendRawTransaction":
		var raw hexutil.Bytes
		if err := decodeParams(q, &raw); err != nil {
			return nil, err
		}
		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(raw); err != nil {
			return nil, fmt.Errorf("invalid raw transaction: %w", err)
		}
		if err := e.client.SendTransaction(ctx, tx); err != nil {
			return nil, err
		}
		e.sent[tx.Hash()] = struct{}{}
		e.backend.Commit()
		return tx.Hash(), nil

	case "eth_getTransactionReceipt":
		var hash common.Hash
		if err := decodeParams(q, &hash); err != nil {
			return nil, err
		}
		receipt, err := e.client.TransactionReceipt(ctx, hash)
		if err != nil {
			// the simulated backend reports unknown hashes as "indexing in progress"
			if errors.Is(err, ethereum.NotFound) || !e.submitted(hash) {
				return nil, nil
			}
			return nil, err
		}
		if receipt.Logs == nil {
			receipt.Logs = []*types.Log{}
		}
		return receipt, nil

	case "eth_getTransactionByHash":
		var hash common.Hash
		if err := decodeParams(q, &hash); err != nil {
			return nil, err
		}
		tx, _, err := e.client.TransactionByHash(ctx, hash)
		if err != nil && (errors.Is(err, ethereum.NotFound) || !e.submitted(hash)) {
			return nil, nil
		}
		return tx, err
	}

	return nil, fmt.Errorf("method %s not supported", q.Method)
}

// submitted reports whether hash was sent through this chain. Every
// submission is mined at once, so only these hashes have receipts.
func (e *Engine) submitted(hash common.Hash) bool {
	_, ok := e.sent[hash]
	return ok
}

func (e *Engine) sendTransaction(ctx context.Context, args callArgs) (common.Hash, error) {
	if args.From == nil {
		return common.Hash{}, errors.New("missing from address")
	}
	acc, ok := e.keys[*args.From]
	if !ok {
		return common.Hash{}, fmt.Errorf("unknown account %s", args.From.Hex())
	}

	chainID, err := e.client.ChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	var nonce uint64
	if args.Nonce != nil {
		nonce = uint64(*args.Nonce)
	} else if nonce, err = e.client.PendingNonceAt(ctx, acc.address); err != nil {
		return common.Hash{}, err
	}

	var tip *big.Int
	if args.MaxPriorityFeePerGas != nil {
		tip = args.MaxPriorityFeePerGas.ToInt()
	} else if tip, err = e.client.SuggestGasTipCap(ctx); err != nil {
		return common.Hash{}, err
	}

	var feeCap *big.Int
	if args.MaxFeePerGas != nil {
		feeCap = args.MaxFeePerGas.ToInt()
	} else {
		head, err := e.client.HeaderByNumber(ctx, nil)
		if err != nil {
			return common.Hash{}, err
		}
		feeCap = new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	var gas uint64
	if args.Gas != nil {
		gas = uint64(*args.Gas)
	} else if gas, err = e.client.EstimateGas(ctx, args.callMsg()); err != nil {
		return common.Hash{}, err
	}

	value := new(big.Int)
	if args.Value != nil {
		value = args.Value.ToInt()
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        args.To,
		Value:     value,
		Data:      args.data(),
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), acc.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := e.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	e.sent[signed.Hash()] = struct{}{}
	e.backend.Commit()

	return signed.Hash(), nil
}

// decodeParams unmarshals positional params into dst. Missing trailing
// params leave their destination untouched.
func decodeParams(q Query, dst ...any) error {
	if len(q.Params) > len(dst) {
		return fmt.Errorf("%s: too many params (%d)", q.Method, len(q.Params))
	}
	if len(q.Params) == 0 && len(dst) > 0 {
		return fmt.Errorf("%s: missing params", q.Method)
	}
	for i, raw := range q.Params {
		if err := json.Unmarshal(raw, dst[i]); err != nil {
			return fmt.Errorf("%s: invalid param %d: %w", q.Method, i, err)
		}
	}
	return nil
}

// blockNumberArg maps a block tag onto the client's block argument; nil means latest
func blockNumberArg(block string) (*big.Int, error) {
	switch block {
	case "", "latest", "pending":
		return nil, nil
	case "earliest":
		return big.NewInt(0), nil
	}
	n, err := hexutil.DecodeBig(block)
	if err != nil {
		return nil, fmt.Errorf("invalid block number %q: %w", block, err)
	}
	return n, nil
}
