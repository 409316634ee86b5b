package compiler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/trebuchet-org/solplay/internal/domain"
)

type diagnostic struct {
	Severity         string `json:"severity"`
	Type             string `json:"type"`
	Message          string `json:"message"`
	FormattedMessage string `json:"formattedMessage"`
}

type contractOutput struct {
	ABI json.RawMessage `json:"abi"`
	EVM struct {
		Bytecode struct {
			Object string `json:"object"`
		} `json:"bytecode"`
	} `json:"evm"`
}

type standardOutput struct {
	Errors    []diagnostic                         `json:"errors"`
	Contracts map[string]map[string]contractOutput `json:"contracts"`
}

// parseOutput turns standard-JSON compiler output into a CompileResult.
// Warnings are dropped; any error-severity diagnostic selects the Errors variant.
func parseOutput(raw []byte) (*domain.CompileResult, error) {
	var out standardOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unparseable compiler output: %w", err)
	}

	errs := lo.FilterMap(out.Errors, func(d diagnostic, _ int) (string, bool) {
		if d.Severity != "error" {
			return "", false
		}
		msg := d.FormattedMessage
		if msg == "" {
			msg = d.Message
		}
		return strings.TrimRight(msg, "\n"), true
	})
	if len(errs) > 0 {
		return &domain.CompileResult{Errors: errs}, nil
	}

	result := &domain.CompileResult{
		Contracts: make(map[string]map[string]domain.CompiledContract, len(out.Contracts)),
	}
	for file, contracts := range out.Contracts {
		result.Contracts[file] = lo.MapValues(contracts, func(c contractOutput, _ string) domain.CompiledContract {
			return domain.CompiledContract{
				ABI:      c.ABI,
				Bytecode: c.EVM.Bytecode.Object,
			}
		})
	}

	return result, nil
}
