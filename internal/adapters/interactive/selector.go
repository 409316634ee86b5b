package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/solplay/internal/domain/config"
	"github.com/trebuchet-org/solplay/internal/usecase"
)

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectFunction lets the user pick one function of a deployed contract
func (s *SelectorAdapter) SelectFunction(ctx context.Context, methods []abi.Method, prompt string) (*abi.Method, error) {
	if s.config.NonInteractive {
		return nil, fmt.Errorf("interactive selection not available in non-interactive mode")
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("contract has no callable functions")
	}

	options := formatFunctionOptions(methods)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, / to search, Enter to call, Ctrl+C to quit"),
	}

	promptSelect := promptui.Select{
		Label:     prompt,
		Items:     options,
		Templates: templates,
		Size:      10,
		Searcher:  createFuzzySearchFunc(options),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	return &methods[index], nil
}

// PromptArgument asks for the value of one function input
func (s *SelectorAdapter) PromptArgument(ctx context.Context, method *abi.Method, arg abi.Argument) (string, error) {
	if s.config.NonInteractive {
		return "", fmt.Errorf("interactive input not available in non-interactive mode")
	}

	name := arg.Name
	if name == "" {
		name = "arg"
	}

	prompt := promptui.Prompt{
		Label: fmt.Sprintf("%s %s (%s)", method.RawName, name, arg.Type.String()),
		Validate: func(input string) error {
			_, err := usecase.ParseArguments(abi.Arguments{arg}, []string{input})
			return err
		},
	}

	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("input cancelled: %w", err)
	}
	return value, nil
}

// formatFunctionOptions renders "get() → (uint256) [view]" style labels
func formatFunctionOptions(methods []abi.Method) []string {
	options := make([]string, len(methods))
	for i, m := range methods {
		inputs := make([]string, len(m.Inputs))
		for j, in := range m.Inputs {
			inputs[j] = strings.TrimSpace(in.Type.String() + " " + in.Name)
		}
		outputs := make([]string, len(m.Outputs))
		for j, out := range m.Outputs {
			outputs[j] = out.Type.String()
		}

		name := color.New(color.FgWhite, color.Bold).Sprint(m.RawName)
		label := fmt.Sprintf("%s(%s)", name, strings.Join(inputs, ", "))
		if len(outputs) > 0 {
			label += " → (" + strings.Join(outputs, ", ") + ")"
		}

		mutability := m.StateMutability
		if mutability == "" {
			mutability = "nonpayable"
		}
		if m.IsConstant() {
			label += " " + color.New(color.FgBlue).Sprintf("[%s]", mutability)
		} else {
			label += " " + color.New(color.FgYellow).Sprintf("[%s]", mutability)
		}
		options[i] = label
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		if strings.Contains(item, input) {
			return true
		}

		pattern := fuzzy.Find(input, []string{item})
		return len(pattern) > 0
	}
}

// Ensure the adapter implements the interface
var _ usecase.FunctionSelector = (*SelectorAdapter)(nil)
