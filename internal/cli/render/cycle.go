package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/trebuchet-org/solplay/internal/domain"
	"github.com/trebuchet-org/solplay/internal/usecase"
)

var (
	labelStyle    = color.New(color.Faint)
	nameStyle     = color.New(color.FgHiWhite, color.Bold)
	addressStyle  = color.New(color.FgCyan)
	buildStyle    = color.New(color.FgMagenta)
	verifiedStyle = color.New(color.FgGreen)
)

// CycleOutput is the structured form of a cycle and the calls made after it
type CycleOutput struct {
	State       string                   `json:"state" yaml:"state"`
	Resolution  *domain.Resolution       `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	Diagnostics []string                 `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Contract    *ContractOutput          `json:"contract,omitempty" yaml:"contract,omitempty"`
	Calls       []*domain.CallResult     `json:"calls,omitempty" yaml:"calls,omitempty"`
	Activity    []string                 `json:"activity" yaml:"activity"`
	Error       string                   `json:"error,omitempty" yaml:"error,omitempty"`
}

// ContractOutput is a deployed contract with checksummed addresses
type ContractOutput struct {
	Name     string `json:"name" yaml:"name"`
	Address  string `json:"address" yaml:"address"`
	Build    string `json:"build" yaml:"build"`
	Deployer string `json:"deployer" yaml:"deployer"`
	TxHash   string `json:"txHash" yaml:"txHash"`
	GasUsed  uint64 `json:"gasUsed" yaml:"gasUsed"`
}

func newContractOutput(c domain.ContractInstance) *ContractOutput {
	return &ContractOutput{
		Name:     c.Name,
		Address:  c.Address.Hex(),
		Build:    c.Build.String(),
		Deployer: c.Deployer.Hex(),
		TxHash:   c.TxHash.Hex(),
		GasUsed:  c.GasUsed,
	}
}

// checksumValues replaces decoded addresses with their checksummed form
func checksumValues(calls []*domain.CallResult) []*domain.CallResult {
	return lo.Map(calls, func(c *domain.CallResult, _ int) *domain.CallResult {
		if c == nil || len(c.Values) == 0 {
			return c
		}
		out := *c
		out.Values = lo.Map(c.Values, func(v any, _ int) any {
			switch a := v.(type) {
			case common.Address:
				return a.Hex()
			case []common.Address:
				return lo.Map(a, func(x common.Address, _ int) string { return x.Hex() })
			}
			return v
		})
		return &out
	})
}

// CycleRenderer prints the outcome of a run
type CycleRenderer struct {
	out    io.Writer
	format Format
}

// NewCycleRenderer creates a new cycle renderer
func NewCycleRenderer(out io.Writer, format Format) *CycleRenderer {
	return &CycleRenderer{
		out:    out,
		format: format,
	}
}

// NewCycleOutput collects everything a run produced
func NewCycleOutput(result *usecase.CycleResult, calls []*domain.CallResult, activity []string, runErr error) *CycleOutput {
	out := &CycleOutput{
		State:    string(domain.StateIdle),
		Calls:    checksumValues(calls),
		Activity: activity,
	}
	if out.Activity == nil {
		out.Activity = []string{}
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	if result == nil {
		return out
	}

	out.State = string(result.State)
	out.Resolution = result.Resolution
	out.Diagnostics = result.Diagnostics
	if result.Contract != nil {
		out.Contract = newContractOutput(result.Contract.Instance())
	}
	return out
}

// Render prints the cycle. In text mode the activity log has already been
// streamed, so only the closing summary is printed.
func (r *CycleRenderer) Render(output *CycleOutput) error {
	if r.format.Structured() {
		return writeStructured(r.out, r.format, output)
	}

	// failures are reported by the caller's error
	if output.Contract == nil {
		return nil
	}

	c := output.Contract
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s %s", nameStyle.Sprint(c.Name), StateLabel(output.State))))
	fmt.Fprintf(r.out, "   %s %s\n", labelStyle.Sprint("address: "), addressStyle.Sprint(c.Address))
	fmt.Fprintf(r.out, "   %s %s\n", labelStyle.Sprint("build:   "), buildStyle.Sprint(shortID(c.Build)))
	fmt.Fprintf(r.out, "   %s %s\n", labelStyle.Sprint("deployer:"), c.Deployer)
	fmt.Fprintf(r.out, "   %s %s\n", labelStyle.Sprint("tx:      "), c.TxHash)
	fmt.Fprintf(r.out, "   %s %d\n", labelStyle.Sprint("gas used:"), c.GasUsed)
	return nil
}

var _ Renderer[*CycleOutput] = (*CycleRenderer)(nil)
