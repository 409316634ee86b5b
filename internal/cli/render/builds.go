package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/trebuchet-org/solplay/internal/domain"
	"github.com/trebuchet-org/solplay/internal/usecase"
)

// BuildsRenderer renders compiler build tables and resolutions
type BuildsRenderer struct {
	out    io.Writer
	format Format
}

// NewBuildsRenderer creates a new builds renderer
func NewBuildsRenderer(out io.Writer, format Format) *BuildsRenderer {
	return &BuildsRenderer{
		out:    out,
		format: format,
	}
}

// RenderBuilds renders the pinned build table in resolution order
func (r *BuildsRenderer) RenderBuilds(builds []domain.Build) error {
	if r.format.Structured() {
		return writeStructured(r.out, r.format, builds)
	}

	t := newTable(r.out)
	t.AppendHeader(table.Row{"#", "VERSION", "BUILD"})
	for i, b := range builds {
		t.AppendRow(table.Row{i + 1, b.Version, buildStyle.Sprint(b.ID.String())})
	}
	t.Render()
	return nil
}

// RenderResolution renders the build and contract a source selects
func (r *BuildsRenderer) RenderResolution(res *domain.Resolution) error {
	if r.format.Structured() {
		return writeStructured(r.out, r.format, res)
	}

	fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("pragma:  "), res.Constraint)
	fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("contract:"), nameStyle.Sprint(res.ContractName))
	fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("build:   "), buildStyle.Sprint(res.Build.ID.String()))
	return nil
}

// RenderVersions renders the published compiler versions, newest first, and
// marks the ones the pinned table deploys with
func (r *BuildsRenderer) RenderVersions(result *usecase.ListVersionsResult) error {
	if r.format.Structured() {
		return writeStructured(r.out, r.format, result)
	}

	if len(result.Versions) == 0 {
		fmt.Fprintln(r.out, "No compiler versions published")
		return nil
	}

	pinned := make(map[domain.BuildID]bool, len(result.Pinned))
	for _, b := range result.Pinned {
		pinned[b.ID] = true
	}

	t := newTable(r.out)
	t.AppendHeader(table.Row{"VERSION", "BUILD", "PINNED"})
	for _, v := range result.Versions {
		mark := ""
		if pinned[v.ID()] {
			mark = verifiedStyle.Sprint("✓")
		}
		version := v.Version
		if v.Prerelease != "" {
			version += "-" + v.Prerelease
		}
		t.AppendRow(table.Row{version, v.Build, mark})
	}
	t.Render()

	if len(result.Versions) < result.Total {
		fmt.Fprintln(r.out, labelStyle.Sprintf("showing %d of %d versions", len(result.Versions), result.Total))
	}
	return nil
}

// accountsOutput carries checksummed addresses; common.Address marshals
// as lowercase hex
type accountsOutput struct {
	Accounts []string `json:"accounts" yaml:"accounts"`
	Deployer string   `json:"deployer" yaml:"deployer"`
}

// RenderAccounts renders the funded accounts of the simulated chain
func (r *BuildsRenderer) RenderAccounts(result *usecase.ListAccountsResult) error {
	if r.format.Structured() {
		return writeStructured(r.out, r.format, &accountsOutput{
			Accounts: lo.Map(result.Accounts, func(a common.Address, _ int) string { return a.Hex() }),
			Deployer: result.Deployer.Hex(),
		})
	}

	t := newTable(r.out)
	t.AppendHeader(table.Row{"#", "ACCOUNT", ""})
	for i, a := range result.Accounts {
		role := ""
		if a == result.Deployer {
			role = verifiedStyle.Sprint("deployer")
		}
		t.AppendRow(table.Row{i, addressStyle.Sprint(a.Hex()), role})
	}
	t.Render()
	return nil
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Format.Header = text.FormatDefault
	return t
}
