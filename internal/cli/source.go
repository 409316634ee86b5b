package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// readSource reads a Solidity source from a file, or from stdin when path is "-"
func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read source from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read source: %w", err)
	}
	return string(data), nil
}

// callSpec is one --call flag: "fn" or "fn:arg,arg"
type callSpec struct {
	Function string
	Args     []string
}

func parseCallSpecs(values []string) ([]callSpec, error) {
	specs := make([]callSpec, 0, len(values))
	for _, value := range values {
		name, rawArgs, hasArgs := strings.Cut(value, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid call %q (expected fn or fn:arg,arg)", value)
		}

		spec := callSpec{Function: name, Args: []string{}}
		if hasArgs && rawArgs != "" {
			for _, arg := range strings.Split(rawArgs, ",") {
				spec.Args = append(spec.Args, strings.TrimSpace(arg))
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
