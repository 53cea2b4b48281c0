package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

func newInvokeCmd(factory ServiceFactory) *cobra.Command {
	var (
		params   []string
		headers  []string
		bodyFile string
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "invoke <operation-id>",
		Short: "Invoke one operation",
		Example: strings.TrimSpace(`  smctl invoke GetSecret -p secretType=arbitrary -p id=0b5571f7
  smctl invoke CreateSecret -p secretType=arbitrary --body-file secret.yaml
  smctl invoke DeleteSecret -p secretType=arbitrary -p id=0b5571f7 --dry-run`),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return newUsageError(fmt.Sprintf("invoke takes exactly one operation id\n\n%s", cmd.UsageString()))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			bag, err := buildBag(params, headers, bodyFile)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			svc, closeFn, err := factory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			if dryRun {
				req, err := svc.Describe(args[0], bag)
				if err != nil {
					return err
				}
				return writeValue(cmd, req)
			}

			resp, err := svc.Do(cmd.Context(), args[0], bag)
			if err != nil {
				return err
			}
			return writeValue(cmd, resp)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&params, "param", "p", nil, "Parameter as name=value; JSON objects and arrays are decoded")
	flags.StringArrayVarP(&headers, "header", "H", nil, "Header override as Name=value")
	flags.StringVar(&bodyFile, "body-file", "", "YAML or JSON file whose top-level keys are added as parameters")
	flags.BoolVar(&dryRun, "dry-run", false, "Print the request without sending it")
	return cmd
}

// buildBag merges the body file first, then -p flags, so flags win.
func buildBag(params, headers []string, bodyFile string) (operation.Bag, error) {
	bag := operation.Bag{}

	if bodyFile != "" {
		data, err := os.ReadFile(bodyFile)
		if err != nil {
			return nil, err
		}
		var fromFile map[string]any
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return nil, newUsageError(fmt.Sprintf("body file %s: %v", bodyFile, err))
		}
		for k, v := range fromFile {
			bag[k] = v
		}
	}

	for _, p := range params {
		name, raw, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, newUsageError(fmt.Sprintf("invalid --param %q (want name=value)", p))
		}
		bag[name] = parseValue(raw)
	}

	if len(headers) > 0 {
		h := map[string]string{}
		for _, kv := range headers {
			name, val, ok := strings.Cut(kv, "=")
			if !ok || name == "" {
				return nil, newUsageError(fmt.Sprintf("invalid --header %q (want Name=value)", kv))
			}
			h[name] = val
		}
		bag.WithHeaders(h)
	}
	return bag, nil
}

func parseValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return raw
}
