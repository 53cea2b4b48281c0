// Package cli implements smctl, a command-line client for the Secrets
// Manager operation table.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/client"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/config"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/secretsmanager"
)

// Service is what the commands need from a connected client.
type Service interface {
	Generation() secretsmanager.Generation
	Operations() []operation.Spec
	Do(ctx context.Context, id string, bag operation.Bag) (*secretsmanager.Response[json.RawMessage], error)
	Describe(id string, bag operation.Bag) (operation.RequestDescriptor, error)
}

// ServiceFactory connects a Service. The returned func releases it.
type ServiceFactory func(ctx context.Context, cfg *config.ClientConfig) (Service, func() error, error)

func defaultFactory(ctx context.Context, cfg *config.ClientConfig) (Service, func() error, error) {
	c, err := client.New(ctx, cfg, zap.NewNop(), client.Deps{Source: "smctl"})
	if err != nil {
		return nil, nil, err
	}
	return c.Service, c.Close, nil
}

// Execute runs the smctl CLI.
func Execute() error {
	return NewRootCmd(nil).Execute()
}

// NewRootCmd constructs the root command. A nil factory connects through
// internal/client using the environment configuration.
func NewRootCmd(factory ServiceFactory) *cobra.Command {
	if factory == nil {
		factory = defaultFactory
	}

	cmd := &cobra.Command{
		Use:           "smctl",
		Short:         "Invoke Secrets Manager operations",
		Long:          "smctl lists, describes and invokes Secrets Manager API operations by ID. Connection settings come from SM_* environment variables and may be overridden by flags.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flagErr := func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	}
	cmd.SetFlagErrorFunc(flagErr)

	pf := cmd.PersistentFlags()
	pf.String("service-url", "", "Service URL (overrides SM_SERVICE_URL)")
	pf.String("generation", "", "API generation: current or legacy (overrides SM_GENERATION)")
	pf.StringP("output", "o", "json", "Output format: json or yaml")

	for _, sub := range []*cobra.Command{
		newOperationsCmd(),
		newInvokeCmd(factory),
		newOpenAPICmd(),
	} {
		sub.SetFlagErrorFunc(flagErr)
		cmd.AddCommand(sub)
	}
	return cmd
}

// loadConfig merges persistent flag overrides onto the environment
// configuration.
func loadConfig(cmd *cobra.Command) (*config.ClientConfig, error) {
	cfg := config.Load()
	if v, _ := cmd.Flags().GetString("service-url"); v != "" {
		cfg.ServiceURL = v
	}
	if v, _ := cmd.Flags().GetString("generation"); v != "" {
		cfg.Generation = v
	}
	if _, err := secretsmanager.ParseGeneration(cfg.Generation); err != nil {
		return nil, newUsageError(err.Error())
	}
	return cfg, nil
}

func generationFlag(cmd *cobra.Command) (secretsmanager.Generation, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return secretsmanager.ParseGeneration(cfg.Generation)
}
