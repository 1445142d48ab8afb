package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/chainsafe/multiasset/pkg/commands"
)

func infoCommands(a *app) []*cobra.Command {
	return []*cobra.Command{
		contractQueryCmd("total-assets", "Queries the number of assets", func(ctx context.Context, q commands.ContractQuery) error {
			_, err := a.runner.TotalAssets(ctx, q)
			return err
		}),
		contractQueryCmd("owner", "Queries the contract owner", func(ctx context.Context, q commands.ContractQuery) error {
			_, err := a.runner.Owner(ctx, q)
			return err
		}),
		assetQueryCmd("name", "Queries an asset name", func(ctx context.Context, q commands.AssetQuery) error {
			_, err := a.runner.Name(ctx, q)
			return err
		}),
		assetQueryCmd("symbol", "Queries an asset symbol", func(ctx context.Context, q commands.AssetQuery) error {
			_, err := a.runner.Symbol(ctx, q)
			return err
		}),
		assetQueryCmd("decimals", "Queries an asset's decimals", func(ctx context.Context, q commands.AssetQuery) error {
			_, err := a.runner.Decimals(ctx, q)
			return err
		}),
		assetQueryCmd("restricted-mint", "Queries whether minting an asset is restricted", func(ctx context.Context, q commands.AssetQuery) error {
			_, err := a.runner.RestrictedMint(ctx, q)
			return err
		}),
		assetQueryCmd("total-supply", "Queries an asset's total supply", func(ctx context.Context, q commands.AssetQuery) error {
			_, err := a.runner.TotalSupply(ctx, q)
			return err
		}),
		assetByNameCmd(a),
		balanceCmd(a),
		deploymentsCmd(a),
		bech32ConvCmd(a),
	}
}

func contractQueryCmd(use, short string, fn func(context.Context, commands.ContractQuery) error) *cobra.Command {
	var q commands.ContractQuery
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return fn(cmd.Context(), q)
		},
	}
	contractFlags(cmd, &q.ContractID, &q.RPC)
	return cmd
}

func assetQueryCmd(use, short string, fn func(context.Context, commands.AssetQuery) error) *cobra.Command {
	var q commands.AssetQuery
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return fn(cmd.Context(), q)
		},
	}
	cmd.Flags().StringVar(&q.Asset, "asset", "", "Asset id")
	contractFlags(cmd, &q.ContractID, &q.RPC)
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}

func assetByNameCmd(a *app) *cobra.Command {
	var q commands.AssetByNameQuery
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Looks up the id of the first asset registered under a name",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.runner.Asset(cmd.Context(), q)
			return err
		},
	}
	cmd.Flags().StringVar(&q.Name, "name", "", "Asset name")
	contractFlags(cmd, &q.ContractID, &q.RPC)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func balanceCmd(a *app) *cobra.Command {
	var q commands.BalanceQuery
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Queries an asset balance, of the configured account by default",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.runner.Balance(cmd.Context(), q)
			return err
		},
	}
	cmd.Flags().StringVar(&q.Asset, "asset", "", "Asset id (the zero id is the base asset)")
	cmd.Flags().StringVar(&q.Owner, "owner-id", "", "Owner fingerprint")
	cmd.Flags().Var(&q.OwnerType, "owner-type", "Owner kind: address or contract")
	cmd.Flags().StringVar(&q.ContractID, "contract-id", "", "Read the balance from this contract")
	cmd.Flags().StringVar(&q.RPC, "rpc", "", "Ledger JSON-RPC endpoint (defaults to ledger.rpc_url)")
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}

func deploymentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deployments",
		Short: "Lists journaled deployments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.runner.Deployments(cmd.Context())
			return err
		},
	}
}

func bech32ConvCmd(a *app) *cobra.Command {
	var encoded string
	cmd := &cobra.Command{
		Use:   "bech32-conv",
		Short: "Converts a bech32 address to its hex fingerprint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.runner.Bech32Conv(cmd.Context(), encoded)
			return err
		},
	}
	cmd.Flags().StringVar(&encoded, "bech32", "", "The bech32 address")
	_ = cmd.MarkFlagRequired("bech32")
	return cmd
}
