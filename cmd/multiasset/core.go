package main

import (
	"github.com/spf13/cobra"

	"github.com/chainsafe/multiasset/pkg/commands"
)

func coreCommands(a *app) []*cobra.Command {
	return []*cobra.Command{
		deployCmd(a),
		assetNewCmd(a),
		mintCmd(a, false),
		mintCmd(a, true),
		transferOwnershipCmd(a),
	}
}

func deployCmd(a *app) *cobra.Command {
	var req commands.DeployRequest
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploys the contract and initializes its ownership",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.runner.Deploy(cmd.Context(), req)
			return err
		},
	}
	cmd.Flags().StringVar(&req.RPC, "rpc", "", "Ledger JSON-RPC endpoint (defaults to ledger.rpc_url)")
	cmd.Flags().StringVar(&req.Resume, "resume", "", "Initialize ownership of an earlier, unowned deployment")
	return cmd
}

func assetNewCmd(a *app) *cobra.Command {
	var req commands.AssetNewRequest
	cmd := &cobra.Command{
		Use:   "asset-new",
		Short: "Creates a new asset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.runner.AssetNew(cmd.Context(), req)
			return err
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Asset name")
	cmd.Flags().StringVar(&req.Symbol, "symbol", "", "Asset symbol")
	cmd.Flags().Uint8Var(&req.Decimals, "decimals", 0, "Asset decimals, e.g. 9")
	cmd.Flags().BoolVar(&req.RestrictedMint, "restricted-mint", false, "Only the owner may mint the asset")
	contractFlags(cmd, &req.ContractID, &req.RPC)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("decimals")
	_ = cmd.MarkFlagRequired("restricted-mint")
	return cmd
}

func mintCmd(a *app, many bool) *cobra.Command {
	var (
		req       commands.MintRequest
		recipient string
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mints an asset amount to a recipient",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if many {
				_, err := a.runner.MintMany(cmd.Context(), req)
				return err
			}
			req.Recipients = []string{recipient}
			_, err := a.runner.Mint(cmd.Context(), req)
			return err
		},
	}
	if many {
		cmd.Use = "mint-many"
		cmd.Short = "Mints an asset amount to each recipient in order, stopping at the first failure"
		cmd.Flags().StringArrayVar(&req.Recipients, "recipient-id", nil, "Recipient fingerprint (repeatable)")
	} else {
		cmd.Flags().StringVar(&recipient, "recipient-id", "", "Recipient fingerprint")
	}
	cmd.Flags().Var(&req.RecipientType, "recipient-type", "Recipient kind: address or contract")
	cmd.Flags().StringVar(&req.Asset, "asset", "", "Asset id")
	cmd.Flags().Uint64Var(&req.Amount, "amount", 0, "Amount to mint, in the asset's smallest unit")
	contractFlags(cmd, &req.ContractID, &req.RPC)
	_ = cmd.MarkFlagRequired("recipient-id")
	_ = cmd.MarkFlagRequired("recipient-type")
	_ = cmd.MarkFlagRequired("asset")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func transferOwnershipCmd(a *app) *cobra.Command {
	var req commands.TransferOwnershipRequest
	cmd := &cobra.Command{
		Use:   "transfer-ownership",
		Short: "Transfers contract ownership",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.runner.TransferOwnership(cmd.Context(), req)
			return err
		},
	}
	cmd.Flags().StringVar(&req.NewOwner, "new-owner-id", "", "New owner fingerprint")
	cmd.Flags().Var(&req.NewOwnerType, "new-owner-type", "New owner kind: address or contract")
	contractFlags(cmd, &req.ContractID, &req.RPC)
	_ = cmd.MarkFlagRequired("new-owner-id")
	return cmd
}

func keygenCmd(a *app) *cobra.Command {
	var req commands.KeygenRequest
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generates a wallet key, or encrypts an existing one, for the wallet config section",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.runner.Keygen(cmd.Context(), req)
			return err
		},
	}
	cmd.Flags().StringVar(&req.PrivateKey, "private-key", "", "Hex private key to encrypt instead of generating one")
	return cmd
}

func contractFlags(cmd *cobra.Command, contractID, rpc *string) {
	cmd.Flags().StringVar(contractID, "contract-id", "", "Contract id")
	cmd.Flags().StringVar(rpc, "rpc", "", "Ledger JSON-RPC endpoint (defaults to ledger.rpc_url)")
	_ = cmd.MarkFlagRequired("contract-id")
}
