package main

import (
	"encoding/json"

	"github.com/rpggio/cotime/internal/signature"
	"github.com/spf13/cobra"
)

type keyOutput struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a secp256k1 key for signing requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			signer, err := signature.GenerateSigner()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(keyOutput{Address: signer.Address().Hex(), PrivateKey: signer.HexKey()})
		},
	}
}
