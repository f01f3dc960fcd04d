package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rpggio/cotime/internal/rpc"
	"github.com/rpggio/cotime/internal/signature"
	"github.com/spf13/cobra"
)

// KeyEnv names the environment variable read when --key is not given.
const KeyEnv = "COTIME_PRIVATE_KEY"

type signFlags struct {
	key       string
	projectID uint64
	timestamp int64
}

func (f *signFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.key, "key", "", "hex private key (default $"+KeyEnv+")")
	cmd.Flags().Uint64Var(&f.projectID, "project", 0, "project id")
	cmd.Flags().Int64Var(&f.timestamp, "timestamp", 0, "unix seconds to sign (default now)")
}

func (f *signFlags) signer() (*signature.Signer, error) {
	key := f.key
	if key == "" {
		key = os.Getenv(KeyEnv)
	}
	if key == "" {
		return nil, errors.New("no key: pass --key or set " + KeyEnv)
	}
	return signature.ParseSigner(key)
}

func (f *signFlags) ts() int64 {
	if f.timestamp != 0 {
		return f.timestamp
	}
	return time.Now().Unix()
}

func newSignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print signed request params",
	}
	cmd.AddCommand(newSignCheckInCmd())
	cmd.AddCommand(newSignActionCmd())
	return cmd
}

func newSignCheckInCmd() *cobra.Command {
	var (
		flags signFlags
		proof string
	)
	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Sign a daily check-in and print check_in params",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if proof == "" {
				return errors.New("--proof is required")
			}
			signer, err := flags.signer()
			if err != nil {
				return err
			}
			ts := flags.ts()
			sig, err := signer.SignCheckIn(flags.projectID, proof, ts)
			if err != nil {
				return err
			}
			return printJSON(cmd, rpc.CheckInParams{
				ProjectID: flags.projectID,
				ProofHash: proof,
				Timestamp: ts,
				Signature: hexutil.Encode(sig),
				Caller:    signer.Address().Hex(),
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&proof, "proof", "", "proof content hash")
	return cmd
}

func newSignActionCmd() *cobra.Command {
	var (
		flags  signFlags
		action string
	)
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Sign a create, join or finish request and print its auth fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch action {
			case rpc.ActionCreate, rpc.ActionJoin, rpc.ActionFinish:
			default:
				return fmt.Errorf("--action must be %s, %s or %s", rpc.ActionCreate, rpc.ActionJoin, rpc.ActionFinish)
			}
			signer, err := flags.signer()
			if err != nil {
				return err
			}
			ts := flags.ts()
			sig, err := signer.SignAction(action, flags.projectID, ts)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"project_id": flags.projectID,
				"caller":     signer.Address().Hex(),
				"timestamp":  ts,
				"signature":  hexutil.Encode(sig),
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&action, "action", "", "create_project, join_project or finish_project")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
