package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func tamperBlockCmd(cfg *Config, log *zap.SugaredLogger) *cobra.Command {
	var index uint64
	var hash string

	cmd := &cobra.Command{
		Use:   "tamper-block",
		Short: "Overwrite the digest of a block without re-mining it",
		Long: `Overwrites the stored digest of a block so validate reports it.
Examples:
  # Replace the digest of block 1 with a random value
  admin tamper-block --index 1
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hash = strings.ToLower(hash)
			if hash != "" {
				if len(hash) != digest.Size {
					return fmt.Errorf("hash must be %d hex characters", digest.Size)
				}
				if _, err := hexutil.Decode("0x" + hash); err != nil {
					return fmt.Errorf("invalid hash: %w", err)
				}
			}

			return withState(cmd.Context(), cfg, log, func(ctx context.Context, st *state.State) error {
				block, err := st.TamperBlock(ctx, index, hash)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), block)
			})
		},
	}

	cmd.Flags().Uint64VarP(&index, "index", "i", 0, "index of the block to modify")
	cmd.Flags().StringVar(&hash, "hash", "", "digest to store, random when empty")
	cmd.MarkFlagRequired("index")

	return cmd
}

func tamperTransferCmd(cfg *Config, log *zap.SugaredLogger) *cobra.Command {
	var id uint64
	var amount string

	cmd := &cobra.Command{
		Use:   "tamper-transfer",
		Short: "Overwrite the amount of a transfer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			if amt.IsNegative() {
				return fmt.Errorf("amount %s is negative", amt)
			}

			return withState(cmd.Context(), cfg, log, func(ctx context.Context, st *state.State) error {
				tran, err := st.TamperTransfer(ctx, id, amt)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tran)
			})
		},
	}

	cmd.Flags().Uint64Var(&id, "id", 0, "id of the transfer to modify")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to store")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("amount")

	return cmd
}
