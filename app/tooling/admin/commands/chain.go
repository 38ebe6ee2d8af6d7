package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrInvalidChain is returned by validate when the chain has violations so
// the process exits non-zero.
var ErrInvalidChain = errors.New("chain is invalid")

func genesisCmd(cfg *Config, log *zap.SugaredLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "genesis",
		Short: "Create the genesis block if the ledger has none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd.Context(), cfg, log, func(ctx context.Context, st *state.State) error {
				block, err := st.CreateGenesis(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), block)
			})
		},
	}
}

func mineCmd(cfg *Config, log *zap.SugaredLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "Mine every pending transfer into a new block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd.Context(), cfg, log, func(ctx context.Context, st *state.State) error {
				res, err := st.MineBlock(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func validateCmd(cfg *Config, log *zap.SugaredLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Walk the chain and report every integrity violation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd.Context(), cfg, log, func(ctx context.Context, st *state.State) error {
				res, err := st.Validate(ctx)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				if !res.Valid {
					return ErrInvalidChain
				}
				return nil
			})
		},
	}
}

func rebuildCmd(cfg *Config, log *zap.SugaredLogger) *cobra.Command {
	var from uint64

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Re-mine every block from an index to the tip",
		Long: `Re-links and re-mines every block with an index at or above --from.
Examples:
  # Repair the chain after block 3 was modified
  admin rebuild --from 3
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd.Context(), cfg, log, func(ctx context.Context, st *state.State) error {
				res, err := st.RebuildFrom(ctx, from)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				if !res.Success {
					return fmt.Errorf("rebuild: %s", res.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().Uint64VarP(&from, "from", "f", 0, "index of the first block to rebuild")
	cmd.MarkFlagRequired("from")

	return cmd
}

func blocksCmd(cfg *Config, log *zap.SugaredLogger) *cobra.Command {
	var index int64

	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Print the blocks in the chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd.Context(), cfg, log, func(ctx context.Context, st *state.State) error {
				if index >= 0 {
					block, err := st.QueryBlock(ctx, uint64(index))
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), block)
				}

				blocks, err := st.QueryBlocks(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), blocks)
			})
		},
	}

	cmd.Flags().Int64VarP(&index, "index", "i", -1, "print only the block at this index")

	return cmd
}

func statsCmd(cfg *Config, log *zap.SugaredLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print a summary of the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withState(cmd.Context(), cfg, log, func(ctx context.Context, st *state.State) error {
				stats, err := st.RetrieveStats(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
}
