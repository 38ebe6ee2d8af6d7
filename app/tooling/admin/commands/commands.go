// Package commands contains the admin commands that operate directly on a
// ledger file or against a running node.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/blockchain/storage/bolt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Config holds the flags shared by every command that opens the ledger.
type Config struct {
	DBPath      string
	Difficulty  uint
	Workers     int
	MaxAttempts uint64
}

// Root constructs the admin command tree.
func Root(build string, log *zap.SugaredLogger) *cobra.Command {
	var cfg Config

	root := &cobra.Command{
		Use:           "admin",
		Short:         "Ledger administration",
		Long:          "Operates directly on a ledger file. Stop the node that owns the file first.",
		Version:       build,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cfg.DBPath, "db", "d", "zblock/ledger.db", "path to the ledger file")
	flags.UintVar(&cfg.Difficulty, "difficulty", 2, "leading zeros required in a block digest")
	flags.IntVar(&cfg.Workers, "workers", 1, "goroutines searching for a nonce")
	flags.Uint64Var(&cfg.MaxAttempts, "max-attempts", 0, "nonce attempts before mining gives up, 0 is no cap")

	root.AddCommand(
		genesisCmd(&cfg, log),
		mineCmd(&cfg, log),
		validateCmd(&cfg, log),
		rebuildCmd(&cfg, log),
		tamperBlockCmd(&cfg, log),
		tamperTransferCmd(&cfg, log),
		blocksCmd(&cfg, log),
		statsCmd(&cfg, log),
		sendCmd(log),
	)

	return root
}

// =============================================================================

// withState opens the ledger file, runs fn and closes the ledger.
func withState(ctx context.Context, cfg *Config, log *zap.SugaredLogger, fn func(ctx context.Context, st *state.State) error) error {
	strg, err := bolt.New(cfg.DBPath)
	if err != nil {
		if bolt.IsTimeout(err) {
			return fmt.Errorf("ledger file %s is in use, stop the node first: %w", cfg.DBPath, err)
		}
		return err
	}

	st, err := state.New(state.Config{
		Storage:     strg,
		Difficulty:  cfg.Difficulty,
		MaxAttempts: cfg.MaxAttempts,
		Workers:     cfg.Workers,
		EvHandler: func(v string, args ...any) {
			log.Debugf(v, args...)
		},
	})
	if err != nil {
		strg.Close()
		return err
	}
	defer st.Shutdown()

	return fn(ctx, st)
}

// printJSON writes the value as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
