package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func sendCmd(log *zap.SugaredLogger) *cobra.Command {
	var url string
	var nt state.NewTransfer
	var amount string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Submit a transfer to a running node",
		Long: `Posts a transfer to the public API of a node.
Examples:
  admin send --sender Alice --receiver Bob --amount 10.50
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			nt.Amount = amt

			if err := nt.Validate(); err != nil {
				return err
			}

			data, err := json.Marshal(nt)
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url+"/v1/transfers", bytes.NewReader(data))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			client := http.Client{Timeout: 10 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("sending transfer: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}

			log.Debugw("send", "status", resp.StatusCode, "url", url)

			if resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("node returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
			}

			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "url of the node public api")
	cmd.Flags().StringVar(&nt.Sender, "sender", "", "account sending the amount")
	cmd.Flags().StringVar(&nt.Receiver, "receiver", "", "account receiving the amount")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to transfer")
	cmd.MarkFlagRequired("sender")
	cmd.MarkFlagRequired("receiver")
	cmd.MarkFlagRequired("amount")

	return cmd
}
