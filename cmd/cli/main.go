package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// apiClient talks to the wallet HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

// apiError is a non-2xx API response.
type apiError struct {
	Status int
	Body   dto.ErrorResponse
	Raw    []byte
}

func (e *apiError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("api error (%d): %s: %s", e.Status, e.Body.Error, e.Body.Message)
	}
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Body.Error)
}

func (c *apiClient) do(ctx context.Context, method, path string, headers map[string]string, in, out any) (http.Header, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &apiError{Status: resp.StatusCode, Raw: raw}
		if err := json.Unmarshal(raw, &apiErr.Body); err != nil || apiErr.Body.Error == "" {
			apiErr.Body.Error = truncate(string(raw), 200)
		}
		return resp.Header, apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp.Header, nil
}

func newRootCmd() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)

	rootCmd := &cobra.Command{
		Use:           "walletctl",
		Short:         "Wallet ledger CLI tool",
		Long:          `A command line interface for operating the wallet ledger API and its database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the wallet API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	client := func() *apiClient {
		return &apiClient{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
	}

	rootCmd.AddCommand(walletCmd(client), migrateCmd())
	return rootCmd
}

func walletCmd(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet operations",
	}

	var currency string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var w dto.WalletResponse
			if _, err := client().do(cmd.Context(), http.MethodPost, "/api/v1/wallets", nil, dto.CreateWalletRequest{Currency: currency}, &w); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), w)
		},
	}
	createCmd.Flags().StringVar(&currency, "currency", "USD", "ISO 4217 currency code")

	getCmd := &cobra.Command{
		Use:   "get <wallet-id>",
		Short: "Show a wallet's balance and version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var w dto.WalletResponse
			if _, err := client().do(cmd.Context(), http.MethodGet, "/api/v1/wallets/"+url.PathEscape(args[0]), nil, nil, &w); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), w)
		},
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List wallets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var resp dto.ListWalletsResponse
			if _, err := client().do(cmd.Context(), http.MethodGet, "/api/v1/wallets?"+q.Encode(), nil, nil, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-36s  %-3s  %20s  %s\n", "ID", "CUR", "BALANCE", "VERSION")
			for _, w := range resp.Wallets {
				fmt.Fprintf(out, "%-36s  %-3s  %20s  %d\n", w.ID, w.Currency, truncate(w.Balance, 20), w.Version)
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Offset")

	var afterVersion int64
	var pageSize int
	historyCmd := &cobra.Command{
		Use:   "history <wallet-id>",
		Short: "Print applied operations in version order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			after := afterVersion
			for {
				q := url.Values{}
				q.Set("after_version", strconv.FormatInt(after, 10))
				q.Set("limit", strconv.Itoa(pageSize))

				var page dto.ListOperationsResponse
				path := "/api/v1/wallets/" + url.PathEscape(args[0]) + "/operations?" + q.Encode()
				if _, err := client().do(cmd.Context(), http.MethodGet, path, nil, nil, &page); err != nil {
					return err
				}

				for _, op := range page.Operations {
					fmt.Fprintf(out, "v%-6d %-10s %15s  %15s -> %-15s  %s\n",
						op.Version, op.OperationType, op.Amount, op.BalanceBefore, op.BalanceAfter, truncate(op.IdempotencyKey, 32))
				}

				if page.NextAfterVersion == 0 {
					return nil
				}
				after = page.NextAfterVersion
			}
		},
	}
	historyCmd.Flags().Int64Var(&afterVersion, "after", 0, "Start after this version")
	historyCmd.Flags().IntVar(&pageSize, "page-size", 100, "Records fetched per request")

	reconcileCmd := &cobra.Command{
		Use:   "reconcile [wallet-id]",
		Short: "Check a wallet, or every wallet, against the operation log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				var result dto.ReconciliationResponse
				if _, err := client().do(cmd.Context(), http.MethodGet, "/api/v1/wallets/"+url.PathEscape(args[0])+"/reconciliation", nil, nil, &result); err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if !result.IsReconciled {
					return fmt.Errorf("wallet %s is not reconciled", result.WalletID)
				}
				return nil
			}

			var report dto.ReconciliationReportResponse
			_, err := client().do(cmd.Context(), http.MethodGet, "/api/v1/reconciliation", nil, nil, &report)
			var apiErr *apiError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
				if jsonErr := json.Unmarshal(apiErr.Raw, &report); jsonErr != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), report.Discrepancies); err != nil {
					return err
				}
				return fmt.Errorf("consistency check FAILED: %d of %d wallets disagree with their log",
					len(report.Discrepancies), report.TotalWallets)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Consistency check PASSED (%d wallets)\n", report.TotalWallets)
			return nil
		},
	}

	cmd.AddCommand(
		createCmd,
		getCmd,
		listCmd,
		operationCmd("deposit", "Credit a wallet", client),
		operationCmd("withdraw", "Debit a wallet", client),
		historyCmd,
		reconcileCmd,
	)
	return cmd
}

func operationCmd(kind, short string, client func() *apiClient) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   kind + " <wallet-id> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := domain.ParseAmount(args[1]); err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			headers := map[string]string{}
			if key != "" {
				headers[handler.IdempotencyKeyHeader] = key
			}

			var resp dto.SubmitOperationResponse
			path := "/api/v1/wallets/" + url.PathEscape(args[0]) + "/operation"
			header, err := client().do(cmd.Context(), http.MethodPost, path, headers, dto.OperationRequest{
				OperationType: kind,
				Amount:        dto.Amount(args[1]),
			}, &resp)
			if header != nil {
				// Print the key so a failed request can be retried safely.
				fmt.Fprintf(cmd.ErrOrStderr(), "idempotency key: %s\n", header.Get(handler.IdempotencyKeyHeader))
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key (generated by the server when empty)")
	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")

	log := func(cmd *cobra.Command) zerolog.Logger {
		return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			return postgres.RunMigrations(databaseURL, log(cmd))
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			return postgres.RunMigrationsDown(databaseURL, log(cmd))
		},
	}

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
