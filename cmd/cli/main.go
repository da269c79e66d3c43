package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/logger"
	"github.com/iho/ledgercore/internal/infrastructure/postgres"
)

// options are the persistent flags shared by every API command.
type options struct {
	baseURL string
	timeout time.Duration
	tenant  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "ledgercore-cli",
		Short:         "LedgerCore CLI tool",
		Long:          `A command line interface for the LedgerCore accounting API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the LedgerCore API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.tenant, "tenant", os.Getenv("LEDGERCORE_TENANT"), "Tenant ID sent as X-Tenant-ID")

	rootCmd.AddCommand(
		chartCmd(opts),
		amortizationCmd(opts),
		statementsCmd(opts),
		migrateCmd(),
	)
	return rootCmd
}

func chartCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Chart of accounts",
	}

	var raw bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the standard chart of accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if raw {
				_, err := cmd.OutOrStdout().Write(domain.StandardChartYAML())
				return err
			}
			accounts, err := domain.StandardChart()
			if err != nil {
				return err
			}
			return printChart(cmd.OutOrStdout(), accounts)
		},
	}
	showCmd.Flags().BoolVar(&raw, "yaml", false, "Print the template as YAML")

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the standard chart for the tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.call(cmd, http.MethodPost, "/api/v1/accounts/seed", nil, nil)
		},
	}

	cmd.AddCommand(showCmd, seedCmd)
	return cmd
}

func amortizationCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amortization",
		Short: "Prepaid expense amortization",
	}

	var asOf string
	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Recognise every pending amortization period up to --as-of",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body := map[string]string{}
			if asOf != "" {
				if err := checkDate("as-of", asOf); err != nil {
					return err
				}
				body["as_of"] = asOf
			}
			return opts.call(cmd, http.MethodPost, "/api/v1/amortizations/process-pending", nil, body)
		},
	}
	processCmd.Flags().StringVar(&asOf, "as-of", "", "Cutoff date (YYYY-MM-DD), defaults to today")

	cmd.AddCommand(processCmd)
	return cmd
}

func statementsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statements",
		Short: "Financial statements",
	}

	var from, to, asOf string
	period := func(name, path string) *cobra.Command {
		c := &cobra.Command{
			Use:   name,
			Short: "Print the " + strings.ReplaceAll(name, "-", " ") + " for a period",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				q, err := dateQuery(map[string]string{"from": from, "to": to})
				if err != nil {
					return err
				}
				return opts.call(cmd, http.MethodGet, path, q, nil)
			},
		}
		c.Flags().StringVar(&from, "from", "", "Period start (YYYY-MM-DD)")
		c.Flags().StringVar(&to, "to", "", "Period end (YYYY-MM-DD)")
		return c
	}

	balanceSheetCmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Print the balance sheet as of a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := dateQuery(map[string]string{"as_of": asOf})
			if err != nil {
				return err
			}
			return opts.call(cmd, http.MethodGet, "/api/v1/statements/balance-sheet", q, nil)
		},
	}
	balanceSheetCmd.Flags().StringVar(&asOf, "as-of", "", "Statement date (YYYY-MM-DD)")

	cmd.AddCommand(
		period("trial-balance", "/api/v1/statements/trial-balance"),
		balanceSheetCmd,
		period("income", "/api/v1/statements/income-statement"),
		period("cash-flow", "/api/v1/statements/cash-flow"),
	)
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	var databaseURL, path string
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&path, "path", "migrations", "Directory holding the migration files")

	migrator := func(cmd *cobra.Command) (*postgres.Migrator, error) {
		if databaseURL == "" {
			return nil, fmt.Errorf("--database-url or DATABASE_URL is required")
		}
		log := logger.NewWithWriter(logger.Config{Level: "info", Format: "console"}, cmd.ErrOrStderr())
		return postgres.NewMigrator(databaseURL, path, log), nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			return m.Up()
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			return m.Down()
		},
	}

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

// call sends one API request and prints the indented JSON response.
func (o *options) call(cmd *cobra.Command, method, path string, query url.Values, body any) error {
	if o.tenant == "" {
		return fmt.Errorf("--tenant or LEDGERCORE_TENANT is required")
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	target := strings.TrimRight(o.baseURL, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-Tenant-ID", o.tenant)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return apiError(resp.StatusCode, data)
	}
	return printJSON(cmd.OutOrStdout(), data)
}

func apiError(status int, data []byte) error {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		if e.Message != "" {
			return fmt.Errorf("%s (status %d): %s", e.Error, status, e.Message)
		}
		return fmt.Errorf("%s (status %d)", e.Error, status)
	}
	return fmt.Errorf("unexpected status %d: %s", status, truncate(strings.TrimSpace(string(data)), 200))
}

func printJSON(w io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		_, err = w.Write(data)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

func printChart(w io.Writer, accounts []domain.ChartTemplateAccount) error {
	depth := make(map[string]int, len(accounts))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tNORMAL")
	for _, a := range accounts {
		if a.Parent != "" {
			depth[a.Code] = depth[a.Parent] + 1
		}
		nb := a.NormalBalance
		if nb == "" {
			nb = a.Type.DefaultNormalBalance()
		}
		fmt.Fprintf(tw, "%s\t%s%s\t%s\t%s\n", a.Code, strings.Repeat("  ", depth[a.Code]), a.Name, a.Type, nb)
	}
	return tw.Flush()
}

func dateQuery(values map[string]string) (url.Values, error) {
	q := url.Values{}
	for key, v := range values {
		if v == "" {
			continue
		}
		if err := checkDate(key, v); err != nil {
			return nil, err
		}
		q.Set(key, v)
	}
	return q, nil
}

func checkDate(name, value string) error {
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", name, value)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
