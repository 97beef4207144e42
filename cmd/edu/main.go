package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jmerrifield20/edutoken/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL  string
	cfgFile    string
	outputJSON bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "edu",
	Short: "EduCoin ledger CLI",
	Long: `edu is the command-line interface for a tokend ledger server.

Log in once with "edu login <user-id>"; the session token is kept in
~/.edu/session until "edu logout".`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath(eduDir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("edu")
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.edu/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "tokend URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print raw JSON instead of text")

	rootCmd.AddCommand(loginCmd, logoutCmd, meCmd, balanceCmd, transferCmd, mintCmd,
		infoCmd, holdersCmd, historyCmd, journalCmd, versionCmd)
}

// ── session token storage ────────────────────────────────────────────────────

func eduDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".edu")
}

func sessionPath() string { return filepath.Join(eduDir(), "session") }

// loadToken prefers EDU_TOKEN over the saved session file.
func loadToken() string {
	if tok := viper.GetString("token"); tok != "" {
		return tok
	}
	b, err := os.ReadFile(sessionPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func saveToken(tok string) error {
	if err := os.MkdirAll(eduDir(), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", eduDir(), err)
	}
	return os.WriteFile(sessionPath(), []byte(tok+"\n"), 0o600)
}

func newClient() (*client.Client, error) {
	var opts []client.Option
	if tok := loadToken(); tok != "" {
		opts = append(opts, client.WithBearerToken(tok))
	}
	return client.New(serverURL, opts...)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// ── login / logout / me ──────────────────────────────────────────────────────

var loginCmd = &cobra.Command{
	Use:   "login <user-id>",
	Short: "Open a session as the given identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.New(serverURL)
		if err != nil {
			return err
		}
		res, err := c.Login(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := saveToken(res.Token); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if outputJSON {
			return printJSON(res)
		}
		fmt.Println(res.Status.Message)
		printDashboard(&res.Dashboard)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		st, err := c.Logout(cmd.Context())
		if err != nil && !errors.Is(err, client.ErrNotLoggedIn) {
			return err
		}
		if rmErr := os.Remove(sessionPath()); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("remove session: %w", rmErr)
		}
		if st != nil {
			fmt.Println(st.Message)
		}
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:     "me",
	Aliases: []string{"whoami"},
	Short:   "Show the dashboard of the logged-in identity",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		d, err := c.Me(cmd.Context())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(d)
		}
		printDashboard(d)
		return nil
	},
}

func printDashboard(d *client.Dashboard) {
	fmt.Printf("User:     %s\n", d.User)
	fmt.Printf("Balance:  %d %s\n", d.Balance, d.Info.Symbol)
	if d.CanMint {
		fmt.Println("Role:     creator (can mint)")
	}
	fmt.Printf("Supply:   %d %s across %d holders\n", d.Info.TotalSupply, d.Info.Symbol, d.Info.TotalHolders)
}

// ── balance / transfer / mint ────────────────────────────────────────────────

var balanceCmd = &cobra.Command{
	Use:   "balance <user-id>",
	Short: "Look up the balance of any identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := c.Balance(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(res)
		}
		fmt.Println(res.Status.Message)
		return nil
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <to> <amount>",
	Short: "Send tokens from the logged-in identity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd.Context(), args, (*client.Client).Transfer)
	},
}

var mintCmd = &cobra.Command{
	Use:   "mint <to> <amount>",
	Short: "Create new tokens (creator only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd.Context(), args, (*client.Client).Mint)
	},
}

type actionFunc func(c *client.Client, ctx context.Context, to string, amount int64) (*client.Outcome, error)

func runAction(ctx context.Context, args []string, fn actionFunc) error {
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}
	c, err := newClient()
	if err != nil {
		return err
	}
	out, err := fn(c, ctx, args[0], amount)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(out)
	}
	if !out.Result.Success {
		return errors.New(out.Status.Message)
	}
	fmt.Println(out.Status.Message)
	fmt.Println(out.Result.Message)
	if out.Dashboard != nil {
		fmt.Printf("Your balance: %d %s\n", out.Dashboard.Balance, out.Dashboard.Info.Symbol)
	}
	return nil
}

// ── info / holders / history ─────────────────────────────────────────────────

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the token summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		info, err := c.Info(cmd.Context())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(info)
		}
		fmt.Printf("Name:     %s\n", info.Name)
		fmt.Printf("Symbol:   %s\n", info.Symbol)
		fmt.Printf("Supply:   %d\n", info.TotalSupply)
		fmt.Printf("Creator:  %s\n", info.CreatorID)
		fmt.Printf("Holders:  %d\n", info.TotalHolders)
		return nil
	},
}

var holdersCmd = &cobra.Command{
	Use:   "holders",
	Short: "List every holder, largest balance first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rows, err := c.Holders(cmd.Context())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(rows)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "USER\tBALANCE\tSHARE")
		for _, h := range rows {
			fmt.Fprintf(w, "%s\t%d\t%.2f%%\n", h.UserID, h.Balance, h.Share)
		}
		return w.Flush()
	},
}

var (
	historyLimit int
	historyAll   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent transactions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		var txs []client.Transaction
		if historyAll {
			txs, err = c.History(cmd.Context())
		} else {
			txs, err = c.Recent(cmd.Context(), historyLimit)
		}
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(txs)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SEQ\tTYPE\tFROM\tTO\tAMOUNT\tTIME")
		for _, tx := range txs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
				tx.Seq, tx.Type, tx.From, tx.To, tx.Amount, tx.Timestamp.Local().Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of transactions to show")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "Show the full history, oldest first")
}

// ── journal / version ────────────────────────────────────────────────────────

var journalVerify bool

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show the transaction journal root, optionally verifying the chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ov, err := c.Journal(cmd.Context())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(ov)
		}
		fmt.Printf("Entries:  %d\n", ov.Entries)
		fmt.Printf("Root:     %s\n", ov.Root)
		if journalVerify {
			if err := c.VerifyJournal(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Chain:    valid")
		}
		return nil
	},
}

func init() {
	journalCmd.Flags().BoolVar(&journalVerify, "verify", false, "Walk the full chain on the server")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the edu version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("edu", version)
	},
}
