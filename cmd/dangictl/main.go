// Command dangictl is an operator tool: it settles offline ledger snapshots
// and creates accounts directly in the database.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/vilanovax/dangi-sub000/internal/auth"
	"github.com/vilanovax/dangi-sub000/internal/calculator"
	"github.com/vilanovax/dangi-sub000/internal/money"
	"github.com/vilanovax/dangi-sub000/internal/service"
	"github.com/vilanovax/dangi-sub000/internal/storage/sqlite"
	"github.com/vilanovax/dangi-sub000/pkg/api"
)

const usage = `Usage:
  dangictl settle [-json] <snapshot.json>
  dangictl adduser -email <email> -name <name> [-password <password>] [-db <db_path>]`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return fmt.Errorf("missing command")
	}
	switch args[0] {
	case "settle":
		return runSettle(args[1:], stdin, stdout, stderr)
	case "adduser":
		return runAddUser(args[1:], stdin, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		fmt.Fprintln(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runSettle(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("settle", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "Print the summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, usage)
		return fmt.Errorf("expected one snapshot file, use - for stdin")
	}

	var in io.Reader = stdin
	if name := fs.Arg(0); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var ledger api.LedgerSnapshot
	if err := json.NewDecoder(in).Decode(&ledger); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	snap, err := fromLedger(&ledger)
	if err != nil {
		return err
	}
	period := calculator.PeriodOf(time.Now())
	if ledger.Period != "" {
		if period, err = calculator.ParsePeriod(ledger.Period); err != nil {
			return err
		}
	}

	summary, err := service.ComputeSummary(snap, period)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return printSummary(stdout, summary, names(&ledger))
}

func names(ledger *api.LedgerSnapshot) map[string]string {
	out := make(map[string]string, len(ledger.Participants))
	for _, p := range ledger.Participants {
		out[p.ID] = p.Name
		if p.Name == "" {
			out[p.ID] = p.ID
		}
	}
	return out
}

func printSummary(w io.Writer, s *api.Summary, names map[string]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "PARTICIPANT\tPAID\tSHARE\tSENT\tRECEIVED\tBALANCE\t")
	for _, b := range s.Balances {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			names[b.ParticipantID],
			money.Format(b.TotalPaid, s.Currency),
			money.Format(b.TotalShare, s.Currency),
			money.Format(b.SettlementsSent, s.Currency),
			money.Format(b.SettlementsReceived, s.Currency),
			money.Format(b.Balance, s.Currency),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if len(s.Settlements) == 0 {
		fmt.Fprintln(w, "Everyone is settled up.")
	} else {
		fmt.Fprintln(w, "Suggested transfers:")
		for _, t := range s.Settlements {
			fmt.Fprintf(w, "  %s -> %s: %s\n", names[t.FromID], names[t.ToID], money.Format(t.Amount, s.Currency))
		}
	}

	if len(s.ChargeDebts) > 0 {
		fmt.Fprintf(w, "\nCharge debts through %s:\n", s.Period)
		for _, d := range s.ChargeDebts {
			fmt.Fprintf(w, "  %s: %s (%d/%d months paid)\n",
				names[d.ParticipantID], money.Format(d.ChargeDebt, s.Currency), d.PaidMonths, d.TotalMonths)
		}
		fmt.Fprintf(w, "  Total: %s\n", money.Format(s.TotalChargeDebt, s.Currency))
	}
	return nil
}

func runAddUser(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "Display name")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", "./data/dangi.db", "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *name == "" {
		fmt.Fprintln(stdout, usage)
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email, name")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	user, err := auth.NewPasswordAuthenticator(store).Register(context.Background(), *email, *name, password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created with ID %s\n", user.Email, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
