// Command import_users creates gym members from a CSV file with the columns
// name,phone,gender,email. It uses the session stored by gym-console login.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gym-console/config"
	"gym-console/console"
	"gym-console/gym"
	"gym-console/logging"
	"gym-console/service"
)

// userCreator is the part of the user service the import needs.
type userCreator interface {
	Create(ctx context.Context, in gym.UserInput) (gym.User, error)
}

// row is one parsed CSV line; Err is set when the line could not be read.
type row struct {
	Line  int
	Input gym.UserInput
	Err   error
}

// result counts the outcome of an import.
type result struct {
	Success int
	Errors  int
	Created []gym.User
}

func main() {
	var envFile string
	cmd := &cobra.Command{
		Use:          "import_users <file.csv>",
		Short:        "Create gym members from a CSV file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), envFile, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, envFile, path string, out io.Writer) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	log, closer, err := logging.Open(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	app, err := console.Open(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()
	if !app.Session.Authenticated() {
		return errors.New("not logged in: run gym-console login first")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := readRows(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Importing %d members from %s...\n", len(rows), path)
	res := importRows(ctx, app.Services.Users, rows, out)

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Successfully imported: %d members\n", res.Success)
	fmt.Fprintf(out, "Errors: %d\n", res.Errors)
	if res.Success > 0 {
		fmt.Fprintln(out, "\nImported members:")
		printUsers(out, res.Created)
	}
	return nil
}

// readRows parses the CSV. A first line starting with "name" is a header.
func readRows(r io.Reader) ([]row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []row
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("read csv: %w", err)
			}
			rows = append(rows, row{Line: line, Err: err})
			continue
		}
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		in, err := parseUser(rec)
		rows = append(rows, row{Line: line, Input: in, Err: err})
	}
	return rows, nil
}

func parseUser(rec []string) (gym.UserInput, error) {
	if len(rec) < 2 || len(rec) > 4 {
		return gym.UserInput{}, fmt.Errorf("want 2 to 4 columns, got %d", len(rec))
	}
	get := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	in := gym.UserInput{Name: get(0), Phone: get(1), Email: get(3)}
	g, err := parseGender(get(2))
	if err != nil {
		return gym.UserInput{}, err
	}
	in.Gender = g
	return in, nil
}

func parseGender(s string) (gym.Gender, error) {
	if s == "" {
		return 0, nil
	}
	for _, g := range gym.Genders {
		if strings.EqualFold(s, g.String()) || s == strconv.Itoa(int(g)) {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown gender %q", s)
}

func importRows(ctx context.Context, users userCreator, rows []row, out io.Writer) result {
	var res result
	for _, r := range rows {
		if r.Err != nil {
			fmt.Fprintf(out, "Line %d: ERROR - %v\n", r.Line, r.Err)
			res.Errors++
			continue
		}
		fmt.Fprintf(out, "Importing: %s (%s)... ", r.Input.Name, r.Input.Phone)
		u, err := users.Create(ctx, r.Input)
		if err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			res.Errors++
			if errors.Is(err, context.Canceled) {
				break
			}
			continue
		}
		fmt.Fprintf(out, "SUCCESS (ID: %d)\n", u.ID)
		res.Success++
		res.Created = append(res.Created, u)
	}
	return res
}

func printUsers(out io.Writer, users []gym.User) {
	fmt.Fprintf(out, "%-5s %-10s %-30s %-15s\n", "ID", "Member no", "Name", "Phone")
	fmt.Fprintln(out, strings.Repeat("-", 63))
	for _, u := range users {
		fmt.Fprintf(out, "%-5d %-10s %-30s %-15s\n", u.ID, u.UserNo, truncateString(u.Name, 30), u.Phone)
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

var _ userCreator = (*service.UserService)(nil)
