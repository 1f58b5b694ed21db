package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"gym-console/api"
	"gym-console/controller"
	"gym-console/gym"
)

const (
	routeDashboard = "dashboard"
	routeLogin     = "login"

	// cancelInput typed at any form prompt abandons the form.
	cancelInput = ":q"
)

// PasswordReader reads a secret without echoing it.
type PasswordReader func(prompt string) (string, error)

// TerminalPasswords reads from the controlling terminal with masking.
func TerminalPasswords(out io.Writer) PasswordReader {
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
}

// Shell is the interactive console: a route table, a prompt loop and the
// notifier, confirmer and navigator the screens talk to.
type Shell struct {
	app       *App
	in        *bufio.Scanner
	out       io.Writer
	passwords PasswordReader
	log       zerolog.Logger

	ctx     context.Context
	coaches *controller.ReferenceList[gym.Coach]
	pages   map[string]page
	order   []string
	route   string
	history []string
	pending string
}

// ShellOption customizes a Shell.
type ShellOption func(*Shell)

// WithPasswordReader replaces the terminal password prompt.
func WithPasswordReader(r PasswordReader) ShellOption {
	return func(sh *Shell) { sh.passwords = r }
}

// NewShell builds the console over app reading commands from in.
func NewShell(app *App, in io.Reader, out io.Writer, opts ...ShellOption) *Shell {
	sh := &Shell{
		app:   app,
		in:    bufio.NewScanner(in),
		out:   out,
		log:   app.Log,
		ctx:   context.Background(),
		pages: map[string]page{},
	}
	sh.passwords = sh.readLine
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		sh.passwords = TerminalPasswords(out)
	}
	for _, opt := range opts {
		opt(sh)
	}

	users := newUserReferences(sh)
	coaches := newCoachReferences(sh)
	sh.coaches = coaches
	for _, p := range []page{
		newUsersPage(sh),
		newCardsPage(sh, users),
		newCoachesPage(sh),
		newCoursesPage(sh, coaches),
	} {
		sh.pages[p.Route()] = p
		sh.order = append(sh.order, p.Route())
	}
	return sh
}

// Route returns the current route.
func (sh *Shell) Route() string { return sh.route }

// Run prints the banner and serves commands until exit or end of input.
func (sh *Shell) Run(ctx context.Context) error {
	sh.ctx = ctx
	fmt.Fprintln(sh.out, "Gym management console")
	sh.resume(ctx)
	sh.printHelp()
	if sh.app.Session.Authenticated() {
		sh.Navigate(routeDashboard)
	} else {
		sh.Navigate(routeLogin)
	}

	for {
		fmt.Fprintf(sh.out, "\n%s> ", sh.route)
		if !sh.in.Scan() {
			break
		}
		if quit := sh.Exec(ctx, sh.in.Text()); quit {
			fmt.Fprintln(sh.out, "Goodbye!")
			return nil
		}
	}
	return sh.in.Err()
}

// resume drops an expired token and re-fetches the profile of a live one.
func (sh *Shell) resume(ctx context.Context) {
	s := sh.app.Session
	if !s.Authenticated() {
		return
	}
	if c, ok := s.Claims(); ok && c.Expired(time.Now()) {
		if err := sh.app.Auth.Logout(); err != nil {
			sh.log.Error().Err(err).Msg("clear expired session")
		}
		fmt.Fprintln(sh.out, "Your session has expired.")
		return
	}
	if _, err := sh.app.Auth.Restore(ctx); err != nil {
		sh.log.Warn().Err(err).Msg("profile not restored")
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (sh *Shell) Exec(ctx context.Context, line string) bool {
	sh.ctx = ctx
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	cmd, rest := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "exit", "quit":
		return true
	case "help", "?":
		sh.printHelp()
	case "menu":
		sh.printMenu()
	case "go":
		if len(rest) != 1 {
			fmt.Fprintln(sh.out, "Usage: go <route>")
			return false
		}
		sh.Navigate(rest[0])
	case "back":
		sh.back()
	case "login":
		sh.login(ctx)
	case "logout":
		sh.logout()
	case "whoami":
		sh.whoami(ctx)
	case "register":
		sh.register(ctx)
	case "dashboard":
		sh.Navigate(routeDashboard)
	case "list", "page", "next", "prev", "new", "edit", "delete", "view":
		sh.pageCommand(ctx, cmd, rest)
	default:
		if _, ok := sh.pages[cmd]; ok {
			sh.Navigate(cmd)
			return false
		}
		fmt.Fprintln(sh.out, "Unknown command. Type help for the list of commands.")
	}
	return false
}

func (sh *Shell) printHelp() {
	fmt.Fprintln(sh.out, "Available commands:")
	fmt.Fprintln(sh.out, "  Navigation: menu, go <route>, back, dashboard")
	fmt.Fprintln(sh.out, "  Lists: list, page <n> [size], next, prev")
	fmt.Fprintln(sh.out, "  Records: new, edit <id>, delete <id>, view <id>")
	fmt.Fprintln(sh.out, "  Account: login, logout, whoami, register")
	fmt.Fprintln(sh.out, "  System: help, exit")
}

func (sh *Shell) printMenu() {
	fmt.Fprintf(sh.out, "  %-10s %s\n", routeDashboard, "Overview")
	for _, r := range sh.order {
		fmt.Fprintf(sh.out, "  %-10s %s\n", r, sh.pages[r].Title())
	}
	fmt.Fprintf(sh.out, "  %-10s %s\n", routeBooking, "Course calendar")
}

// ---------------------------------------------------------------------------
// Navigation
// ---------------------------------------------------------------------------

// Navigate moves to route, redirecting to login when the session is not
// authenticated. Routes are "dashboard", "login", "courses/booking", "<list>"
// and "<list>/<id>".
func (sh *Shell) Navigate(route string) {
	route = strings.Trim(strings.ToLower(route), "/")
	base, id, err := splitRoute(route)
	if err != nil {
		fmt.Fprintf(sh.out, "Unknown route %q.\n", route)
		return
	}
	if base != routeDashboard && base != routeLogin && base != routeBooking {
		if _, ok := sh.pages[base]; !ok {
			fmt.Fprintf(sh.out, "Unknown route %q. Type menu for the list.\n", route)
			return
		}
	}
	if base != routeLogin && !sh.app.Session.Authenticated() {
		sh.pending = route
		route, base = routeLogin, routeLogin
	}
	if sh.route != "" && sh.route != route && sh.route != routeLogin {
		sh.history = append(sh.history, sh.route)
	}
	sh.route = route
	sh.enter(base, id)
}

func splitRoute(route string) (string, int64, error) {
	if route == routeBooking {
		return routeBooking, 0, nil
	}
	base, rest, found := strings.Cut(route, "/")
	if !found {
		return base, 0, nil
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id < 1 || base == routeDashboard || base == routeLogin {
		return "", 0, fmt.Errorf("bad route %q", route)
	}
	return base, id, nil
}

func (sh *Shell) enter(base string, id int64) {
	switch base {
	case routeLogin:
		if sh.app.Session.Authenticated() {
			fmt.Fprintln(sh.out, "Already logged in.")
			return
		}
		fmt.Fprintln(sh.out, "Please log in: type login.")
	case routeDashboard:
		sh.dashboard(sh.ctx)
	case routeBooking:
		sh.booking(sh.ctx)
	default:
		p := sh.pages[base]
		if id != 0 {
			p.ShowDetail(sh.ctx, sh.out, id)
			return
		}
		p.Mount(sh.ctx)
		p.Render(sh.out)
	}
}

func (sh *Shell) back() {
	if len(sh.history) == 0 {
		fmt.Fprintln(sh.out, "Nothing to go back to.")
		return
	}
	prev := sh.history[len(sh.history)-1]
	sh.history = sh.history[:len(sh.history)-1]
	sh.route = ""
	sh.Navigate(prev)
}

// current returns the list page of the current route, redirecting to
// login first when the session was lost.
func (sh *Shell) current() (page, int64, bool) {
	if !sh.app.Session.Authenticated() {
		sh.Navigate(sh.route)
		return nil, 0, false
	}
	base, id, _ := splitRoute(sh.route)
	p, ok := sh.pages[base]
	if !ok {
		fmt.Fprintln(sh.out, "Open a list first, e.g. go users.")
		return nil, 0, false
	}
	return p, id, true
}

func (sh *Shell) pageCommand(ctx context.Context, cmd string, args []string) {
	p, detailID, ok := sh.current()
	if !ok {
		return
	}
	needID := func() (int64, bool) {
		if len(args) == 1 {
			if id, err := strconv.ParseInt(args[0], 10, 64); err == nil && id > 0 {
				return id, true
			}
		}
		if len(args) == 0 && detailID != 0 {
			return detailID, true
		}
		fmt.Fprintf(sh.out, "Usage: %s <id>\n", cmd)
		return 0, false
	}

	switch cmd {
	case "list":
		if detailID != 0 {
			sh.Navigate(p.Route())
			return
		}
		p.Mount(ctx)
		p.Render(sh.out)
	case "page":
		n, size, err := pageArgs(args)
		if err != nil {
			fmt.Fprintf(sh.out, "Usage: page <n> [size]: %v\n", err)
			return
		}
		if size == 0 {
			size = sh.app.PageSize
		}
		p.SetPage(ctx, n, size)
		p.Render(sh.out)
	case "next":
		if !p.Next(ctx) {
			fmt.Fprintln(sh.out, "Already on the last page.")
			return
		}
		p.Render(sh.out)
	case "prev":
		if !p.Prev(ctx) {
			fmt.Fprintln(sh.out, "Already on the first page.")
			return
		}
		p.Render(sh.out)
	case "new":
		p.Create(ctx, sh)
	case "edit":
		if id, ok := needID(); ok {
			p.Edit(ctx, sh, id)
		}
	case "delete":
		if id, ok := needID(); ok {
			p.Delete(ctx, id)
			if detailID == 0 {
				p.Render(sh.out)
			}
		}
	case "view":
		if id, ok := needID(); ok {
			p.View(id)
		}
	}
}

func pageArgs(args []string) (int, int, error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, 0, errors.New("wrong number of arguments")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("page %q is not a number", args[0])
	}
	size := 0
	if len(args) == 2 {
		if size, err = strconv.Atoi(args[1]); err != nil {
			return 0, 0, fmt.Errorf("size %q is not a number", args[1])
		}
	}
	return n, size, nil
}

// ---------------------------------------------------------------------------
// Account
// ---------------------------------------------------------------------------

func (sh *Shell) login(ctx context.Context) {
	phone, ok := sh.prompt("Phone: ")
	if !ok {
		return
	}
	password, err := sh.passwords("Password: ")
	if err != nil {
		fmt.Fprintf(sh.out, "Error reading password: %v\n", err)
		return
	}
	u, err := sh.app.Auth.Login(ctx, phone, password)
	if err != nil {
		sh.Failure("Login failed", err)
		return
	}
	fmt.Fprintf(sh.out, "Welcome, %s.\n", u.Name)

	target := sh.pending
	sh.pending = ""
	if target == "" || target == routeLogin {
		target = routeDashboard
	}
	sh.Navigate(target)
}

func (sh *Shell) logout() {
	if err := sh.app.Auth.Logout(); err != nil {
		sh.Failure("Logout failed", err)
		return
	}
	sh.history = nil
	sh.route = routeLogin
	fmt.Fprintln(sh.out, "Logged out.")
}

func (sh *Shell) whoami(ctx context.Context) {
	s := sh.app.Session
	if !s.Authenticated() {
		fmt.Fprintln(sh.out, "Not logged in.")
		return
	}
	u, err := sh.app.Auth.Restore(ctx)
	if err != nil {
		sh.Failure("Could not load profile", err)
		return
	}
	fmt.Fprintf(sh.out, "%s (%s), member #%d\n", u.Name, u.Phone, u.ID)
	if c, ok := s.Claims(); ok {
		if c.Role != "" {
			fmt.Fprintf(sh.out, "Role: %s\n", c.Role)
		}
		if !c.ExpiresAt.IsZero() {
			fmt.Fprintf(sh.out, "Session expires: %s\n", gym.FormatMinute(c.ExpiresAt.Local()))
		}
	}
}

func (sh *Shell) register(ctx context.Context) {
	var in gym.RegisterInput
	var ok bool
	if in.Name, ok = sh.prompt("Name: "); !ok {
		return
	}
	if in.Phone, ok = sh.prompt("Phone: "); !ok {
		return
	}
	pw, err := sh.passwords("Password: ")
	if err != nil {
		fmt.Fprintf(sh.out, "Error reading password: %v\n", err)
		return
	}
	again, err := sh.passwords("Repeat password: ")
	if err != nil {
		fmt.Fprintf(sh.out, "Error reading password: %v\n", err)
		return
	}
	if pw != again {
		fmt.Fprintln(sh.out, "Error: passwords do not match")
		return
	}
	in.Password = pw
	u, err := sh.app.Auth.Register(ctx, in)
	if err != nil {
		sh.Failure("Registration failed", err)
		return
	}
	fmt.Fprintf(sh.out, "Registered %s as member #%d. Type login to sign in.\n", u.Name, u.ID)
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

func (sh *Shell) dashboard(ctx context.Context) {
	svc := sh.app.Services
	rows := []struct {
		title string
		count func(context.Context) (int, error)
	}{
		{"Members", func(ctx context.Context) (int, error) { return count(ctx, svc.Users.List) }},
		{"Cards", func(ctx context.Context) (int, error) { return count(ctx, svc.Cards.List) }},
		{"Coaches", func(ctx context.Context) (int, error) { return count(ctx, svc.Coaches.List) }},
		{"Courses", func(ctx context.Context) (int, error) { return count(ctx, svc.Courses.List) }},
	}
	fmt.Fprintln(sh.out, "\nDashboard")
	if u, ok := sh.app.Session.User(); ok {
		fmt.Fprintf(sh.out, "Logged in as %s\n", u.Name)
	}
	for _, r := range rows {
		n, err := r.count(ctx)
		if err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				sh.Failure("Session rejected", err)
				sh.Navigate(routeDashboard)
				return
			}
			sh.log.Warn().Err(err).Str("count", r.title).Msg("dashboard count failed")
			fmt.Fprintf(sh.out, "%-10s %s\n", r.title, "?")
			continue
		}
		fmt.Fprintf(sh.out, "%-10s %d\n", r.title, n)
	}
}

// ---------------------------------------------------------------------------
// Prompts, notifications and confirmation
// ---------------------------------------------------------------------------

func (sh *Shell) prompt(label string) (string, bool) {
	fmt.Fprint(sh.out, label)
	if !sh.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(sh.in.Text()), true
}

func (sh *Shell) readLine(prompt string) (string, error) {
	s, ok := sh.prompt(prompt)
	if !ok {
		return "", io.EOF
	}
	return s, nil
}

// fill prompts for every field, keeping the current value on Enter. It
// returns false when the operator cancels or input ends.
func (sh *Shell) fill(fields []field) bool {
	for _, f := range fields {
		for {
			label := f.label
			if f.hint != "" {
				label += " (" + f.hint + ")"
			}
			if cur := f.get(); cur != "" {
				label += " [" + cur + "]"
			}
			s, ok := sh.prompt(label + ": ")
			if !ok || s == cancelInput {
				return false
			}
			if s == "" {
				break
			}
			if err := f.set(s); err != nil {
				fmt.Fprintf(sh.out, "Error: %v\n", err)
				continue
			}
			break
		}
	}
	return true
}

// Confirm implements controller.Confirmer.
func (sh *Shell) Confirm(question string) bool {
	s, ok := sh.prompt(question + " [y/N]: ")
	if !ok {
		return false
	}
	s = strings.ToLower(s)
	return s == "y" || s == "yes"
}

// Success implements controller.Notifier.
func (sh *Shell) Success(msg string) { fmt.Fprintln(sh.out, msg+".") }

// Failure implements controller.Notifier.
func (sh *Shell) Failure(msg string, err error) {
	sh.log.Debug().Err(err).Msg(msg)
	var ve *api.ValidationError
	switch {
	case errors.As(err, &ve):
		fmt.Fprintf(sh.out, "Error: %s: %v\n", msg, ve)
	case errors.Is(err, api.ErrUnauthorized):
		fmt.Fprintf(sh.out, "Error: %s: %v. Type login to sign in.\n", msg, err)
	case api.IsNotFound(err):
		fmt.Fprintf(sh.out, "Error: %s: record not found\n", msg)
	default:
		fmt.Fprintf(sh.out, "Error: %s: %v\n", msg, err)
	}
}

// ShowList renders one page of a list route without entering the prompt
// loop.
func (sh *Shell) ShowList(ctx context.Context, route string, page, size int) error {
	sh.ctx = ctx
	p, ok := sh.pages[route]
	if !ok {
		return fmt.Errorf("unknown list %q, want one of %s", route, strings.Join(sh.order, ", "))
	}
	if !sh.app.Session.Authenticated() {
		return api.ErrUnauthorized
	}
	if size < 1 {
		size = sh.app.PageSize
	}
	if !p.MountAt(ctx, page, size) {
		return fmt.Errorf("could not load %s", route)
	}
	p.Render(sh.out)
	return nil
}
