package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tonimelisma/filebrowser-go/internal/auth"
	"github.com/tonimelisma/filebrowser-go/internal/config"
)

// credentialFlags are shared by login and signup.
type credentialFlags struct {
	username      string
	passwordStdin bool
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.username, "username", "", "account username (prompted when omitted on a terminal)")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
}

func newLoginCmd() *cobra.Command {
	var (
		creds     credentialFlags
		recaptcha string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, creds, recaptcha)
		},
	}

	creds.bind(cmd)
	cmd.Flags().StringVar(&recaptcha, "recaptcha", "", "reCAPTCHA response, when the server requires one")

	return cmd
}

func newSignupCmd() *cobra.Command {
	var creds credentialFlags

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account, then sign in with it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSignup(cmd, creds)
		},
	}

	creds.bind(cmd)

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session token",
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Validate the stored session and show the signed-in user",
		RunE:  runWhoami,
	}
}

func newRenewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "renew",
		Short: "Exchange the stored session token for a fresh one",
		RunE:  runRenew,
	}
}

func runLogin(cmd *cobra.Command, creds credentialFlags, recaptcha string) error {
	cc := cliContextFrom(cmd.Context())
	ctx := cmd.Context()

	username, password, err := readCredentials(cmd, creds)
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, cc)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Manager.Acquire(ctx, username, password, recaptcha); err != nil {
		return err
	}

	cc.Statusf("Logged in as %s.\n", sess.Session.Identity().Username)

	return nil
}

func runSignup(cmd *cobra.Command, creds credentialFlags) error {
	cc := cliContextFrom(cmd.Context())
	ctx := cmd.Context()

	username, password, err := readCredentials(cmd, creds)
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, cc)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Manager.Register(ctx, username, password); err != nil {
		return err
	}

	cc.Statusf("Account %s created.\n", username)

	if err := sess.Manager.Acquire(ctx, username, password, ""); err != nil {
		return err
	}

	cc.Statusf("Logged in as %s.\n", sess.Session.Identity().Username)

	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cc := cliContextFrom(cmd.Context())
	ctx := cmd.Context()

	sess, err := openSession(ctx, cc)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Manager.Revoke(ctx); err != nil {
		return err
	}

	cc.Statusf("Logged out.\n")

	return nil
}

func runRenew(cmd *cobra.Command, _ []string) error {
	cc := cliContextFrom(cmd.Context())
	ctx := cmd.Context()

	sess, err := openSession(ctx, cc)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Manager.RenewStored(ctx); err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) {
			return errLoginRequired
		}

		return err
	}

	cc.Statusf("Token renewed, expires %s.\n", formatExpiry(sess.Session.Identity().ExpiresAt, time.Now()))

	return nil
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	ID           uint             `json:"id"`
	Username     string           `json:"username"`
	Locale       string           `json:"locale"`
	ViewMode     string           `json:"view_mode"`
	Permissions  auth.Permissions `json:"permissions"`
	Commands     []string         `json:"commands"`
	LockPassword bool             `json:"lock_password"`
	ExpiresAt    *time.Time       `json:"expires_at,omitempty"`
	IssuedAt     *time.Time       `json:"issued_at,omitempty"`
	Keepalive    *keepaliveRecord `json:"keepalive,omitempty"`
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	cc := cliContextFrom(cmd.Context())
	ctx := cmd.Context()

	sess, err := openSession(ctx, cc)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.requireLogin(ctx); err != nil {
		return err
	}

	id := sess.Session.Identity()
	keeper := sessionKeepalive(cc, id)

	if cc.Flags.JSON {
		return printWhoamiJSON(cmd.OutOrStdout(), id, keeper)
	}

	printWhoamiText(cmd.OutOrStdout(), id, keeper, time.Now())

	return nil
}

// sessionKeepalive returns the running keepalive when it keeps this
// server's session for id alive.
func sessionKeepalive(cc *CLIContext, id *auth.Identity) *keepaliveRecord {
	rec, err := runningKeepalive(config.KeepalivePIDPath())
	if err != nil {
		if !errors.Is(err, errNoKeepalive) {
			cc.Logger.Debug("keepalive status unavailable", "error", err)
		}

		return nil
	}

	if rec.Server != cc.Cfg.ServerURL || rec.Username != id.Username {
		return nil
	}

	return &rec
}

func printWhoamiJSON(w io.Writer, id *auth.Identity, keeper *keepaliveRecord) error {
	out := whoamiOutput{
		ID:           id.ID,
		Username:     id.Username,
		Locale:       id.Locale,
		ViewMode:     id.ViewMode,
		Permissions:  id.Perm,
		Commands:     id.Commands,
		LockPassword: id.LockPassword,
		Keepalive:    keeper,
	}

	if !id.ExpiresAt.IsZero() {
		out.ExpiresAt = &id.ExpiresAt
	}

	if !id.IssuedAt.IsZero() {
		out.IssuedAt = &id.IssuedAt
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func printWhoamiText(w io.Writer, id *auth.Identity, keeper *keepaliveRecord, now time.Time) {
	fmt.Fprintf(w, "User:        %s (id %d)\n", id.Username, id.ID)
	fmt.Fprintf(w, "Locale:      %s\n", id.Locale)
	fmt.Fprintf(w, "Permissions: %s\n", describePermissions(id.Perm))
	fmt.Fprintf(w, "Expires:     %s\n", formatExpiry(id.ExpiresAt, now))

	if keeper == nil {
		fmt.Fprintln(w, "Keepalive:   not running")
		return
	}

	fmt.Fprintf(w, "Keepalive:   running (PID %d, since %s)\n", keeper.PID, keeper.Started.Local().Format("2006-01-02 15:04"))
}

// describePermissions lists granted permissions, e.g. "admin, create".
func describePermissions(p auth.Permissions) string {
	granted := make([]string, 0, 8)

	for _, perm := range []struct {
		name string
		ok   bool
	}{
		{"admin", p.Admin},
		{"execute", p.Execute},
		{"create", p.Create},
		{"rename", p.Rename},
		{"modify", p.Modify},
		{"delete", p.Delete},
		{"share", p.Share},
		{"download", p.Download},
	} {
		if perm.ok {
			granted = append(granted, perm.name)
		}
	}

	if len(granted) == 0 {
		return "none"
	}

	return strings.Join(granted, ", ")
}

// readCredentials collects the username and password from flags, stdin or
// an interactive prompt.
func readCredentials(cmd *cobra.Command, creds credentialFlags) (username, password string, err error) {
	in := bufio.NewReader(cmd.InOrStdin())
	interactive := stdinIsTerminal()

	username = creds.username
	if username == "" {
		if !interactive {
			return "", "", errors.New("--username is required when stdin is not a terminal")
		}

		fmt.Fprint(os.Stderr, "Username: ")

		if username, err = readLine(in); err != nil {
			return "", "", err
		}
	}

	switch {
	case creds.passwordStdin:
		password, err = readLine(in)
	case interactive:
		password, err = promptPassword()
	default:
		err = errors.New("no terminal for a password prompt: use --password-stdin")
	}

	if err != nil {
		return "", "", err
	}

	if username == "" || password == "" {
		return "", "", errors.New("username and password must not be empty")
	}

	return username, password, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading input: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// stdinIsTerminal reports whether prompts can be shown. Tests replace it.
var stdinIsTerminal = func() bool {
	fd := os.Stdin.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")

	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	return string(b), nil
}
