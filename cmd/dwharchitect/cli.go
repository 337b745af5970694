package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/clouddwh/architect/internal/client"
	"github.com/clouddwh/architect/internal/i18n"
	"github.com/clouddwh/architect/internal/task"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// errReported marks a failure already printed to the user.
var errReported = errors.New("command failed")

type spinner struct {
	w io.Writer
}

func (s spinner) Show() { fmt.Fprint(s.w, "working...") }
func (s spinner) Hide() { fmt.Fprint(s.w, "\r          \r") }

type stderrReporter struct {
	w io.Writer
}

func (r stderrReporter) ReportError(title, message, detail string) {
	fmt.Fprintf(r.w, "%s: %s\n", title, message)
	if detail != "" {
		fmt.Fprintf(r.w, "  %s\n", detail)
	}
}

func runner(cmd *cobra.Command) task.Runner {
	level := slog.LevelError + 1
	if verbose {
		level = slog.LevelDebug
	}
	stderr := cmd.ErrOrStderr()
	r := task.Runner{
		Reporter:  stderrReporter{w: stderr},
		Localizer: i18n.New(language),
		Logger:    slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	}
	if f, ok := stderr.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.Indicator = spinner{w: stderr}
	}
	return r
}

// call runs fn as a task. API errors are printed as the server phrased
// them; a rejected session token also forgets the stored session.
func call[R any](cmd *cobra.Command, fn func(ctx context.Context) (R, error)) (R, error) {
	stderr := cmd.ErrOrStderr()
	res, ok := task.Run(cmd.Context(), runner(cmd), fn, func(err error) bool {
		if errors.Is(err, client.ErrNoSession) {
			fmt.Fprintln(stderr, err)
			return true
		}
		var apiErr *client.APIError
		if !errors.As(err, &apiErr) {
			return false
		}
		fmt.Fprintln(stderr, apiErr.Error())
		if client.IsUnauthorized(err) && usingSession {
			_ = client.RemoveSession(sessionPath)
			fmt.Fprintln(stderr, "your session has ended; run \"dwharchitect login\" to sign in again")
		}
		return true
	})
	if !ok {
		return res, errReported
	}
	return res, nil
}

func anonClient() *client.Client {
	return client.New(serverURL, client.WithLanguage(language))
}

// usingSession is set once a command authenticates with the stored session.
var usingSession bool

func sessionClient(cmd *cobra.Command) (*client.Client, *client.Session, error) {
	s, err := client.LoadSession(sessionPath)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return nil, nil, errReported
	}
	server := serverURL
	if !cmd.Flags().Changed("server") && s.Server != "" {
		server = s.Server
	}
	lang := language
	if lang == "" {
		lang = s.Language
	}
	usingSession = true
	return client.New(server, client.WithToken(s.Token), client.WithLanguage(lang)), s, nil
}

func adminClient(cmd *cobra.Command) (*client.Client, error) {
	key := adminKey
	if key == "" {
		key = os.Getenv("DWH_ADMIN_KEY")
	}
	if key == "" {
		return nil, errors.New("admin key required (--admin-key or DWH_ADMIN_KEY)")
	}
	return client.New(serverURL, client.WithToken(key), client.WithLanguage(language)), nil
}

var lineReader *bufio.Reader

// readPassword prompts on the terminal without echo, or reads one line from
// stdin when it is not a terminal.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	if lineReader == nil {
		lineReader = bufio.NewReader(in)
	}
	line, err := lineReader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
