// Command leanbot-chat is a terminal client for LEAN BOT. It talks to a running
// gateway, or answers fully offline from a local FAQ corpus.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/ingelean/leanbot/internal/version"
	leanbot "github.com/ingelean/leanbot/pkg/sdk"
)

const banner = `
    ╦  ╔═╗╔═╗╔╗╔  ╔╗ ╔═╗╔╦╗
    ║  ║╣ ╠═╣║║║  ╠╩╗║ ║ ║
    ╩═╝╚═╝╩ ╩╝╚╝  ╚═╝╚═╝ ╩
`

// exitWord ends the conversation after the bot says goodbye.
const exitWord = "salir"

// bot answers one user message.
type bot interface {
	Reply(ctx context.Context, text string) (reply, error)
	Close(ctx context.Context) error
}

type reply struct {
	Text   string
	Source string
}

type options struct {
	server    string
	docID     string
	apiKey    string
	timeout   time.Duration
	offline   bool
	corpus    string
	synonyms  string
	threshold float64
	version   bool
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("leanbot-chat", flag.ContinueOnError)
	fs.StringVar(&o.server, "server", "http://localhost:8080", "LEAN BOT gateway URL")
	fs.StringVar(&o.docID, "doc-id", "", "document id used to log in (6 to 10 digits)")
	fs.StringVar(&o.apiKey, "api-key", "", "bearer key sent to the gateway")
	fs.DurationVar(&o.timeout, "timeout", 15*time.Second, "request timeout")
	fs.BoolVar(&o.offline, "offline", false, "answer locally without a gateway")
	fs.StringVar(&o.corpus, "corpus", "data/data.json", "FAQ corpus file or URL (offline mode)")
	fs.StringVar(&o.synonyms, "synonyms", "", "synonym dictionary .yaml or .toml (offline mode)")
	fs.Float64Var(&o.threshold, "threshold", 0, "minimum similarity for a FAQ match (offline mode)")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if !o.offline && !o.version && strings.TrimSpace(o.docID) == "" {
		return options{}, errors.New("-doc-id is required unless -offline is set")
	}
	return o, nil
}

func run(args []string, in io.Reader, out io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintln(out, "leanbot-chat", version.String())
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cyan := color.New(color.FgCyan)
	cyan.Fprint(out, banner)

	b, err := connect(ctx, o, out)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), o.timeout)
		defer closeCancel()
		if err := b.Close(closeCtx); err != nil {
			systemLine(out, "logout failed: %v", err)
		}
	}()

	return converse(ctx, b, in, out)
}

func connect(ctx context.Context, o options, out io.Writer) (bot, error) {
	if o.offline {
		opts := []leanbot.Option{leanbot.WithCorpusFile(o.corpus), leanbot.WithThreshold(o.threshold)}
		if o.synonyms != "" {
			opts = append(opts, leanbot.WithSynonyms(o.synonyms))
		}
		r, err := leanbot.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading responder: %w", err)
		}
		systemLine(out, "offline mode, %d FAQ entries loaded", r.Len())
		return &localBot{r: r}, nil
	}

	rb := newRemoteBot(o.server, o.docID, o.apiKey, o.timeout)
	sess, err := rb.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if sess.LocalChat {
		systemLine(out, "backend unavailable, answers come from the local fallback")
	}
	if sess.OfflineMessages > 0 {
		systemLine(out, "%d messages waiting in the offline transcript", sess.OfflineMessages)
	}
	systemLine(out, "logged in as %s (chat %s)", sess.DocID, sess.ChatID)
	return rb, nil
}

func converse(ctx context.Context, b bot, in io.Reader, out io.Writer) error {
	green := color.New(color.FgGreen, color.Bold)
	scanner := bufio.NewScanner(in)

	systemLine(out, "type '%s' to leave", exitWord)
	for {
		green.Fprint(out, "tú> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		r, err := b.Reply(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			systemLine(out, "error: %v", err)
			continue
		}
		botLine(out, r)

		if strings.EqualFold(text, exitWord) {
			return nil
		}
	}
}

func botLine(out io.Writer, r reply) {
	blue := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)
	blue.Fprint(out, "leanbot> ")
	fmt.Fprint(out, r.Text)
	if r.Source != "" {
		gray.Fprintf(out, " [%s]", r.Source)
	}
	fmt.Fprintln(out)
}

func systemLine(out io.Writer, format string, args ...any) {
	yellow := color.New(color.FgYellow)
	yellow.Fprintf(out, "    ▶ "+format+"\n", args...)
}

// localBot answers from the embedded responder.
type localBot struct {
	r *leanbot.Responder
}

func (l *localBot) Reply(_ context.Context, text string) (reply, error) {
	ans, err := l.r.Answer(text)
	if err != nil {
		return reply{}, err
	}
	return reply{Text: ans.Text, Source: string(ans.Source)}, nil
}

func (l *localBot) Close(context.Context) error { return nil }
