// Command cm is a CLI client for the card market API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/pflag"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Email       string    `json:"email,omitempty"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "card-market")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "card-market")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tf tokenFile) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tf)
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", errors.New("no saved token (login required)")
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.AccessToken, nil
}

func removeToken() error {
	err := os.Remove(tokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// tokenExpiry reads exp from the token payload without verifying it.
// The server is the one that verifies; this only decides when to stop reusing it.
func tokenExpiry(raw string, fallback time.Duration) time.Time {
	var claims jwt.RegisteredClaims
	_, _, err := jwt.NewParser().ParseUnverified(raw, &claims)
	if err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(fallback)
}

// ---- utils ----

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

const usageText = `cm CLI
Usage:
  cm [--server URL] [--cacert file | --insecure] <cmd> [args]

Commands:
  version
  register   -u <username> -e <email> -p <password>
  login      -e <email> -p <password>                (saves token)
  logout
  profile
  list
  get        --id <card id>
  add        --name <name> --category <cat> --price <n>
  edit       --id <card id> --name <name> --category <cat> --price <n>
  rm         --id <card id>
`

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches subcommands and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	global := pflag.NewFlagSet("cm", pflag.ContinueOnError)
	global.SetOutput(stderr)
	server := global.String("server", envOr("CARD_MARKET_SERVER", "http://localhost:5000"), "API base URL")
	caPath := global.String("cacert", "", "CA cert (PEM)")
	insecure := global.Bool("insecure", false, "skip cert verify (dev)")
	global.SetInterspersed(false)
	global.Usage = func() { fmt.Fprint(stderr, usageText) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() < 1 {
		global.Usage()
		return 2
	}
	cmd, rest := global.Arg(0), global.Args()[1:]

	if cmd == "version" {
		fmt.Fprintf(stdout, "cm %s (%s)\n", version, buildDate)
		return 0
	}
	if cmd == "logout" {
		if err := removeToken(); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintln(stdout, "ok")
		return 0
	}

	hc, err := newHTTPClient(*caPath, *insecure)
	if err != nil {
		return fail(stderr, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// commands that need a saved token
	authed := func() (*apiClient, error) {
		tok, err := loadToken()
		if err != nil {
			return nil, err
		}
		return newAPIClient(*server, hc, tok)
	}

	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	fs.SetOutput(stderr)

	switch cmd {
	case "register":
		u := fs.StringP("username", "u", "", "username")
		e := fs.StringP("email", "e", "", "email")
		p := fs.StringP("password", "p", "", "password")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		if *u == "" || *e == "" || *p == "" {
			fmt.Fprintln(stderr, "need -u, -e and -p")
			return 1
		}
		c, err := newAPIClient(*server, hc, "")
		if err != nil {
			return fail(stderr, err)
		}
		msg, err := c.register(ctx, *u, *e, *p)
		if err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintln(stdout, msg)

	case "login":
		e := fs.StringP("email", "e", "", "email")
		p := fs.StringP("password", "p", "", "password")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		if *e == "" || *p == "" {
			fmt.Fprintln(stderr, "need -e and -p")
			return 1
		}
		c, err := newAPIClient(*server, hc, "")
		if err != nil {
			return fail(stderr, err)
		}
		res, err := c.login(ctx, *e, *p)
		if err != nil {
			return fail(stderr, err)
		}
		tf := tokenFile{AccessToken: res.Token, ExpiresAt: tokenExpiry(res.Token, time.Hour), Email: res.User.Email}
		if err := saveToken(tf); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "ok (%s)\n", res.User.Username)

	case "profile":
		c, err := authed()
		if err != nil {
			return fail(stderr, err)
		}
		p, err := c.profile(ctx)
		if err != nil {
			return fail(stderr, err)
		}
		printJSON(stdout, p)

	case "list":
		c, err := newAPIClient(*server, hc, "")
		if err != nil {
			return fail(stderr, err)
		}
		cs, err := c.listCards(ctx)
		if err != nil {
			return fail(stderr, err)
		}
		printJSON(stdout, cs)

	case "get":
		id := fs.String("id", "", "card id")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		if *id == "" {
			fmt.Fprintln(stderr, "need --id")
			return 1
		}
		c, err := newAPIClient(*server, hc, "")
		if err != nil {
			return fail(stderr, err)
		}
		got, err := c.getCard(ctx, *id)
		if err != nil {
			return fail(stderr, err)
		}
		printJSON(stdout, got)

	case "add", "edit":
		id := fs.String("id", "", "card id (edit only)")
		name := fs.String("name", "", "card name")
		category := fs.String("category", "", "card category")
		price := fs.Float64("price", -1, "card price")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		if *name == "" || *category == "" || *price < 0 {
			fmt.Fprintln(stderr, "need --name, --category and --price")
			return 1
		}
		if cmd == "edit" && *id == "" {
			fmt.Fprintln(stderr, "need --id")
			return 1
		}
		c, err := authed()
		if err != nil {
			return fail(stderr, err)
		}
		body := cardBody{Name: *name, Category: *category, Price: *price}
		var out card
		if cmd == "add" {
			out, err = c.createCard(ctx, body)
		} else {
			out, err = c.updateCard(ctx, *id, body)
		}
		if err != nil {
			return fail(stderr, err)
		}
		printJSON(stdout, out)

	case "rm":
		id := fs.String("id", "", "card id")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		if *id == "" {
			fmt.Fprintln(stderr, "need --id")
			return 1
		}
		c, err := authed()
		if err != nil {
			return fail(stderr, err)
		}
		if err := c.deleteCard(ctx, *id); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintln(stdout, "ok")

	default:
		global.Usage()
		return 2
	}
	return 0
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fail(w io.Writer, err error) int {
	fmt.Fprintln(w, "error:", err)
	return 1
}
