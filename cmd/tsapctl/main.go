package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/kelseyhightower/envconfig"

	"github.com/tribler/tsap/service/internal/rpc"
	"github.com/tribler/tsap/service/internal/shared/types"
)

// ctlConfig holds client defaults taken from the environment
type ctlConfig struct {
	URL     string        `envconfig:"TSAPCTL_URL" default:"http://127.0.0.1:8000/tribler"`
	Timeout time.Duration `envconfig:"TSAPCTL_TIMEOUT" default:"10s"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "tsapctl: %v\n", err)
		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var cfg ctlConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	flags := flag.NewFlagSet("tsapctl", flag.ContinueOnError)
	url := flags.String("url", cfg.URL, "RPC endpoint")
	timeout := flags.Duration("timeout", cfg.Timeout, "request timeout")
	raw := flags.Bool("raw", false, "pass every argument as a string (prefix a single argument with s: instead)")
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "usage: tsapctl [flags] method [args...]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return errors.New("method is required")
	}

	method := flags.Arg(0)
	params := parseArgs(flags.Args()[1:], *raw)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var result json.RawMessage
	if err := rpc.NewClient(*url, *timeout).Call(ctx, method, &result, params...); err != nil {
		return err
	}
	return printResult(out, result)
}

// stringPrefix forces a single argument to be sent as a string
const stringPrefix = "s:"

// parseArgs turns command-line words into positional params: true/false
// become booleans, integers and floats become numbers, null becomes nil and
// everything else stays a string. Words starting with "s:" and words that
// look like an infohash are always strings.
func parseArgs(words []string, raw bool) []any {
	params := make([]any, 0, len(words))
	for _, w := range words {
		if raw {
			params = append(params, w)
			continue
		}
		if rest, ok := strings.CutPrefix(w, stringPrefix); ok {
			params = append(params, rest)
			continue
		}
		if types.IsInfoHash(types.NormalizeInfoHash(w)) {
			params = append(params, w)
			continue
		}
		if b, err := strconv.ParseBool(w); err == nil && (w == "true" || w == "false") {
			params = append(params, b)
			continue
		}
		if n, err := strconv.ParseInt(w, 10, 64); err == nil {
			params = append(params, n)
			continue
		}
		if f, err := strconv.ParseFloat(w, 64); err == nil {
			params = append(params, f)
			continue
		}
		if w == "null" {
			params = append(params, nil)
			continue
		}
		params = append(params, w)
	}
	return params
}

func printResult(out io.Writer, result json.RawMessage) error {
	if len(result) == 0 {
		result = json.RawMessage("null")
	}

	var v any
	if err := sonic.Unmarshal(result, &v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	pretty, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("format result: %w", err)
	}
	_, err = fmt.Fprintln(out, string(pretty))
	return err
}
