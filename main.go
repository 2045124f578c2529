package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/smallyunet/solana-tx-parser/config"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
)

/*
Example Transactions:
- Orca: 2kAW5GAhPZjM3NoSrhJVHdEpwjmq9neWtckWnjopCfsmCGB27e3v2ZyMM79FdsL4VWGEtYSFi1sF1Zhs7bqdoaVT
- Pumpfun: 4Cod1cNGv6RboJ7rSB79yeVCR4Lfd25rFgLY3eiPJfTJjTGyYP1r2i1upAYZHQsWDqUbGd1bhTRm1bpSQcpWMnEz
- Pumpfun AMM (Pumpswap): 23QJ6qbKcwzA76TX2uSaEb3EtBorKYty9phGYUueMyGoazopvyyZfPfGmGgGzmdt5CPW9nEuB72nnBfaGnydUa6D
- Jupiter: DBctXdTTtvn7Rr4ikeJFCBz4AtHmJRyjHGQFpE59LuY3Shb7UcRJThAXC7TGRXXskXuu9LEm9RqtU6mWxe5cjPF
- Rayd V4: 5kaAWK5X9DdMmsWm6skaUXLd6prFisuYJavd9B62A941nRGcrmwvncg3tRtUfn7TcMLsrrmjCChdEjK3sjxS6YG9
*/

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading configuration: %s", err)
	}

	if err := newApp(cfg).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:  "solana-tx-parser",
		Usage: "Decode Solana transactions into readable actions",
		Description: `Fetches transactions from a Solana RPC node and decodes every instruction,
inner instructions included, into protocol-labelled actions.

Defaults come from the environment (SOLANA_RPC_URL, LOG_LEVEL, ...); flags override them.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Commands: []*cli.Command{
			parseCommand(),
			simulateCommand(),
			decodeInstructionCommand(),
			programsCommand(),
		},
		Flags: globalFlags(cfg),
	}
}

func globalFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "rpc-url",
			Value: cfg.RPCURL,
			Usage: "Solana JSON-RPC endpoint",
		},
		&cli.StringFlag{
			Name:  "commitment",
			Value: cfg.Commitment,
			Usage: "Commitment level (processed, confirmed, finalized)",
		},
		&cli.IntFlag{
			Name:  "rate-limit",
			Value: cfg.RequestsPerSecond,
			Usage: "Maximum RPC requests per second (0 disables limiting)",
		},
		&cli.IntFlag{
			Name:  "burst",
			Value: cfg.Burst,
			Usage: "RPC request burst size",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: cfg.RequestTimeout,
			Usage: "Timeout for decoding one transaction",
		},
		&cli.IntFlag{
			Name:    "concurrency",
			Aliases: []string{"c"},
			Value:   cfg.Concurrency,
			Usage:   "Number of transactions decoded concurrently",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Value: cfg.LogLevel,
			Usage: "Log level (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Value: cfg.MetricsAddr,
			Usage: "Serve Prometheus metrics on this address (e.g. :9090)",
		},
		&cli.StringFlag{
			Name:  "idl-dir",
			Value: cfg.IDLDir,
			Usage: "Directory of <program-id>.json IDL files to preload",
		},
		&cli.BoolFlag{
			Name:  "fetch-idl",
			Value: cfg.FetchIDL,
			Usage: "Fetch IDLs from chain for programs without a decoder",
		},
	}
}

// configFromContext applies the global flags on top of the loaded defaults.
func configFromContext(c *cli.Context) (*config.Config, error) {
	cfg := &config.Config{
		RPCURL:            c.String("rpc-url"),
		Commitment:        c.String("commitment"),
		RequestsPerSecond: c.Int("rate-limit"),
		Burst:             c.Int("burst"),
		RequestTimeout:    c.Duration("timeout"),
		Concurrency:       c.Int("concurrency"),
		LogLevel:          c.String("log-level"),
		MetricsAddr:       c.String("metrics-addr"),
		IDLDir:            c.String("idl-dir"),
		FetchIDL:          c.Bool("fetch-idl"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
