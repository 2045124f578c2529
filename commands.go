package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/smallyunet/solana-tx-parser/config"
	"github.com/smallyunet/solana-tx-parser/txparser"
	"github.com/smallyunet/solana-tx-parser/txparser/idl"
)

// session is everything a command needs once the global flags are applied.
type session struct {
	cfg    *config.Config
	log    *logrus.Logger
	parser *txparser.Parser
	close  func()
}

func newSession(c *cli.Context) (*session, error) {
	cfg, err := configFromContext(c)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	var client *rpc.Client
	if cfg.RequestsPerSecond > 0 {
		client = rpc.NewWithCustomRPCClient(rpc.NewWithLimiter(cfg.RPCURL, rate.Limit(cfg.RequestsPerSecond), cfg.Burst))
	} else {
		client = rpc.New(cfg.RPCURL)
	}

	registry := prometheus.NewRegistry()
	metrics := txparser.NewMetrics(registry)

	var fetcher idl.Fetcher
	if cfg.FetchIDL {
		fetcher = idl.NewRPCFetcher(client)
	}
	cache := idl.NewCache(fetcher)
	cache.SetObserver(metrics)
	if cfg.IDLDir != "" {
		n, err := loadIDLDir(cache, cfg.IDLDir, log)
		if err != nil {
			return nil, err
		}
		log.WithField("dir", cfg.IDLDir).Infof("preloaded %d IDLs", n)
	}

	s := &session{
		cfg: cfg,
		log: log,
		parser: txparser.NewParser(client,
			txparser.WithLogger(log),
			txparser.WithMetrics(metrics),
			txparser.WithSchemaSource(cache),
			txparser.WithCommitment(rpc.CommitmentType(cfg.Commitment)),
		),
		close: func() {},
	}

	if cfg.MetricsAddr != "" {
		server := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.WithField("addr", cfg.MetricsAddr).Info("serving metrics")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
		s.close = func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		}
	}
	return s, nil
}

// loadIDLDir stores every <program-id>.json file of dir in cache. Files that
// are not named after a program or do not parse are skipped with a warning.
func loadIDLDir(cache *idl.Cache, dir string, log *logrus.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read IDL directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		entryLog := log.WithField("file", entry.Name())

		programID, err := solana.PublicKeyFromBase58(name)
		if err != nil {
			entryLog.Warn("file name is not a program id, skipping")
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return loaded, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		doc, err := idl.ParseIDL(raw)
		if err != nil {
			entryLog.WithError(err).Warn("invalid IDL, skipping")
			continue
		}
		cache.Put(programID, doc)
		loaded++
	}
	return loaded, nil
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Fetch and decode transactions by signature",
		ArgsUsage: "<signature> [signature...]",
		Description: `Prints one JSON report per signature, in argument order.
Signatures the node does not know print as null.`,
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("at least one signature is required")
			}

			sigs := make([]solana.Signature, c.NArg())
			for i, arg := range c.Args().Slice() {
				sig, err := solana.SignatureFromBase58(arg)
				if err != nil {
					return fmt.Errorf("invalid signature %q: %w", arg, err)
				}
				sigs[i] = sig
			}

			s, err := newSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			reports := make([]*txparser.DecodedReport, len(sigs))
			g, ctx := errgroup.WithContext(c.Context)
			g.SetLimit(s.cfg.Concurrency)
			for i, sig := range sigs {
				i, sig := i, sig
				g.Go(func() error {
					txCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
					defer cancel()

					report, err := s.parser.ParseTransaction(txCtx, sig)
					if err != nil {
						return err
					}
					if report == nil {
						s.log.WithField("signature", sig.String()).Warn("transaction not found")
					}
					reports[i] = report
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if len(reports) == 1 {
				return printJSON(reports[0])
			}
			return printJSON(reports)
		},
	}
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Usage:     "Simulate a transaction and decode its instructions",
		ArgsUsage: "<base64-transaction>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("exactly one base64 encoded transaction is required")
			}

			tx, err := solana.TransactionFromBase64(c.Args().First())
			if err != nil {
				return fmt.Errorf("invalid transaction: %w", err)
			}

			s, err := newSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			ctx, cancel := context.WithTimeout(c.Context, s.cfg.RequestTimeout)
			defer cancel()

			report, err := s.parser.SimulateAndParse(ctx, tx)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func decodeInstructionCommand() *cli.Command {
	return &cli.Command{
		Name:  "decode-ix",
		Usage: "Decode a single instruction without fetching a transaction",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "program",
				Aliases:  []string{"p"},
				Usage:    "Program id",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Instruction data (base58)",
			},
			&cli.StringSliceFlag{
				Name:    "account",
				Aliases: []string{"a"},
				Usage:   "Instruction account, in order (repeatable)",
			},
		},
		Action: func(c *cli.Context) error {
			programID, err := solana.PublicKeyFromBase58(c.String("program"))
			if err != nil {
				return fmt.Errorf("invalid program id: %w", err)
			}
			var data []byte
			if raw := c.String("data"); raw != "" {
				data, err = base58.Decode(raw)
				if err != nil {
					return fmt.Errorf("invalid instruction data: %w", err)
				}
			}

			accounts := make(solana.PublicKeySlice, 0, len(c.StringSlice("account")))
			for _, a := range c.StringSlice("account") {
				pk, err := solana.PublicKeyFromBase58(a)
				if err != nil {
					return fmt.Errorf("invalid account %q: %w", a, err)
				}
				accounts = append(accounts, pk)
			}

			s, err := newSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			ctx, cancel := context.WithTimeout(c.Context, s.cfg.RequestTimeout)
			defer cancel()

			ix := &txparser.RawInstruction{
				ProgramID:   programID,
				Accounts:    accounts,
				Data:        data,
				ParentIndex: -1,
			}
			return printJSON(s.parser.DecodeInstruction(ctx, ix))
		},
	}
}

func programsCommand() *cli.Command {
	return &cli.Command{
		Name:  "programs",
		Usage: "List programs with a built-in decoder",
		Action: func(c *cli.Context) error {
			for _, decoder := range txparser.NewDefaultRegistry().List() {
				fmt.Printf("%-46s %s\n", decoder.ProgramID(), decoder.Name())
			}
			return nil
		},
	}
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
