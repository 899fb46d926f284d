// Package marketplace parses marketplace flags and launches the runtime.
package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/marketplace/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/marketplace/internal/platform/grpc"
	"github.com/louisbranch/marketplace/internal/platform/logging"
	"github.com/louisbranch/marketplace/internal/platform/otel"
	"github.com/louisbranch/marketplace/internal/platform/timeouts"
	"github.com/louisbranch/marketplace/internal/services/market/api/grpc/inspect"
	server "github.com/louisbranch/marketplace/internal/services/market/app"
	"github.com/louisbranch/marketplace/internal/services/market/storage"
	marketsqlite "github.com/louisbranch/marketplace/internal/services/market/storage/sqlite"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/encoding/protojson"
)

// Config holds marketplace command configuration.
type Config struct {
	RollupURL   string `env:"ROLLUP_HTTP_SERVER_URL" envDefault:"http://127.0.0.1:5004"`
	JournalPath string `env:"MARKETPLACE_JOURNAL_PATH"`
	GRPCAddr    string `env:"MARKETPLACE_GRPC_ADDR"`
	RoyaltyBps  int64  `env:"MARKETPLACE_ROYALTY_BPS" envDefault:"500"`
	Logging     logging.Config
	Telemetry   otel.Config

	// Inspect queries a running instance over gRPC, prints the snapshot and
	// exits instead of starting the runtime.
	Inspect string
	// DumpJournal prints every journal entry as a JSON line and exits.
	DumpJournal bool
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.RollupURL, "rollup-url", cfg.RollupURL, "Rollup node HTTP API URL")
	fs.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "SQLite journal path (empty disables the journal)")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "Inspect gRPC listen address (empty disables gRPC)")
	fs.Int64Var(&cfg.RoyaltyBps, "royalty-bps", cfg.RoyaltyBps, "Creator royalty in basis points")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level")
	fs.StringVar(&cfg.Inspect, "inspect", "", "Query a running instance, e.g. nft/1, and exit")
	fs.BoolVar(&cfg.DumpJournal, "dump-journal", false, "Print the journal as JSON lines and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the marketplace runtime. It instead answers one inspect query
// when cfg.Inspect is set, or prints the journal when cfg.DumpJournal is set.
func Run(ctx context.Context, cfg Config, stdout io.Writer) error {
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	if strings.TrimSpace(cfg.Inspect) != "" {
		return runInspect(ctx, cfg, stdout, logger)
	}
	if cfg.DumpJournal {
		return runDumpJournal(ctx, cfg, stdout)
	}
	options := entrypoint.RunOptions{Telemetry: cfg.Telemetry, Logger: logger}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMarketplace, options, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			RollupURL:   cfg.RollupURL,
			JournalPath: cfg.JournalPath,
			GRPCAddr:    cfg.GRPCAddr,
			RoyaltyBps:  cfg.RoyaltyBps,
		}, logger)
	})
}

func runInspect(ctx context.Context, cfg Config, stdout io.Writer, logger zerolog.Logger) error {
	addr := strings.TrimSpace(cfg.GRPCAddr)
	if addr == "" {
		return errors.New("inspect requires a gRPC address")
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCDial)
	defer cancel()
	conn, err := platformgrpc.DialWithHealth(dialCtx, addr, inspect.ServiceName, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	out, err := inspect.NewClient(conn).Inspect(dialCtx, cfg.Inspect)
	if err != nil {
		return fmt.Errorf("inspect %q: %w", cfg.Inspect, err)
	}
	data, err := protojson.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(data))
	return err
}

const journalPageSize = 100

type journalLine struct {
	Seq              int64           `json:"seq"`
	InputIndex       uint64          `json:"inputIndex"`
	RequestID        string          `json:"requestId"`
	Sender           string          `json:"sender"`
	Method           string          `json:"method,omitempty"`
	TokenID          string          `json:"tokenId,omitempty"`
	Verdict          string          `json:"verdict"`
	RejectionCode    string          `json:"rejectionCode,omitempty"`
	RejectionMessage string          `json:"rejectionMessage,omitempty"`
	Settlement       json.RawMessage `json:"settlement,omitempty"`
	RecordedAt       string          `json:"recordedAt"`
}

func newJournalLine(entry storage.Entry) journalLine {
	return journalLine{
		Seq:              entry.Seq,
		InputIndex:       entry.InputIndex,
		RequestID:        entry.RequestID,
		Sender:           entry.Sender,
		Method:           entry.Method,
		TokenID:          entry.TokenID,
		Verdict:          entry.Verdict,
		RejectionCode:    entry.RejectionCode,
		RejectionMessage: entry.RejectionMessage,
		Settlement:       entry.SettlementJSON,
		RecordedAt:       entry.RecordedAt.UTC().Format(time.RFC3339Nano),
	}
}

func runDumpJournal(ctx context.Context, cfg Config, stdout io.Writer) error {
	path := strings.TrimSpace(cfg.JournalPath)
	if path == "" {
		return errors.New("dump-journal requires a journal path")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("journal %s: %w", path, err)
	}
	journal, err := marketsqlite.Open(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()
	return dumpJournal(ctx, journal, stdout)
}

func dumpJournal(ctx context.Context, journal storage.Journal, stdout io.Writer) error {
	encoder := json.NewEncoder(stdout)
	var afterSeq int64
	for {
		page, err := journal.ListEntries(ctx, afterSeq, journalPageSize)
		if err != nil {
			return err
		}
		for _, entry := range page.Entries {
			if err := encoder.Encode(newJournalLine(entry)); err != nil {
				return fmt.Errorf("encode journal entry %d: %w", entry.Seq, err)
			}
		}
		if page.NextSeq == 0 {
			return nil
		}
		afterSeq = page.NextSeq
	}
}
