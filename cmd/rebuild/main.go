package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"matrix-ledger/internal/domain"
	"matrix-ledger/internal/observability"
	"matrix-ledger/internal/rebuild"
	"matrix-ledger/internal/storage"
	chstore "matrix-ledger/internal/storage/clickhouse"
	"matrix-ledger/internal/storage/memory"
	"matrix-ledger/internal/storage/migrations"
	pgstore "matrix-ledger/internal/storage/postgres"
)

func main() {
	csvPath := flag.String("csv", "", "Path to the transaction CSV (wallet,referrer,paid_at,amount[,level])")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for the analytics sink (optional)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	logger := log.New(os.Stdout, "[rebuild] ", log.LstdFlags)

	if *csvPath == "" {
		logger.Fatal("--csv is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required unless --use-memory is set")
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx := context.Background()

	txs, err := loadTransactions(*csvPath)
	if err != nil {
		logger.Fatalf("Failed to load transactions: %v", err)
	}
	logger.Printf("Loaded %d transaction rows from %s", len(txs), *csvPath)

	var (
		members      storage.MemberStore
		edges        storage.PlacementEdgeStore
		ancestors    storage.AncestorLinkStore
		transactions storage.TransactionStore
		rewardStore  storage.RewardStore
		counters     storage.LayerCounterStore
		atomic       storage.Atomic
	)

	if *useMemory {
		members = memory.NewMemberStore()
		edges = memory.NewPlacementEdgeStore()
		ancestors = memory.NewAncestorLinkStore()
		transactions = memory.NewTransactionStore()
		rewardStore = memory.NewRewardStore()
		counters = memory.NewLayerCounterStore()
		atomic = memory.NewAtomic()
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}

		members = pgstore.NewMemberStore(pool)
		edges = pgstore.NewPlacementEdgeStore(pool)
		ancestors = pgstore.NewAncestorLinkStore(pool)
		transactions = pgstore.NewTransactionStore(pool)
		rewardStore = pgstore.NewRewardStore(pool)
		counters = pgstore.NewLayerCounterStore(pool)
		atomic = pool
	}

	runner := rebuild.NewRunner(
		domain.DefaultCatalog(),
		members, edges, ancestors, transactions, rewardStore, counters,
		atomic,
	)

	start := time.Now()
	result, err := runner.RebuildAll(ctx, txs)
	if err != nil {
		observability.RecordRebuildRun("error", time.Since(start).Seconds())
		logger.Fatalf("Rebuild failed: %v", err)
	}
	observability.RecordRebuildRun("success", time.Since(start).Seconds())
	observability.RecordTransactions(result.Processed, result.Rejected)
	observability.RecordPlacements(
		result.Placement.Placed,
		result.Placement.Roots,
		len(result.Placement.Gaps),
		len(result.Placement.Unplaced),
	)
	observability.RecordRewardTotals(
		result.Totals.Rewards,
		result.Totals.InstantUSDT,
		result.Totals.InstantMAT,
		result.Totals.PendingUSDT,
		result.Totals.PendingMAT,
	)
	observability.DefaultMetrics.LastSuccessfulRebuild.SetToCurrentTime()

	logger.Printf("Rebuild complete in %s", time.Since(start).Round(time.Millisecond))
	logger.Printf("Members: %d (placed %d, roots %d, gaps %d)",
		result.Totals.Members, result.Placement.Placed, result.Placement.Roots, len(result.Placement.Gaps))
	logger.Printf("Transactions: %d processed, %d rejected", result.Processed, result.Rejected)
	logger.Printf("Rewards: %d entries, instant %.2f USDT / %.2f MAT, pending %.2f USDT",
		result.Totals.Rewards, result.Totals.InstantUSDT, result.Totals.InstantMAT, result.Totals.PendingUSDT)
	for _, rej := range result.Rejections {
		logger.Printf("Rejected %s (%s): %s", rej.TxID, rej.Wallet, rej.Reason)
	}
	for _, failure := range result.Placement.Unplaced {
		logger.Printf("Unplaced %s: %s", failure.Wallet, failure.Reason)
	}

	if *clickhouseDSN != "" {
		if err := exportRewardEvents(ctx, *clickhouseDSN, rewardStore); err != nil {
			logger.Fatalf("Failed to export reward events: %v", err)
		}
		logger.Printf("Exported %d reward events to ClickHouse", result.Totals.Rewards)
	}
}

// exportRewardEvents pushes the rebuilt ledger into the analytics sink.
func exportRewardEvents(ctx context.Context, dsn string, rewardStore storage.RewardStore) error {
	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	if err != nil {
		return fmt.Errorf("clickhouse migrations: %w", err)
	}
	defer conn.Close()

	all, err := rewardStore.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list rewards: %w", err)
	}
	if len(all) == 0 {
		return nil
	}

	return chstore.NewRewardEventStore(conn).InsertBulk(ctx, all)
}

// loadTransactions parses the CSV export. Expected columns: wallet,
// referrer wallet, payment time, amount, and an optional declared level.
// A header row is detected and skipped; blank lines are ignored.
func loadTransactions(path string) ([]*domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var txs []*domain.Transaction
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line+1, err)
		}
		line++

		if len(record) < 4 {
			continue
		}
		if line == 1 && looksLikeHeader(record) {
			continue
		}

		wallet := strings.TrimSpace(record[0])
		if wallet == "" {
			continue
		}

		paymentTime, err := parseTimestamp(strings.TrimSpace(record[2]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad amount %q", line, record[3])
		}

		tx := &domain.Transaction{
			Wallet:         wallet,
			ReferrerWallet: strings.TrimSpace(record[1]),
			PaymentTime:    paymentTime,
			Amount:         amount,
			StreamIndex:    line,
		}
		if len(record) >= 5 && strings.TrimSpace(record[4]) != "" {
			level, err := strconv.Atoi(strings.TrimSpace(record[4]))
			if err != nil {
				return nil, fmt.Errorf("csv line %d: bad level %q", line, record[4])
			}
			tx.DeclaredLevel = level
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func looksLikeHeader(record []string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	return err != nil
}

// timestampLayouts are tried in order against non-numeric values. The
// slash-separated layouts match the upstream export formats, including the
// minute-precision one its own combined CSV is written in.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"2006-01-02",
}

// parseTimestamp accepts Unix seconds, Unix milliseconds, or one of the
// known date layouts, and returns Unix milliseconds.
func parseTimestamp(value string) (int64, error) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		// Values this large are already milliseconds.
		if n > 1e12 {
			return n, nil
		}
		return n * 1000, nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unparseable timestamp %q", value)
}
