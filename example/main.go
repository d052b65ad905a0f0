package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/TechXTT/litequery"
	"github.com/TechXTT/litequery/pkg/bootstrap"
	"github.com/TechXTT/litequery/pkg/config"
	"github.com/TechXTT/litequery/pkg/engine"
	"github.com/TechXTT/litequery/pkg/logging"
	"github.com/TechXTT/litequery/pkg/query"
)

type Bill struct {
	ID     int64
	Date   string
	Name   string
	Type   string
	Value  float64
	Wallet string
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	eng := engine.NewSQL(engine.WithDriver(engine.DriverPure))
	defer eng.CloseAll() //nolint:errcheck // exiting anyway

	opts := config.Default().WithDatabaseFile("accountBook")
	opts.CloseDelay = time.Second
	db, err := litequery.Db(eng, opts, query.WithLogger(logging.Default()))
	if err != nil {
		return err
	}

	// 1) Create the wallet and bill tables if missing
	scripts, err := bootstrap.Default()
	if err != nil {
		return err
	}
	if _, err := bootstrap.NewRunner(db, scripts, db.Logger()).Run(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	// 2) Record a few bills
	_, err = db.Table("bill").InsertAll(ctx, []map[string]any{
		{"date": "2024-05-01", "name": "coffee", "type": "out", "value": 3.2, "wallet": "cash"},
		{"date": "2024-05-02", "name": "salary", "type": "in", "value": 2500, "wallet": "card"},
		{"date": "2024-05-03", "name": "books", "type": "out", "value": 42, "wallet": "card"},
	})
	if err != nil {
		return fmt.Errorf("insert bills: %w", err)
	}

	// 3) Page through the expenses
	page, err := db.Table("bill").
		WhereEq("type", "out").
		BeginGroup().
		WhereEq("wallet", "cash").
		OrWhere("value", ">", 10).
		EndGroup().
		OrderBy("date", "DESC").
		Paginate(ctx, 1, 10)
	if err != nil {
		return fmt.Errorf("paginate: %w", err)
	}
	var bills []Bill
	if err := litequery.Scan(page.Data, &bills); err != nil {
		return err
	}
	fmt.Printf("page %d/%d, %d expenses\n", page.Index, page.Count, page.Total)
	for _, b := range bills {
		fmt.Printf("  %s %-8s %8.2f (%s)\n", b.Date, b.Name, b.Value, b.Wallet)
	}

	// 4) Clean up
	if _, err := db.Table("bill").Where("date", "BETWEEN", []string{"2024-05-01", "2024-05-03"}).Delete(ctx); err != nil {
		return fmt.Errorf("delete bills: %w", err)
	}
	return db.CloseNow(ctx)
}
