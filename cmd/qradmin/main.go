// Command qradmin provisions and lists QR codes directly against the
// database, for preparing print batches without going through the API.
//
// Usage:
//
//	qradmin -d <dsn> provision -prefix BK- -n 100
//	qradmin -d <dsn> list -limit 50 -offset 0
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/dmitrijs2005/booktag/internal/dbx"
	"github.com/dmitrijs2005/booktag/internal/logging"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/booktag/internal/server/services"
)

var errUsage = errors.New("usage: qradmin -d <dsn> provision -prefix P -n N | list -limit L [-offset O]")

// openRegistry is a seam for tests.
var openRegistry = func(ctx context.Context, dsn string) (*services.QRCodeRegistry, io.Closer, error) {
	db, err := repomanager.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	pm := repomanager.NewPostgresRepositoryManager()
	if err := pm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return services.NewQRCodeRegistry(db, dbx.NewSQLTransactor(db, nil), pm, logging.Nop{}), db, nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("qradmin", flag.ContinueOnError)
	dsn := fs.String("d", os.Getenv("BOOKTAG_DATABASE_DSN"), "database DSN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" || fs.NArg() == 0 {
		return errUsage
	}

	registry, closer, err := openRegistry(ctx, *dsn)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer closer.Close()

	switch cmd, rest := fs.Arg(0), fs.Args()[1:]; cmd {
	case "provision":
		return provision(ctx, registry, rest, out)
	case "list":
		return list(ctx, registry, rest, out)
	default:
		return errUsage
	}
}

func provision(ctx context.Context, registry *services.QRCodeRegistry, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("provision", flag.ContinueOnError)
	prefix := fs.String("prefix", "", "code prefix")
	n := fs.Int("n", 1, "number of codes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	batch, err := registry.ProvisionBatch(ctx, *prefix, *n)
	for _, q := range batch {
		fmt.Fprintln(out, q.Code)
	}
	return err
}

func list(ctx context.Context, registry *services.QRCodeRegistry, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	limit := fs.Int("limit", 50, "max rows")
	offset := fs.Int("offset", 0, "rows to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	codes, err := registry.ListCodes(ctx, *limit, *offset)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCODE\tREGISTERED\tOWNER")
	for _, q := range codes {
		owner := "-"
		if q.OwnerName != nil {
			owner = *q.OwnerName
			if q.OwnerEmail != nil {
				owner += " <" + *q.OwnerEmail + ">"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", q.ID, q.Code, q.IsRegistered(), owner)
	}
	return tw.Flush()
}
