package cli

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	_ "github.com/microsoft/go-mssqldb" // sqlserver driver
	_ "modernc.org/sqlite"              // sqlite driver

	"github.com/zoobzio/relql/executor"
	"github.com/zoobzio/relql/mariadb"
	"github.com/zoobzio/relql/mssql"
	"github.com/zoobzio/relql/postgres"
	"github.com/zoobzio/relql/sqlite"
)

var renderers = map[string]func() executor.Renderer{
	"postgres": func() executor.Renderer { return postgres.New() },
	"sqlite":   func() executor.Renderer { return sqlite.New() },
	"mariadb":  func() executor.Renderer { return mariadb.New() },
	"mssql":    func() executor.Renderer { return mssql.New() },
}

// driverDialects maps each supported driver to the dialect it speaks.
var driverDialects = map[string]string{
	"pgx":       "postgres",
	"sqlite":    "sqlite",
	"mysql":     "mariadb",
	"sqlserver": "mssql",
}

func newRenderer(dialect string) (executor.Renderer, error) {
	if dialect == "mysql" {
		dialect = "mariadb"
	}
	if f, ok := renderers[dialect]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown dialect %q: must be one of %v", dialect, keys(renderers))
}

// connect opens a Querier for driver. The returned function releases it.
func connect(ctx context.Context, driver, dsn string) (executor.Querier, func() error, error) {
	switch driver {
	case "pgx":
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect: %w", err)
		}
		return executor.Pgx(conn), func() error { return conn.Close(context.Background()) }, nil
	case "mysql":
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	case "sqlite", "sqlserver":
	default:
		return nil, nil, fmt.Errorf("unknown driver %q: must be one of %v", driver, keys(driverDialects))
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}
	return executor.DB(db), db.Close, nil
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
