package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/investview/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// InitDB opens the sqlite database and ensures the portfolio schema exists.
// The store holds the latest parsed portfolio: one row in imports per parse
// run plus the full accepted transaction sequence, from which holdings are
// rebuilt by ledger replay.
func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS imports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		template TEXT NOT NULL,
		realized_profit REAL NOT NULL,
		asset_count INTEGER NOT NULL,
		transaction_count INTEGER NOT NULL,
		imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		import_id INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		asset TEXT NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL,
		type TEXT NOT NULL,
		date TEXT NOT NULL,
		asset_type TEXT NOT NULL,
		FOREIGN KEY(import_id) REFERENCES imports(id)
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_import_seq
		ON transactions(import_id, seq);
	`

	if _, err = DB.Exec(createTableStatement); err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}

	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.", "databasePath", databasePath)
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}
