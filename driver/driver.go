package driver

import (
	"database/sql"
	"os"

	_ "github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"
)

// ConnectDB opens the MySQL connection described by DATABASE_DSN.
// multiStatements is required by the migration runner.
func ConnectDB() *sql.DB {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "root:secret@tcp(127.0.0.1:3306)/food_review?multiStatements=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.WithError(err).Fatal("failed to open database connection")
	}
	if err := db.Ping(); err != nil {
		log.WithError(err).Fatal("failed to ping database")
	}
	return db
}
