// Administrative reversal utility. Marks a COMPLETED ledger entry FAILED
// and claws the amount back from the wallet, in one database transaction.
// Deliberately a standalone command with raw SQL, outside the service
// layer: reversals are a manual, audited operation, not an API.
//
// Usage: reverse -tx <transaction_id>
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	txID := flag.Int64("tx", 0, "transaction ID to reverse")
	flag.Parse()

	if *txID == 0 {
		log.Fatal("usage: reverse -tx <transaction_id>")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	var userID int64
	var amount string
	var direction, status string
	err = tx.QueryRow(
		`SELECT user_id, amount, direction, status FROM transactions WHERE id = $1 FOR UPDATE`,
		*txID,
	).Scan(&userID, &amount, &direction, &status)
	if err == sql.ErrNoRows {
		log.Fatalf("Transaction %d not found", *txID)
	}
	if err != nil {
		log.Fatalf("Failed to load transaction: %v", err)
	}

	if status != "COMPLETED" {
		log.Fatalf("Transaction %d is %s, only COMPLETED entries can be reversed", *txID, status)
	}

	// A credit reversal debits the wallet and vice versa.
	var update string
	if direction == "CREDIT" {
		update = `UPDATE wallets SET balance = balance - $1 WHERE user_id = $2 AND balance >= $1`
	} else {
		update = `UPDATE wallets SET balance = balance + $1 WHERE user_id = $2`
	}

	result, err := tx.Exec(update, amount, userID)
	if err != nil {
		log.Fatalf("Failed to adjust wallet: %v", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		log.Fatalf("Wallet for user %d cannot cover the reversal", userID)
	}

	if _, err := tx.Exec(`UPDATE transactions SET status = 'FAILED' WHERE id = $1`, *txID); err != nil {
		log.Fatalf("Failed to update transaction status: %v", err)
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit reversal: %v", err)
	}

	log.Printf("Reversed transaction %d: %s %s for user %d", *txID, direction, amount, userID)
}
