package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample orders for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			if err := gormDB.Exec("TRUNCATE payment_status_history, payment_transactions, orders RESTART IDENTITY").Error; err != nil {
				log.Fatalf("failed to clear existing data: %v", err)
			}
			fmt.Println("Cleared existing orders and transactions")
		}

		orders := []struct {
			Number         string
			AmountCentimes int64
			Currency       string
			CustomerEmail  string
			Notes          string
		}{
			{"AFP-SEED0001", 250_00, "HTG", "marie@example.ht", "panye legim"},
			{"AFP-SEED0002", 1200_00, "HTG", "jean@example.ht", "atizana bwa"},
			{"AFP-SEED0003", 75_50, "HTG", "claudine@example.ht", "kafe moulen"},
			{"AFP-SEED0004", 5000_00, "HTG", "pierre@example.ht", "tablo pent"},
		}

		for _, o := range orders {
			var exists int
			row := gormDB.Raw("SELECT 1 FROM orders WHERE order_number = ?", o.Number).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("order %s already exists, skipping\n", o.Number)
				continue
			}

			if err := gormDB.Exec(
				"INSERT INTO orders (order_number, amount_centimes, currency, status, customer_email, notes, created_at, updated_at) VALUES (?, ?, ?, 'pending', ?, ?, now(), now())",
				o.Number, o.AmountCentimes, o.Currency, o.CustomerEmail, o.Notes,
			).Error; err != nil {
				log.Fatalf("failed to insert order %s: %v", o.Number, err)
			}
			fmt.Printf("Seeded order: %s (%d centimes)\n", o.Number, o.AmountCentimes)
		}

		fmt.Println("Sample orders seeded successfully")
	},
}
