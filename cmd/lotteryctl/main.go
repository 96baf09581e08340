package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// .env feeds LOTTERY_* overrides before viper reads them
	_ = godotenv.Load(".env")
	_ = godotenv.Load("configs/.env")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
