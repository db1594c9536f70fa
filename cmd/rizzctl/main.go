// Command rizzctl manages credit profiles directly against the database.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	rootCmd, c := newRootCmd()
	err := rootCmd.Execute()
	c.close()
	if err != nil {
		os.Exit(1)
	}
}
