// Command ecolabel serves and computes environmental eco-scores for food
// products.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
