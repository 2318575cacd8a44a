// =============================================================================
// Rent Receipt Generator - Main Entry Point
// =============================================================================
//
// USAGE:
//   recibos generate       - Issue the receipts of one billing period
//   recibos validate       - Check a ledger table without writing anything
//   recibos history        - List the receipts recorded in the ledger
//   recibos version        - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (schema, row transformer, invoice composer,
//                      loaders, PDF renderer, ledger, metrics)
//   - pkg/           : Shared logging and file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/rent-receipts/cmd"
)

func main() {
	cmd.Execute()
}
