// Package main is the entry point for the prisonfacets application
package main

import (
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/cmd"
)

func main() {
	cmd.Execute()
}
