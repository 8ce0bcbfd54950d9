// journalcat друкує журнал тіків як JSON по рядку на тік
// і підсумок в кінці.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"SagaCore/journal"
)

func main() {
	summary := flag.Bool("summary", false, "Print only totals")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: journalcat [-summary] ticks-*.jsonl.zst...")
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	var ticks, collisions, messages int
	var maxUS int64
	for _, path := range flag.Args() {
		recs, err := journal.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			os.Exit(1)
		}
		for _, rec := range recs {
			ticks++
			collisions += rec.Collisions
			messages += rec.Messages
			maxUS = max(maxUS, rec.DurationUS)
			if !*summary {
				_ = enc.Encode(rec)
			}
		}
	}
	fmt.Fprintf(os.Stderr, "ticks=%d collisions=%d messages=%d max_tick_us=%d\n", ticks, collisions, messages, maxUS)
}
