// Command memscan attaches to a running process by pid and scans its
// readable memory regions for a byte pattern, printing a hex dump of
// the bytes around each hit. Adapted from the teacher's
// cmd/process_aob, swapping its hand-rolled AOBPart/proc.Scan pipeline
// for pattern.Parse and a MemRange per readable /proc/[pid]/maps
// region.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Moonlight-Companies/gologger/logger"

	"memview/hexdump"
	"memview/memview"
	"memview/memview/linuxmem"
	"memview/pattern"
)

func main() {
	pidFlag := flag.Int("pid", 0, "process ID to attach to")
	sigFlag := flag.String("pattern", "", "pattern to scan for, e.g. \"DE AD ?? EF\"")
	contextFlag := flag.Int("context", 16, "bytes of context to dump before/after each hit")
	flag.Parse()

	if *pidFlag == 0 || *sigFlag == "" {
		fmt.Println("usage: memscan --pid <pid> --pattern \"DE AD ?? EF\"")
		os.Exit(1)
	}

	pat, err := pattern.Parse(*sigFlag)
	if err != nil {
		fmt.Printf("invalid pattern: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger("memscan")
	view, err := linuxmem.Open(*pidFlag, log)
	if err != nil {
		fmt.Printf("failed to attach to pid %d: %v\n", *pidFlag, err)
		os.Exit(1)
	}
	defer view.Close()

	regions, err := view.Regions()
	if err != nil {
		fmt.Printf("failed to read memory map: %v\n", err)
		os.Exit(1)
	}

	totalHits := 0
	for _, r := range regions {
		if !r.Prot.Readable() {
			continue
		}
		mr := memview.Range(view, r.Start, r.End-r.Start)
		hits := mr.Scan(pat)
		for _, hit := range hits {
			totalHits++
			fmt.Printf("match at 0x%x\n", hit.Address)

			ctxStart := hit.Address - uintptr(*contextFlag)
			ctxSize := uint(*contextFlag*2 + pat.Len())
			ctxRange := memview.Range(view, ctxStart, uintptr(ctxSize))
			fmt.Println(hexdump.DumpRange(ctxRange, hexdump.DefaultOptions()))
		}
	}

	fmt.Printf("found %d matches across %d regions\n", totalHits, len(regions))
}
