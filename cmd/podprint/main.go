// Command podprint attaches to a running process, reads a tagged POD
// struct at a given address, validates and cleans its pointer fields
// against the process's own mapped regions, and renders it as a table.
// Adapted from the teacher's cmd/process_test_pod, which read the same
// shape of struct from an on-disk ProcessDump; this project reads
// directly from a live linuxmem.View via pod.ReadStruct instead.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Moonlight-Companies/gologger/logger"

	"memview/memview/linuxmem"
	"memview/pod"
)

// FlagData and GameState mirror the teacher's sample structs, kept as a
// fixed worked example since a CLI cannot accept an arbitrary Go type
// at runtime.
type FlagData struct {
	ID    int32
	Name  [32]byte `pod:"char_array"`
	Value float32
}

type GameState struct {
	Seed     [4]byte `pod:"char_array"`
	_        uint32
	UniqueID uint64
	FlagPtr  uint64 `pod:"valid_pointer"`
}

// LinkedGameState is the same layout as GameState, but Flag is a real Go
// pointer rather than a raw address: reading it goes through
// pod.ReadLinkedStruct, which follows the pointer and materializes the
// pointed-to FlagData in place instead of leaving the caller to make a
// second pod.ReadStruct call by hand.
type LinkedGameState struct {
	Seed     [4]byte `pod:"char_array"`
	_        uint32
	UniqueID uint64
	Flag     *FlagData `pod:"valid_pointer"`
}

func main() {
	pidFlag := flag.Int("pid", 0, "process ID to attach to")
	addrFlag := flag.String("addr", "", "address of the GameState struct (hex)")
	linkedFlag := flag.Bool("linked", false, "read via pod.ReadLinkedStruct instead of pod.ReadStruct")
	flag.Parse()

	if *pidFlag == 0 || *addrFlag == "" {
		fmt.Println("usage: podprint --pid <pid> --addr 0x...")
		os.Exit(1)
	}

	log := logger.NewLogger("podprint")
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
	isValid := func(addr uintptr) bool {
		for _, r := range regions {
			if addr >= r.Start && addr < r.End {
				return true
			}
		}
		return false
	}

	addrStr := strings.TrimPrefix(*addrFlag, "0x")
	addrVal, err := strconv.ParseUint(addrStr, 16, 64)
	if err != nil {
		fmt.Printf("invalid address: %v\n", err)
		os.Exit(1)
	}

	if *linkedFlag {
		var linked LinkedGameState
		if err := pod.ReadLinkedStruct(view, uintptr(addrVal), &linked, isValid); err != nil {
			fmt.Printf("failed to read LinkedGameState: %v\n", err)
			os.Exit(1)
		}
		pod.PrintStruct(isValid, linked, os.Stdout)
		return
	}

	state, ok := pod.ReadStruct[GameState](view, uintptr(addrVal), isValid)
	if !ok {
		fmt.Println("failed to read GameState")
		os.Exit(1)
	}
	pod.PrintStruct(isValid, state, os.Stdout)

	if state.FlagPtr != 0 {
		flagData, ok := pod.ReadStruct[FlagData](view, uintptr(state.FlagPtr), isValid)
		if ok {
			fmt.Println("\nFlagPtr:")
			pod.PrintStruct(isValid, flagData, os.Stdout)
		}
	}
}
