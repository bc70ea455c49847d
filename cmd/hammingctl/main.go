package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spacelab/hammingdev/blockdev"
	"github.com/spacelab/hammingdev/observability"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: hammingctl [options] command [args]

commands:
  read SECTOR COUNT             read COUNT sectors starting at SECTOR, hex-dump to stdout
  write SECTOR FILE             write FILE's bytes to sectors starting at SECTOR
  discard SECTOR COUNT          discard COUNT sectors starting at SECTOR
  write-zeroes SECTOR COUNT     zero COUNT sectors starting at SECTOR
  dump-codeset SECTOR           print the CodeSet of the page containing SECTOR
  inject-bit SECTOR ROW BIT     flip one data bit in the page containing SECTOR, bypassing WriteSector
  stats                         print the device's counters

ex:
 $> hammingctl -backend forward_to_block_device -backing-file ./disk.img write 0 payload.bin
 $> hammingctl read 0 8

options:
`,
		)
		flag.PrintDefaults()
		os.Exit(1)
	}
}

var (
	flagSectorCount = flag.Uint64("sector-count", uint64(blockdev.DefaultSectorCount), "total addressable sectors")
	flagVerifyNs    = flag.Int64("verify-interval-ns", blockdev.DefaultVerifyIntervalNs, "opportunistic-verification staleness threshold, in nanoseconds")
	flagBackend     = flag.String("backend", "in_memory_tree", "backend_mode: in_memory_tree or forward_to_block_device")
	flagBackingFile = flag.String("backing-file", "", "backing file path, required when -backend=forward_to_block_device")
	flagPrintDebug  = flag.Bool("v", false, "enable verbose debug logging across ecc/ptree/blockdev")
)

func main() {
	log.SetPrefix("hammingctl: ")
	log.SetFlags(0)

	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
	}

	setDebugMode(*flagPrintDebug)

	cfg := blockdev.DefaultConfig()
	cfg.SectorCount = uint32(*flagSectorCount)
	cfg.VerifyIntervalNs = *flagVerifyNs
	switch *flagBackend {
	case "in_memory_tree":
		cfg.BackendMode = blockdev.InMemoryTree
	case "forward_to_block_device":
		cfg.BackendMode = blockdev.ForwardToBlockDevice
		cfg.BackingFilePath = *flagBackingFile
	default:
		log.Fatalf("unknown -backend %q", *flagBackend)
	}

	dev, err := blockdev.New(cfg, observability.LogSink{})
	if err != nil {
		log.Fatalf("could not create device: %v", err)
	}
	defer dev.Close()

	args := flag.Args()
	switch args[0] {
	case "read":
		cmdRead(dev, args[1:])
	case "write":
		cmdWrite(dev, args[1:])
	case "discard":
		cmdDiscard(dev, args[1:])
	case "write-zeroes":
		cmdWriteZeroes(dev, args[1:])
	case "dump-codeset":
		cmdDumpCodeset(dev, args[1:])
	case "inject-bit":
		cmdInjectBit(dev, args[1:])
	case "stats":
		cmdStats(dev)
	default:
		log.Printf("unknown command %q", args[0])
		flag.Usage()
	}
}

func parseUint32(s, what string) uint32 {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		log.Fatalf("invalid %s %q: %v", what, s, err)
	}
	return uint32(n)
}
