package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/spacelab/hammingdev/blockdev"
	"github.com/spacelab/hammingdev/ecc"
	"github.com/spacelab/hammingdev/ptree"
)

// setDebugMode flips every package's PrintDebugInfo switch; each
// package's logger checks its switch on every write.
func setDebugMode(v bool) {
	ecc.PrintDebugInfo = v
	ptree.PrintDebugInfo = v
	blockdev.PrintDebugInfo = v
}

func cmdRead(dev *blockdev.Device, args []string) {
	if len(args) != 2 {
		log.Fatalf("read: want SECTOR COUNT")
	}
	sector := parseUint32(args[0], "SECTOR")
	count := parseUint32(args[1], "COUNT")

	buf := make([]byte, int(count)*blockdev.SectorSize)
	if err := dev.SubmitRead(sector, []blockdev.Segment{{Data: buf}}); err != nil {
		log.Fatalf("read: %v", err)
	}
	fmt.Print(hex.Dump(buf))
}

func cmdWrite(dev *blockdev.Device, args []string) {
	if len(args) != 2 {
		log.Fatalf("write: want SECTOR FILE")
	}
	sector := parseUint32(args[0], "SECTOR")

	data, err := os.ReadFile(args[1])
	if err != nil {
		log.Fatalf("write: %v", err)
	}
	if len(data)%blockdev.SectorSize != 0 {
		pad := make([]byte, blockdev.SectorSize-len(data)%blockdev.SectorSize)
		data = append(data, pad...)
	}
	if err := dev.SubmitWrite(sector, []blockdev.Segment{{Data: data}}); err != nil {
		log.Fatalf("write: %v", err)
	}
	fmt.Fprintf(os.Stdout, "wrote %d sectors starting at %d\n", len(data)/blockdev.SectorSize, sector)
}

func cmdDiscard(dev *blockdev.Device, args []string) {
	if len(args) != 2 {
		log.Fatalf("discard: want SECTOR COUNT")
	}
	sector := parseUint32(args[0], "SECTOR")
	count := parseUint32(args[1], "COUNT")
	if err := dev.SubmitDiscard(sector, count); err != nil {
		log.Fatalf("discard: %v", err)
	}
}

func cmdWriteZeroes(dev *blockdev.Device, args []string) {
	if len(args) != 2 {
		log.Fatalf("write-zeroes: want SECTOR COUNT")
	}
	sector := parseUint32(args[0], "SECTOR")
	count := parseUint32(args[1], "COUNT")
	if err := dev.SubmitWriteZeroes(sector, count); err != nil {
		log.Fatalf("write-zeroes: %v", err)
	}
}

func cmdDumpCodeset(dev *blockdev.Device, args []string) {
	if len(args) != 1 {
		log.Fatalf("dump-codeset: want SECTOR")
	}
	sector := parseUint32(args[0], "SECTOR")

	buf := make([]byte, blockdev.SectorSize)
	if err := dev.SubmitRead(sector, []blockdev.Segment{{Data: buf}}); err != nil {
		log.Fatalf("dump-codeset: %v", err)
	}
	page, err := dev.DebugPageLookup(sector)
	if err != nil {
		log.Fatalf("dump-codeset: %v", err)
	}
	printCodeSet(os.Stdout, &page.Code)
}

func printCodeSet(w io.Writer, cs *ecc.CodeSet) {
	fmt.Fprintf(w, "first_set:\n")
	for i, row := range cs.FirstSet {
		fmt.Fprintf(w, "  [%d] %016x%016x\n", i, row.Hi, row.Lo)
	}
	for copyIdx, rows := range cs.SecondSet {
		fmt.Fprintf(w, "second_set[%d]:\n", copyIdx)
		for i, row := range rows {
			fmt.Fprintf(w, "  [%d] %016x%016x\n", i, row.Hi, row.Lo)
		}
	}
}

func cmdInjectBit(dev *blockdev.Device, args []string) {
	if len(args) != 3 {
		log.Fatalf("inject-bit: want SECTOR ROW BIT")
	}
	sector := parseUint32(args[0], "SECTOR")
	row, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatalf("inject-bit: invalid ROW %q: %v", args[1], err)
	}
	bit, err := strconv.Atoi(args[2])
	if err != nil {
		log.Fatalf("inject-bit: invalid BIT %q: %v", args[2], err)
	}

	page, err := dev.DebugPageLookup(sector)
	if err != nil {
		log.Fatalf("inject-bit: %v", err)
	}
	byteOff := row*16 + bit/8
	if byteOff < 0 || byteOff >= ptree.PageSize {
		log.Fatalf("inject-bit: row %d bit %d is outside the page", row, bit)
	}
	page.Data[byteOff] ^= 1 << uint(bit%8)
	fmt.Fprintf(os.Stdout, "flipped row=%d bit=%d in page containing sector %d (CodeSet left untouched)\n", row, bit, sector)
}

func cmdStats(dev *blockdev.Device) {
	s := dev.Stats().Snapshot()
	fmt.Printf("recoverable_corrections: %d\n", s.RecoverableCorrections)
	fmt.Printf("unrecoverable_events:    %d\n", s.UnrecoverableEvents)
	fmt.Printf("sectors_read:            %d\n", s.SectorsRead)
	fmt.Printf("sectors_written:         %d\n", s.SectorsWritten)
}
