package main

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"time"
)

// CounterSnapshot mirrors the on-disk snapshot layout so the script stays
// buildable on its own.
type CounterSnapshot struct {
	Application        string
	StorageName        string
	StartTime          time.Time
	Requests           int64
	Errors             int64
	DurationsSumMillis int64
	MaxDurationMillis  int64
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts/snapdump/main.go <snapshot.ser.gz>")
		os.Exit(1)
	}
	snapshotFile := os.Args[1]

	file, err := os.Open(snapshotFile)
	if err != nil {
		log.Fatalf("Unable to open file: %v", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		log.Fatalf("Unable to decompress file: %v", err)
	}
	defer gz.Close()

	var snap CounterSnapshot
	if err := gob.NewDecoder(gz).Decode(&snap); err != nil {
		log.Fatalf("Failed to decode snapshot: %v", err)
	}

	fmt.Println("Decoded Counter Snapshot:")
	fmt.Printf("%+v\n", snap)
}
