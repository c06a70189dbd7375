package main

import (
	"flag"
	"fmt"
	"kaychat/repositories"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "", "Path to the transcript badger DB")
	sessionID := flag.String("session", "", "Only show lines recorded by this connection id")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("missing -db")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	repo := repositories.NewTranscriptRepository(db, slog.New(slog.DiscardHandler), nil)
	var records []repositories.TranscriptRecord
	if *sessionID != "" {
		records, err = repo.List(*sessionID)
	} else {
		records, err = repo.ListAll()
	}
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Connection", "Sender", "Body"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, r := range records {
		// First 8 characters are enough to tell connections apart.
		displayID := r.SessionID
		if len(displayID) > 8 {
			displayID = displayID[:8]
		}
		table.Append([]string{
			r.At.Format("2006-01-02 15:04:05"),
			displayID,
			r.Sender,
			r.Body,
		})
	}
	table.Render()
	fmt.Printf("%d line(s)\n", len(records))
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		// A client killed mid-write leaves a log that only a writable open can truncate.
		repaired, rerr := badger.Open(badger.DefaultOptions(path).WithLogger(nil).WithBypassLockGuard(true))
		if rerr != nil {
			return nil, fmt.Errorf("repair failed: %w", rerr)
		}
		_ = repaired.Close()
		return badger.Open(opts)
	}
	return db, err
}
