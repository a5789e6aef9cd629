// Package store persists the ledger to a single human-readable JSON
// file. Saves overwrite the whole file through a temp-file rename so a
// crash mid-write never corrupts the previous snapshot, and loads never
// fail hard: a missing or unreadable file degrades to an empty ledger.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/minibank/minibank/internal/models"
)

func init() {
	// Balances and amounts serialize as JSON numbers, matching the
	// data files written by earlier versions.
	decimal.MarshalJSONWithoutQuotes = true
}

// firstAccountNumber mirrors the ledger's issuance floor for fix-ups.
const firstAccountNumber = 10001

// Store reads and writes ledger snapshots at a fixed path.
type Store struct {
	path string
	log  *logrus.Logger
}

// New returns a store backed by the file at path.
func New(path string, log *logrus.Logger) *Store {
	return &Store{path: path, log: log}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the snapshot from disk. A missing file yields an empty
// snapshot with the counter at its starting value; malformed content is
// logged at warning level and likewise degrades to an empty snapshot.
// Load never returns an error: committed in-memory state must never be
// blocked by bad data on disk.
func (s *Store) Load() models.Snapshot {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return emptySnapshot()
	}
	if err != nil {
		s.log.Warnf("Failed to read data file %s, starting empty: %v", s.path, err)
		return emptySnapshot()
	}

	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.log.Warnf("Corrupt data file %s, starting empty: %v", s.path, err)
		return emptySnapshot()
	}
	return s.fixup(snap)
}

// fixup normalizes a loaded snapshot: accounts learn their map key,
// transaction lists are never nil, and the issuance counter is raised
// above every number already on file.
func (s *Store) fixup(snap models.Snapshot) models.Snapshot {
	if snap.Accounts == nil {
		snap.Accounts = make(map[models.AccountNumber]*models.Account)
	}
	maxIssued := int64(0)
	for n, a := range snap.Accounts {
		if a == nil {
			delete(snap.Accounts, n)
			s.log.Warnf("Dropping empty account entry %s from data file", n)
			continue
		}
		a.Number = n
		if a.Transactions == nil {
			a.Transactions = []models.Transaction{}
		}
		if v, err := strconv.ParseInt(string(n), 10, 64); err == nil && v > maxIssued {
			maxIssued = v
		}
	}
	if snap.NextAccountNumber < firstAccountNumber {
		snap.NextAccountNumber = firstAccountNumber
	}
	if snap.NextAccountNumber <= maxIssued {
		snap.NextAccountNumber = maxIssued + 1
	}
	return snap
}

// Save writes the snapshot to disk, replacing any previous content.
// The write goes to a temp file first and is renamed into place.
func (s *Store) Save(snap models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

func emptySnapshot() models.Snapshot {
	return models.Snapshot{
		Accounts:          make(map[models.AccountNumber]*models.Account),
		NextAccountNumber: firstAccountNumber,
	}
}
