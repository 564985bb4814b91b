// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/thor"
)

const insertEventQuery = "INSERT INTO event(seq, name, account, subject, blockNumber, blockTime, data) VALUES(?, ?, ?, ?, ?, ?, ?)"

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmtCache     *stmtCache

	mu   sync.Mutex
	last sequence
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	dsn := path
	if path != ":memory:" {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// sqlite allows a single writer, and a memory db lives in one connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	last := sequence(-1)
	var maxSeq sql.NullInt64
	if err := db.QueryRow("SELECT MAX(seq) FROM event").Scan(&maxSeq); err != nil {
		return nil, errors.Wrap(err, "load sequence")
	}
	if maxSeq.Valid {
		last = sequence(maxSeq.Int64)
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmtCache:     newStmtCache(db),
		last:          last,
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the version of the linked sqlite library.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// WriteEvents appends the events of one committed call in a single transaction.
func (db *LogDB) WriteEvents(events []*staker.Event) error {
	if len(events) == 0 {
		return nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	stmt, err := db.stmtCache.Prepare(insertEventQuery)
	if err != nil {
		return err
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	seq := db.last
	for _, ev := range events {
		seq = seq.next(ev.BlockNumber)
		var data []byte
		if len(ev.Data) > 0 {
			if data, err = json.Marshal(ev.Data); err != nil {
				tx.Rollback()
				return err
			}
		}
		if _, err := tx.Stmt(stmt).Exec(
			int64(seq),
			ev.Name,
			ev.Account.Bytes(),
			ev.Subject,
			ev.BlockNumber,
			ev.BlockTime,
			data,
		); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "insert %s", ev.Name)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	db.last = seq
	metricEventsWritten().Add(int64(len(events)))
	return nil
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT seq, name, account, subject, blockTime, data FROM event ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT seq, name, account, subject, blockTime, data FROM event WHERE 1"
	if filter.Range != nil {
		if filter.Range.Unit == Time {
			args = append(args, filter.Range.From)
			stmt += " AND blockTime >= ?"
			if filter.Range.To >= filter.Range.From {
				args = append(args, filter.Range.To)
				stmt += " AND blockTime <= ?"
			}
		} else {
			if filter.Range.From > math.MaxUint32 {
				return nil, nil
			}
			args = append(args, int64(newSequence(uint32(filter.Range.From), 0)))
			stmt += " AND seq >= ?"
			if filter.Range.To >= filter.Range.From {
				to := min(filter.Range.To, math.MaxUint32)
				args = append(args, int64(newSequence(uint32(to), math.MaxInt32)))
				stmt += " AND seq <= ?"
			}
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Name != nil {
			args = append(args, *criteria.Name)
			stmt += " AND name = ?"
		}
		if criteria.Account != nil {
			args = append(args, criteria.Account.Bytes())
			stmt += " AND account = ?"
		}
		if criteria.Subject != nil {
			args = append(args, *criteria.Subject)
			stmt += " AND subject = ?"
		}
		stmt += " )"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq       int64
			name      string
			account   []byte
			subject   uint64
			blockTime uint64
			data      []byte
		)
		if err := rows.Scan(&seq, &name, &account, &subject, &blockTime, &data); err != nil {
			return nil, err
		}
		ev := &Event{
			BlockNumber: sequence(seq).BlockNumber(),
			Index:       sequence(seq).Index(),
			BlockTime:   blockTime,
			Name:        name,
			Account:     thor.BytesToAddress(account),
			Subject:     subject,
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &ev.Data); err != nil {
				return nil, errors.Wrap(err, "decode event data")
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
