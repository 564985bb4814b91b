// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// seq orders events by block number then index within the block.
const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY NOT NULL,
	name TEXT NOT NULL,
	account BLOB(20) NOT NULL,
	subject INTEGER NOT NULL,
	blockNumber INTEGER NOT NULL,
	blockTime INTEGER NOT NULL,
	data BLOB
);

CREATE INDEX IF NOT EXISTS idx_event_name ON event(name, seq);
CREATE INDEX IF NOT EXISTS idx_event_account ON event(account, seq);
CREATE INDEX IF NOT EXISTS idx_event_time ON event(blockTime);`
