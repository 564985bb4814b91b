// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/thor"
)

// Config holds the governable parameters written at genesis. Amounts accept decimal or 0x hex.
type Config struct {
	ActionDelay       uint64                `yaml:"actionDelay"`
	MaxDailyStake     *math.HexOrDecimal256 `yaml:"maxDailyStake"`
	VotingPeriod      uint64                `yaml:"votingPeriod"`
	ProposalThreshold *math.HexOrDecimal256 `yaml:"proposalThreshold"`
	MinimumQuorum     *math.HexOrDecimal256 `yaml:"minimumQuorum"`
	ExecutionDelay    uint64                `yaml:"executionDelay"`
	RecoveryDelay     uint64                `yaml:"recoveryDelay"`
	CooldownPeriod    uint64                `yaml:"cooldownPeriod"`
}

// DefaultConfig returns the initial values of thor/params.go.
func DefaultConfig() *Config {
	return &Config{
		ActionDelay:       thor.InitialActionDelay.Uint64(),
		MaxDailyStake:     (*math.HexOrDecimal256)(new(big.Int).Set(thor.InitialMaxDailyStake)),
		VotingPeriod:      thor.InitialVotingPeriod.Uint64(),
		ProposalThreshold: (*math.HexOrDecimal256)(new(big.Int).Set(thor.InitialProposalThreshold)),
		MinimumQuorum:     (*math.HexOrDecimal256)(new(big.Int).Set(thor.InitialMinimumQuorum)),
		ExecutionDelay:    thor.InitialExecutionDelay.Uint64(),
		RecoveryDelay:     thor.InitialRecoveryDelay.Uint64(),
		CooldownPeriod:    thor.InitialCooldownPeriod.Uint64(),
	}
}

// LoadConfig reads a yaml file over the defaults. Keys missing in the file keep their default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return cfg, cfg.Validate()
}

// Validate rejects values no ledger could run with.
func (c *Config) Validate() error {
	switch {
	case c.MaxDailyStake == nil || (*big.Int)(c.MaxDailyStake).Sign() <= 0:
		return errors.New("maxDailyStake must be positive")
	case c.ProposalThreshold == nil || (*big.Int)(c.ProposalThreshold).Sign() < 0:
		return errors.New("proposalThreshold must not be negative")
	case c.MinimumQuorum == nil || (*big.Int)(c.MinimumQuorum).Sign() < 0:
		return errors.New("minimumQuorum must not be negative")
	case c.VotingPeriod == 0:
		return errors.New("votingPeriod must be positive")
	}
	for _, d := range []struct {
		name  string
		value uint64
	}{
		{"actionDelay", c.ActionDelay},
		{"votingPeriod", c.VotingPeriod},
		{"executionDelay", c.ExecutionDelay},
		{"recoveryDelay", c.RecoveryDelay},
		{"cooldownPeriod", c.CooldownPeriod},
	} {
		if d.value > thor.MaxDuration {
			return errors.Errorf("%s exceeds %d seconds", d.name, thor.MaxDuration)
		}
	}
	return nil
}

// Apply writes the config into params.
func (c *Config) Apply(p *params.Params) error {
	values := []struct {
		key   thor.Bytes32
		value *big.Int
	}{
		{thor.KeyActionDelay, new(big.Int).SetUint64(c.ActionDelay)},
		{thor.KeyMaxDailyStake, (*big.Int)(c.MaxDailyStake)},
		{thor.KeyVotingPeriod, new(big.Int).SetUint64(c.VotingPeriod)},
		{thor.KeyProposalThreshold, (*big.Int)(c.ProposalThreshold)},
		{thor.KeyMinimumQuorum, (*big.Int)(c.MinimumQuorum)},
		{thor.KeyExecutionDelay, new(big.Int).SetUint64(c.ExecutionDelay)},
		{thor.KeyRecoveryDelay, new(big.Int).SetUint64(c.RecoveryDelay)},
		{thor.KeyCooldownPeriod, new(big.Int).SetUint64(c.CooldownPeriod)},
	}
	for _, v := range values {
		if err := p.Set(v.key, v.value); err != nil {
			return errors.Wrapf(err, "set param %v", v.key)
		}
	}
	return nil
}
