// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authority

import (
	"fmt"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

// Role is a capability granted to an address.
type Role uint8

const (
	RoleAdmin Role = iota + 1
	RoleEmergency
	RoleRecoveryAdmin
	RoleTreasurer
)

// Roles lists all known roles.
var Roles = []Role{RoleAdmin, RoleEmergency, RoleRecoveryAdmin, RoleTreasurer}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleEmergency:
		return "emergency"
	case RoleRecoveryAdmin:
		return "recovery-admin"
	case RoleTreasurer:
		return "treasurer"
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// ParseRole is the inverse of Role.String.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Policy answers capability and pause queries. Every mutating entry point consults it.
type Policy interface {
	HasRole(role Role, addr thor.Address) (bool, error)
	IsPaused() (bool, error)
}

var (
	slotRoles  = thor.BytesToBytes32([]byte("roles"))
	slotPaused = thor.BytesToBytes32([]byte("paused"))
)

var _ Policy = (*Authority)(nil)

// Authority is the state backed role registry and pause switch.
type Authority struct {
	roles  *solidity.Mapping[thor.Bytes32, bool]
	paused *solidity.Slot[bool]
}

// New create a new instance.
func New(addr thor.Address, state *state.State) *Authority {
	sctx := solidity.NewContext(addr, state)
	return &Authority{
		roles:  solidity.NewMapping[thor.Bytes32, bool](sctx, slotRoles),
		paused: solidity.NewSlot[bool](sctx, slotPaused),
	}
}

func roleKey(role Role, addr thor.Address) thor.Bytes32 {
	return thor.Blake2b([]byte{byte(role)}, addr.Bytes())
}

// HasRole returns whether addr holds the role.
func (a *Authority) HasRole(role Role, addr thor.Address) (bool, error) {
	return a.roles.Get(roleKey(role, addr))
}

// Grant grants the role to addr. It returns false if addr already holds it.
func (a *Authority) Grant(role Role, addr thor.Address) (bool, error) {
	has, err := a.HasRole(role, addr)
	if err != nil || has {
		return false, err
	}
	return true, a.roles.Set(roleKey(role, addr), true)
}

// Revoke revokes the role from addr. It returns false if addr does not hold it.
func (a *Authority) Revoke(role Role, addr thor.Address) (bool, error) {
	has, err := a.HasRole(role, addr)
	if err != nil || !has {
		return false, err
	}
	return true, a.roles.Set(roleKey(role, addr), false)
}

// IsPaused returns whether mutating entry points are suspended.
func (a *Authority) IsPaused() (bool, error) {
	return a.paused.Get()
}

// SetPaused suspends or resumes mutating entry points.
func (a *Authority) SetPaused(paused bool) error {
	return a.paused.Set(paused)
}
