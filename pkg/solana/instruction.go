package solana

import (
	"encoding/binary"

	"github.com/mr-tron/base58"
)

// Well-known program addresses.
const (
	SystemProgramID Address = "11111111111111111111111111111111"
	StakeProgramID  Address = "Stake11111111111111111111111111111111111111"
)

// Instruction indices within their owning programs.
const (
	systemTransferIndex uint32 = 2
	stakeAuthorizeIndex uint32 = 1
	stakeSplitIndex     uint32 = 3
)

// StakeAuthorize selects which stake authority an authorize instruction
// reassigns.
type StakeAuthorize uint32

const (
	AuthorizeStaker     StakeAuthorize = 0
	AuthorizeWithdrawer StakeAuthorize = 1
)

// AccountMeta declares how an instruction touches an account.
type AccountMeta struct {
	Address  Address
	Signer   bool
	Writable bool
}

// Instruction is a single program invocation.
type Instruction struct {
	Program  Address
	Accounts []AccountMeta
	Data     []byte
}

// Transfer moves lamports from one system account to another.
func Transfer(from, to Address, lamports uint64) Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], systemTransferIndex)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return Instruction{
		Program: SystemProgramID,
		Accounts: []AccountMeta{
			{Address: from, Signer: true, Writable: true},
			{Address: to, Writable: true},
		},
		Data: data,
	}
}

// StakeSplit carves lamports out of source into a new, uninitialized stake
// account. The split account must co-sign.
func StakeSplit(source Address, authority Address, lamports uint64, split Address) Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], stakeSplitIndex)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return Instruction{
		Program: StakeProgramID,
		Accounts: []AccountMeta{
			{Address: source, Writable: true},
			{Address: split, Signer: true, Writable: true},
			{Address: authority, Signer: true},
		},
		Data: data,
	}
}

// StakeAuthorizeInstruction reassigns the staker or withdrawer authority on
// a stake account to newAuthority.
func StakeAuthorizeInstruction(account Address, currentAuthority Address, newAuthority Address, role StakeAuthorize) Instruction {
	data := make([]byte, 40)
	binary.LittleEndian.PutUint32(data[0:4], stakeAuthorizeIndex)
	if raw, err := base58.Decode(string(newAuthority)); err == nil && len(raw) == 32 {
		copy(data[4:36], raw)
	}
	binary.LittleEndian.PutUint32(data[36:40], uint32(role))
	return Instruction{
		Program: StakeProgramID,
		Accounts: []AccountMeta{
			{Address: account, Writable: true},
			{Address: currentAuthority, Signer: true},
		},
		Data: data,
	}
}
