package ledger

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/pda-provisioner/pkg/ledger/account"
	"github.com/code-payments/pda-provisioner/pkg/solana"
)

type accountState struct {
	lamports uint64
	data     []byte
	owner    ed25519.PublicKey
}

func stateOf(info *AccountInfo) accountState {
	return accountState{
		lamports: info.Lamports,
		data:     append([]byte(nil), info.Data...),
		owner:    append(ed25519.PublicKey(nil), info.Owner...),
	}
}

func (s accountState) equals(info *AccountInfo) bool {
	return s.lamports == info.Lamports &&
		bytes.Equal(s.data, info.Data) &&
		bytes.Equal(s.owner, info.Owner)
}

type entry struct {
	info *AccountInfo

	// record is the persisted account, or nil if the account does not exist.
	record *account.Record

	// loaded is the state as read from the store. checkpoint is the state the
	// program is accountable for, advanced whenever the runtime itself
	// modifies the account on the program's behalf.
	loaded     accountState
	checkpoint accountState
}

// workingSet is the set of accounts an instruction executes against.
type workingSet struct {
	handles []*AccountInfo
	entries []*entry
	byKey   map[string]*entry
}

func newWorkingSet() *workingSet {
	return &workingSet{
		byKey: make(map[string]*entry),
	}
}

func (w *workingSet) add(meta solana.AccountMeta, record *account.Record) error {
	key := base58.Encode(meta.PublicKey)
	if existing, ok := w.byKey[key]; ok {
		existing.info.IsSigner = existing.info.IsSigner || meta.IsSigner
		existing.info.IsWritable = existing.info.IsWritable || meta.IsWritable
		w.handles = append(w.handles, existing.info)
		return nil
	}

	info := &AccountInfo{
		Key:        append(ed25519.PublicKey(nil), meta.PublicKey...),
		IsSigner:   meta.IsSigner,
		IsWritable: meta.IsWritable,
		Owner:      make(ed25519.PublicKey, ed25519.PublicKeySize),
	}
	if record != nil {
		owner, err := base58.Decode(record.Owner)
		if err != nil {
			return errors.Wrapf(err, "invalid owner for account %s", record.Address)
		}

		info.Lamports = record.Lamports
		info.Data = append([]byte(nil), record.Data...)
		info.Owner = owner
		info.Executable = record.Executable
	}

	e := &entry{
		info:       info,
		record:     record,
		loaded:     stateOf(info),
		checkpoint: stateOf(info),
	}
	w.byKey[key] = e
	w.entries = append(w.entries, e)
	w.handles = append(w.handles, info)
	return nil
}

func (w *workingSet) entryFor(info *AccountInfo) (*entry, bool) {
	if info == nil {
		return nil, false
	}

	e, ok := w.byKey[base58.Encode(info.Key)]
	if !ok || e.info != info {
		return nil, false
	}
	return e, true
}

// verify enforces the host's account rules on everything the program changed
// since the last checkpoint.
func (w *workingSet) verify(program ed25519.PublicKey) error {
	var before, after uint64
	for _, e := range w.entries {
		info := e.info
		pre := e.checkpoint

		before += pre.lamports
		after += info.Lamports

		if pre.equals(info) {
			continue
		}

		if !info.IsWritable {
			if pre.lamports != info.Lamports {
				return solana.InstructionErrorReadonlyLamportChange
			}
			return solana.InstructionErrorReadonlyDataModified
		}

		if !bytes.Equal(pre.owner, info.Owner) {
			return solana.InstructionErrorModifiedProgramID
		}

		if len(pre.data) != len(info.Data) {
			return solana.InstructionErrorAccountDataSizeChanged
		}

		if !bytes.Equal(pre.data, info.Data) && !bytes.Equal(pre.owner, program) {
			return solana.InstructionErrorExternalAccountDataModified
		}
	}

	if before != after {
		return solana.InstructionErrorUnbalancedInstruction
	}

	return nil
}

// changes returns the records that must be persisted for the instruction's
// effects to land.
func (w *workingSet) changes() []*account.Record {
	var res []*account.Record
	for _, e := range w.entries {
		if e.loaded.equals(e.info) {
			continue
		}

		var record account.Record
		if e.record != nil {
			record = e.record.Clone()
		} else {
			record.Address = base58.Encode(e.info.Key)
		}

		record.Owner = base58.Encode(e.info.Owner)
		record.Lamports = e.info.Lamports
		record.Data = append([]byte(nil), e.info.Data...)
		record.Executable = e.info.Executable

		res = append(res, &record)
	}
	return res
}
