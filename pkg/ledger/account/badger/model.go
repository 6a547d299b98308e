package badger

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/code-payments/pda-provisioner/pkg/ledger/account"
)

var (
	accountPrefix = []byte("ledger:account:")
	lastIdKey     = []byte("ledger:meta:last_account_id")
)

type model struct {
	Id         uint64    `json:"id"`
	Address    string    `json:"address"`
	Owner      string    `json:"owner"`
	Lamports   uint64    `json:"lamports"`
	Data       []byte    `json:"data"`
	Executable bool      `json:"executable"`
	Version    uint64    `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
}

func toModel(r *account.Record) *model {
	return &model{
		Id:         r.Id,
		Address:    r.Address,
		Owner:      r.Owner,
		Lamports:   r.Lamports,
		Data:       append([]byte(nil), r.Data...),
		Executable: r.Executable,
		Version:    r.Version,
		CreatedAt:  r.CreatedAt,
	}
}

func fromModel(m *model) *account.Record {
	return &account.Record{
		Id:         m.Id,
		Address:    m.Address,
		Owner:      m.Owner,
		Lamports:   m.Lamports,
		Data:       append([]byte(nil), m.Data...),
		Executable: m.Executable,
		Version:    m.Version,
		CreatedAt:  m.CreatedAt,
	}
}

func accountKey(address string) []byte {
	return append(append([]byte(nil), accountPrefix...), address...)
}

func dbGet(txn *badger.Txn, address string) (*model, error) {
	item, err := txn.Get(accountKey(address))
	if err == badger.ErrKeyNotFound {
		return nil, account.ErrAccountNotFound
	} else if err != nil {
		return nil, err
	}

	var m model
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &m)
	})
	if err != nil {
		return nil, errors.Wrap(err, "error decoding account")
	}
	return &m, nil
}

func (m *model) dbPut(txn *badger.Txn) error {
	encoded, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "error encoding account")
	}
	return txn.Set(accountKey(m.Address), encoded)
}

func (m *model) dbCreate(txn *badger.Txn) error {
	_, err := dbGet(txn, m.Address)
	switch err {
	case nil:
		return account.ErrAccountExists
	case account.ErrAccountNotFound:
	default:
		return err
	}

	id, err := nextId(txn)
	if err != nil {
		return err
	}

	m.Id = id
	m.Version = 1
	m.CreatedAt = time.Now().UTC()
	return m.dbPut(txn)
}

func (m *model) dbUpdate(txn *badger.Txn) error {
	existing, err := dbGet(txn, m.Address)
	if err != nil {
		return err
	}
	if m.Version == 0 || existing.Version != m.Version {
		return account.ErrStaleVersion
	}

	m.Id = existing.Id
	m.CreatedAt = existing.CreatedAt
	m.Version++
	return m.dbPut(txn)
}

func nextId(txn *badger.Txn) (uint64, error) {
	var last uint64

	item, err := txn.Get(lastIdKey)
	switch err {
	case nil:
		err = item.Value(func(val []byte) error {
			if len(val) != 8 {
				return errors.New("invalid account id counter")
			}
			last = binary.BigEndian.Uint64(val)
			return nil
		})
		if err != nil {
			return 0, err
		}
	case badger.ErrKeyNotFound:
	default:
		return 0, err
	}

	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, last+1)
	if err := txn.Set(lastIdKey, next); err != nil {
		return 0, err
	}
	return last + 1, nil
}

func dbCount(txn *badger.Txn) (uint64, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = accountPrefix

	iter := txn.NewIterator(opts)
	defer iter.Close()

	var count uint64
	for iter.Rewind(); iter.Valid(); iter.Next() {
		count++
	}
	return count, nil
}
