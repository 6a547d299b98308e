package cli

import (
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// field is a single line of text output.
type field struct {
	name  string
	value interface{}
}

type result interface {
	fields() []field
}

func (o *rootOptions) print(cmd *cobra.Command, r result) error {
	out := cmd.OutOrStdout()

	if o.v.GetString(formatFlag) == formatJSON {
		encoded, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return errors.Wrap(err, "error encoding output")
		}
		_, err = fmt.Fprintln(out, string(encoded))
		return err
	}

	for _, f := range r.fields() {
		if _, err := fmt.Fprintf(out, "%s: %v\n", f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

type deriveResult struct {
	Program   string `json:"program"`
	Requester string `json:"requester"`
	Address   string `json:"address"`
	Bump      uint8  `json:"bump"`
}

func (r *deriveResult) fields() []field {
	return []field{
		{"program", r.Program},
		{"requester", r.Requester},
		{"address", r.Address},
		{"bump", r.Bump},
	}
}

type rentResult struct {
	Size     uint64 `json:"size"`
	Lamports uint64 `json:"lamports"`
	Source   string `json:"source"`
}

func (r *rentResult) fields() []field {
	return []field{
		{"size", r.Size},
		{"lamports", r.Lamports},
		{"source", r.Source},
	}
}

type recordResult struct {
	Address       string `json:"address"`
	Owner         string `json:"owner"`
	Lamports      uint64 `json:"lamports"`
	IsInitialized bool   `json:"is_initialized"`
	Balance       uint64 `json:"balance"`
}

func (r *recordResult) fields() []field {
	return []field{
		{"address", r.Address},
		{"owner", r.Owner},
		{"lamports", r.Lamports},
		{"is_initialized", r.IsInitialized},
		{"balance", r.Balance},
	}
}

type simulateResult struct {
	Program           string       `json:"program"`
	Requester         string       `json:"requester"`
	Bump              uint8        `json:"bump"`
	RequesterLamports uint64       `json:"requester_lamports"`
	Storage           recordResult `json:"storage"`
}

func (r *simulateResult) fields() []field {
	return append([]field{
		{"program", r.Program},
		{"requester", r.Requester},
		{"bump", r.Bump},
		{"requester_lamports", r.RequesterLamports},
	}, r.Storage.fields()...)
}

func encodeKey(key []byte) string {
	return base58.Encode(key)
}
