// Package chain runs a simulated Ethereum chain on a background engine and
// exposes it through a correlation-id request/reply bridge.
package chain

import (
	"encoding/json"
)

// Engine protocol commands
const (
	cmdInit            = "init"
	cmdSendAsync       = "sendAsync"
	cmdSendAsyncResult = "sendAsyncResult"
)

// errProviderNotInstantiated is the reply error for requests that reach an
// engine without a chain
const errProviderNotInstantiated = "Provider not instantiated"

// message is posted from the bridge to the engine
type message struct {
	Cmd   string          `json:"cmd"`
	Fork  string          `json:"fork,omitempty"`
	Query json.RawMessage `json:"query,omitempty"`
	Stamp uint64          `json:"stamp,omitempty"`
}

// result is posted from the engine back to the bridge
type result struct {
	Cmd    string          `json:"cmd"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Stamp  uint64          `json:"stamp"`
}

// Query is a single JSON-RPC style request against the simulated chain
type Query struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// NewQuery marshals params into a Query
func NewQuery(method string, params ...any) (Query, error) {
	q := Query{Method: method, Params: make([]json.RawMessage, 0, len(params))}
	for _, p := range params {
		raw, err := json.Marshal(p)
		if err != nil {
			return Query{}, err
		}
		q.Params = append(q.Params, raw)
	}
	return q, nil
}
