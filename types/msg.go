package types

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

//------- Results / Msgs -------------

// HandleResult is the envelope a guest returns from handle.
// Exactly one of Ok and Err is set.
type HandleResult struct {
	Ok  *HandleResponse `json:"Ok,omitempty"`
	Err *StdError       `json:"Err,omitempty"`
}

// HandleResponse defines the return value on a successful handle.
type HandleResponse struct {
	// Messages comes directly from the contract and is its request for action
	Messages Array[CosmosMsg] `json:"messages"`
	// Log contains key-value pairs the contract wants indexed
	Log Array[LogAttribute] `json:"log"`
	// Data is an optional binary result, base64 encoded in JSON
	Data []byte `json:"data,omitempty"`
}

// QueryResult is the envelope a guest returns from query. Ok holds the raw
// query response, base64 encoded in JSON.
type QueryResult struct {
	Ok  []byte    `json:"Ok,omitempty"`
	Err *StdError `json:"Err,omitempty"`
}

// MarshalJSON keeps an empty Ok response distinguishable from a missing one.
func (r QueryResult) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(struct {
			Err *StdError `json:"Err"`
		}{r.Err})
	}
	ok := r.Ok
	if ok == nil {
		ok = []byte{}
	}
	return json.Marshal(struct {
		Ok []byte `json:"Ok"`
	}{ok})
}

// LogAttribute is a key-value pair attached to a handle response.
type LogAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CosmosMsg is an action requested by a contract. Exactly one field is set.
type CosmosMsg struct {
	Bank   *BankMsg        `json:"bank,omitempty"`
	Wasm   *WasmMsg        `json:"wasm,omitempty"`
	Custom json.RawMessage `json:"custom,omitempty"`
}

type BankMsg struct {
	Send *SendMsg `json:"send,omitempty"`
}

// SendMsg contains instructions for a Cosmos-SDK/SendMsg
// It has a fixed interface here and should be converted into the proper SDK format before dispatching
type SendMsg struct {
	FromAddress string      `json:"from_address"`
	ToAddress   string      `json:"to_address"`
	Amount      Array[Coin] `json:"amount"`
}

type WasmMsg struct {
	Execute     *ExecuteMsg     `json:"execute,omitempty"`
	Instantiate *InstantiateMsg `json:"instantiate,omitempty"`
}

// ExecuteMsg is used to call another defined contract on this chain.
type ExecuteMsg struct {
	ContractAddr     string      `json:"contract_addr"`
	CallbackCodeHash string      `json:"callback_code_hash"`
	Msg              []byte      `json:"msg"`
	Send             Array[Coin] `json:"send"`
}

// InstantiateMsg will create a new contract instance from a previously uploaded CodeID.
type InstantiateMsg struct {
	CodeID           uint64      `json:"code_id"`
	CallbackCodeHash string      `json:"callback_code_hash"`
	Msg              []byte      `json:"msg"`
	Send             Array[Coin] `json:"send"`
	Label            string      `json:"label"`
}

// ErrMalformedResult is returned when a result envelope sets neither or both variants.
var ErrMalformedResult = errors.New("result must set exactly one of Ok and Err")

// ParseHandleResult decodes a handle envelope. A guest-reported error is
// returned as *StdError.
func ParseHandleResult(data []byte) (*HandleResponse, error) {
	var res HandleResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "decoding handle result")
	}
	switch {
	case res.Ok != nil && res.Err == nil:
		return res.Ok, nil
	case res.Err != nil && res.Ok == nil:
		return nil, res.Err
	default:
		return nil, ErrMalformedResult
	}
}

// ParseQueryResult decodes a query envelope. A guest-reported error is
// returned as *StdError.
func ParseQueryResult(data []byte) ([]byte, error) {
	var res QueryResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "decoding query result")
	}
	switch {
	case res.Err != nil && res.Ok == nil:
		return nil, res.Err
	case res.Err == nil && res.Ok != nil:
		return res.Ok, nil
	default:
		return nil, ErrMalformedResult
	}
}
