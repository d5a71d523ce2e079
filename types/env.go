package types

//---------- Env ---------

// Env is the execution environment handed to a guest's handle entry point.
//
// Env are json encoded to a byte slice before passing to the wasm contract.
type Env struct {
	Block    BlockInfo    `json:"block"`
	Message  MessageInfo  `json:"message"`
	Contract ContractInfo `json:"contract"`
	// ContractKey is reserved for sealed storage and is left empty by this host.
	ContractKey      string `json:"contract_key,omitempty"`
	ContractCodeHash string `json:"contract_code_hash"`
}

type BlockInfo struct {
	// block height this transaction is executed
	Height uint64 `json:"height"`
	// absolute time of the block creation in seconds since the UNIX epoch
	Time    uint64 `json:"time"`
	ChainID string `json:"chain_id"`
}

type MessageInfo struct {
	// Bech32 encoded address executing the contract
	Sender HumanAddress `json:"sender"`
	// Amount of funds send to the contract along with this message
	SentFunds Array[Coin] `json:"sent_funds"`
}

type ContractInfo struct {
	// Bech32 encoded address of the contract
	Address HumanAddress `json:"address"`
}
