package api

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/CosmWasm/wasm2vm/types"
)

/***** Mock GoAPI ****/

// CanonicalLength is the length of addresses produced by MockCanonicalAddress.
const CanonicalLength = 32

// MockCanonicalAddress right-pads human with zero bytes.
func MockCanonicalAddress(human string) ([]byte, error) {
	if human == "" {
		return nil, errors.New("empty address")
	}
	if len(human) > CanonicalLength {
		return nil, errors.New("human encoding too long")
	}
	res := make([]byte, CanonicalLength)
	copy(res, human)
	return res, nil
}

// MockHumanAddress strips the zero padding added by MockCanonicalAddress.
func MockHumanAddress(canon []byte) (string, error) {
	if len(canon) != CanonicalLength {
		return "", errors.New("wrong canonical length")
	}
	cut := CanonicalLength
	for i, v := range canon {
		if v == 0 {
			cut = i
			break
		}
	}
	return string(canon[:cut]), nil
}

// NewMockAPI returns the padding address API.
func NewMockAPI() types.GoAPI {
	return types.GoAPI{
		HumanizeAddress:     MockHumanAddress,
		CanonicalizeAddress: MockCanonicalAddress,
	}
}

/***** Mock Querier ****/

// MockQuerier answers queries from a fixed table keyed by the raw request.
// Unknown requests fail.
type MockQuerier struct {
	Responses map[string][]byte
}

var _ types.Querier = (*MockQuerier)(nil)

// NewMockQuerier returns an empty MockQuerier.
func NewMockQuerier() *MockQuerier {
	return &MockQuerier{Responses: map[string][]byte{}}
}

// Set registers the answer for a request value, encoding both as JSON.
func (q *MockQuerier) Set(request, response interface{}) error {
	req, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "encoding request")
	}
	res, err := json.Marshal(response)
	if err != nil {
		return errors.Wrap(err, "encoding response")
	}
	q.Responses[string(req)] = res
	return nil
}

func (q *MockQuerier) Query(request []byte) ([]byte, error) {
	res, ok := q.Responses[string(request)]
	if !ok {
		return nil, errors.Newf("no mock response for %s", request)
	}
	return res, nil
}
