package api

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBech32RoundTrip(t *testing.T) {
	goapi := NewBech32API("wasm")
	canonical := bytes.Repeat([]byte{0x42}, 20)

	human, err := goapi.HumanizeAddress(canonical)
	require.NoError(t, err)
	assert.Contains(t, human, "wasm1")

	back, err := goapi.CanonicalizeAddress(human)
	require.NoError(t, err)
	assert.Equal(t, canonical, back)
}

func TestBech32Rejects(t *testing.T) {
	goapi := NewBech32API("wasm")
	other, err := NewBech32API("cosmos").HumanizeAddress(bytes.Repeat([]byte{1}, 20))
	require.NoError(t, err)

	specs := map[string]struct {
		human  string
		target error
	}{
		"wrong prefix": {human: other, target: ErrWrongPrefix},
		"not bech32":   {human: "hello world"},
		"empty":        {human: ""},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			_, err := goapi.CanonicalizeAddress(spec.human)
			require.Error(t, err)
			if spec.target != nil {
				assert.ErrorIs(t, err, spec.target)
			}
		})
	}

	_, err = goapi.HumanizeAddress(nil)
	assert.ErrorIs(t, err, ErrInvalidCanonical)
	_, err = goapi.HumanizeAddress(make([]byte, MaxCanonicalLength+1))
	assert.ErrorIs(t, err, ErrInvalidCanonical)
}

func TestMockApi(t *testing.T) {
	human := "foobar"
	canon, err := MockCanonicalAddress(human)
	require.NoError(t, err)
	assert.Equal(t, CanonicalLength, len(canon))

	recover, err := MockHumanAddress(canon)
	require.NoError(t, err)
	assert.Equal(t, recover, human)

	_, err = MockCanonicalAddress("")
	assert.Error(t, err)
	_, err = MockHumanAddress([]byte("short"))
	assert.Error(t, err)
}

func TestMockQuerier(t *testing.T) {
	q := NewMockQuerier()
	require.NoError(t, q.Set(map[string]string{"balance": "alice"}, map[string]string{"amount": "7"}))

	res, err := q.Query([]byte(`{"balance":"alice"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"7"}`, string(res))

	_, err = q.Query([]byte(`{"balance":"bob"}`))
	assert.Error(t, err)
}
