package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbackRoundTrip(t *testing.T) {
	data := encodeCallback(cbAdvance, "17", "preparing")
	cb := parseCallback(data)

	assert.Equal(t, cbAdvance, cb.verb)
	assert.Equal(t, int64(17), cb.int64Arg(0))
	assert.Equal(t, "preparing", cb.arg(1))
}

func TestCallbackNoArgs(t *testing.T) {
	cb := parseCallback(cbModsDone)
	assert.Equal(t, cbModsDone, cb.verb)
	assert.Empty(t, cb.args)
	assert.Equal(t, "", cb.arg(0))
	assert.Zero(t, cb.int64Arg(0))
}

func TestCallbackCartLineKey(t *testing.T) {
	// line keys use '|' and ',' and must survive as one arg
	key := "3|m|10,12"
	cb := parseCallback(encodeCallback(cbIncLine, key))
	assert.Equal(t, key, cb.arg(0))
}
