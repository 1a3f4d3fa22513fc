package arrayerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypesAreDistinguishableViaErrorsAs(t *testing.T) {
	err := NewOutOfRange("op", "bad index")

	var oor *OutOfRange
	assert.True(t, errors.As(err, &oor))
	assert.Equal(t, "op", oor.Op)

	var cv *ContractViolation
	assert.False(t, errors.As(err, &cv))
}

func TestErrorMessagesNameTheOperation(t *testing.T) {
	assert.Contains(t, NewContractViolation("blockcollection.Insert", "content must not be nil").Error(), "blockcollection.Insert")
	assert.Contains(t, NewOutOfRange("arraymap.BlockInfo", "index out of range").Error(), "arraymap.BlockInfo")
	assert.Contains(t, NewInternalInvariantViolation("arraymap.BlockInfo", "search terminated").Error(), "arraymap.BlockInfo")
}
