package ledger

import (
	"errors"
	"strings"
)

var ErrUnassignedID = errors.New("warrior id not assigned")
var ErrReverted = errors.New("execution reverted")
var ErrNoContractCode = errors.New("no contract code at configured address")

// IsReverted reports whether an error came from the contract rejecting the
// call, as opposed to a transport failure. Geth and most providers only
// expose the revert as message text, so this is a substring scan, not a
// structural check.
func IsReverted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrReverted) {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}
