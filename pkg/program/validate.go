package program

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var ErrMissingAccount = errors.New("missing account")

// checkAccounts reports the first named account that is unset.
func checkAccounts(names []string, metas solana.AccountMetaSlice) error {
	if len(metas) < len(names) {
		return fmt.Errorf("%w: expected %d accounts, got %d", ErrMissingAccount, len(names), len(metas))
	}
	for i, name := range names {
		if metas[i] == nil || metas[i].PublicKey.IsZero() {
			return fmt.Errorf("%w: %s", ErrMissingAccount, name)
		}
	}
	return nil
}
