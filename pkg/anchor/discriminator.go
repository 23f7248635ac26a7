package anchor

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

// DiscriminatorSize is the length of an Anchor instruction or account discriminator.
const DiscriminatorSize = 8

// GetDiscriminator returns sha256("<namespace>:<name>")[:8].
// Instructions use the "global" namespace, accounts use "account".
func GetDiscriminator(namespace string, name string) []byte {
	h := sha256.Sum256([]byte(namespace + ":" + name))
	out := make([]byte, DiscriminatorSize)
	copy(out, h[:DiscriminatorSize])
	return out
}

// InstructionDiscriminator is shorthand for GetDiscriminator("global", name).
func InstructionDiscriminator(name string) []byte {
	return GetDiscriminator("global", name)
}

// AccountDiscriminator is shorthand for GetDiscriminator("account", name).
func AccountDiscriminator(name string) []byte {
	return GetDiscriminator("account", name)
}

// AccountDiscriminatorBase58 encodes the account discriminator the way
// getProgramAccounts memcmp filters expect it.
func AccountDiscriminatorBase58(name string) string {
	return base58.Encode(AccountDiscriminator(name))
}
