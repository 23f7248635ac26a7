package program

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIdempotentATAInstruction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	inst, ata, err := NewCreateIdempotentATAInstruction(payer, payer, NativeMint, solana.TokenProgramID)
	require.NoError(t, err)

	want, _, err := solana.FindAssociatedTokenAddress(payer, NativeMint)
	require.NoError(t, err)
	assert.Equal(t, want, ata)

	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, inst.ProgramID())
	data, err := inst.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)

	metas := inst.Accounts()
	require.Len(t, metas, 6)
	assert.True(t, metas[0].IsSigner)
	assert.Equal(t, ata, metas[1].PublicKey)
	assert.True(t, metas[1].IsWritable)
	assert.Equal(t, NativeMint, metas[3].PublicKey)
	assert.Equal(t, solana.TokenProgramID, metas[5].PublicKey)
}
