package pipeline

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"interactdapp/pkg/clmm"
	"interactdapp/pkg/layout"
	"interactdapp/pkg/lending"
	"interactdapp/pkg/pda"
	"interactdapp/pkg/program"
	"lukechampine.com/uint128"
)

var (
	testMint   = solana.MustPublicKeyFromBase58("4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU")
	devnetUSDC = solana.MustPublicKeyFromBase58("USDCoctVLVnvTXBEuP9s8hntucdJokbo17RwHuNXemT")
)

type fakeChain struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey][]byte
	fetchErr error
}

func newFakeChain() *fakeChain {
	return &fakeChain{accounts: map[solana.PublicKey][]byte{}}
}

func (f *fakeChain) GetAccountData(_ context.Context, account solana.PublicKey) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	data, ok := f.accounts[account]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return data, nil
}

func (f *fakeChain) set(account solana.PublicKey, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account] = data
}

type fakeSubmitter struct {
	submitted [][]solana.Instruction
	err       error
}

func (f *fakeSubmitter) Submit(_ context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	if f.err != nil {
		return solana.Signature{}, f.err
	}
	f.submitted = append(f.submitted, instructions)
	return solana.Signature{9}, nil
}

func (f *fakeSubmitter) last(t *testing.T) []solana.Instruction {
	t.Helper()
	require.NotEmpty(t, f.submitted)
	return f.submitted[len(f.submitted)-1]
}

type fakeConfirmer struct {
	waited []solana.Signature
	err    error
}

func (f *fakeConfirmer) WaitForSignature(_ context.Context, sig solana.Signature) error {
	f.waited = append(f.waited, sig)
	return f.err
}

func poolData(tickSpacing uint16, tickCurrent int32) []byte {
	buf := make([]byte, layout.ClmmPoolLayoutV2.Size())
	binary.LittleEndian.PutUint16(buf[235:], tickSpacing)
	binary.LittleEndian.PutUint32(buf[269:], uint32(tickCurrent))
	return buf
}

func tokenAccountData(mint, owner solana.PublicKey, amount uint64) []byte {
	buf := make([]byte, layout.TokenAccountSize)
	copy(buf[0:32], mint[:])
	copy(buf[32:64], owner[:])
	binary.LittleEndian.PutUint64(buf[64:72], amount)
	return buf
}

func ataOf(t *testing.T, owner, mint solana.PublicKey) solana.PublicKey {
	t.Helper()
	addr, err := pda.AssociatedTokenAddress(owner, mint, solana.TokenProgramID)
	require.NoError(t, err)
	return addr.Address
}

type harness struct {
	chain     *fakeChain
	submitter *fakeSubmitter
	payer     solana.PublicKey
	client    *Client
}

func newHarness(t *testing.T, opts ...Option) *harness {
	h := &harness{
		chain:     newFakeChain(),
		submitter: &fakeSubmitter{},
		payer:     solana.NewWallet().PublicKey(),
	}
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	h.client = New(h.chain, h.submitter, h.payer, opts...)
	return h
}

func TestResolveTickArray(t *testing.T) {
	h := newHarness(t)
	pool := solana.NewWallet().PublicKey()
	h.chain.set(pool, poolData(10, -100))

	got, err := h.client.ResolveTickArray(context.Background(), pool)
	require.NoError(t, err)
	assert.Equal(t, uint16(10), got.TickSpacing)
	assert.Equal(t, int32(-100), got.TickCurrent)
	assert.Equal(t, int32(-880), got.StartIndex)

	want, err := clmm.TickArrayAddress(pool, -880, clmm.RaydiumClmmProgramID)
	require.NoError(t, err)
	assert.Equal(t, want.Address, got.Address)
	assert.Equal(t, want.Bump, got.Bump)
}

func TestResolveTickArrayScriptLayout(t *testing.T) {
	h := newHarness(t, WithPoolLayout(layout.ClmmPoolLayoutV1))
	pool := solana.NewWallet().PublicKey()
	buf := make([]byte, layout.ClmmPoolLayoutV1.Size())
	binary.LittleEndian.PutUint16(buf[227:], 60)
	tickCurrent := int32(-1234)
	binary.LittleEndian.PutUint32(buf[261:], uint32(tickCurrent))
	h.chain.set(pool, buf)

	got, err := h.client.ResolveTickArray(context.Background(), pool)
	require.NoError(t, err)
	assert.Equal(t, uint16(60), got.TickSpacing)
	assert.Equal(t, int32(-1234), got.TickCurrent)
	assert.Equal(t, int32(-5280), got.StartIndex)
}

func TestResolveTickArrayErrors(t *testing.T) {
	h := newHarness(t, WithClmmProgram(clmm.RaydiumClmmDevnetProgramID))
	missing := solana.NewWallet().PublicKey()
	_, err := h.client.ResolveTickArray(context.Background(), missing)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	short := solana.NewWallet().PublicKey()
	h.chain.set(short, make([]byte, 100))
	_, err = h.client.ResolveTickArray(context.Background(), short)
	assert.ErrorIs(t, err, layout.ErrBufferTooShort)

	zero := solana.NewWallet().PublicKey()
	h.chain.set(zero, poolData(0, 10))
	_, err = h.client.ResolveTickArray(context.Background(), zero)
	assert.ErrorIs(t, err, clmm.ErrInvalidTickSpacing)

	boom := errors.New("rpc down")
	h.chain.fetchErr = boom
	_, err = h.client.ResolveTickArray(context.Background(), missing)
	assert.ErrorIs(t, err, boom)
}

func TestDepositEarn(t *testing.T) {
	confirmer := &fakeConfirmer{}
	h := newHarness(t, WithLendingMarket(lendingParams()), WithConfirmer(confirmer))
	acc, err := h.client.LendingAccounts()
	require.NoError(t, err)
	assert.Equal(t, h.payer, acc.User)
	h.chain.set(acc.UnderlyingTokenAccount, tokenAccountData(testMint, h.payer, 5_000_000))

	sig, err := h.client.DepositEarn(context.Background(), 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, solana.Signature{9}, sig)
	assert.Equal(t, []solana.Signature{sig}, confirmer.waited)

	instructions := h.submitter.last(t)
	require.Len(t, instructions, 2)
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, instructions[0].ProgramID())

	deposit, ok := instructions[1].(*program.DepositEarnInstruction)
	require.True(t, ok)
	assert.Equal(t, uint64(1_000_000), deposit.Amount)
	assert.Equal(t, acc.Vault, deposit.Accounts()[10].PublicKey)
}

func TestDepositEarnExistingFTokenAccount(t *testing.T) {
	h := newHarness(t, WithLendingMarket(lendingParams()))
	acc, err := h.client.LendingAccounts()
	require.NoError(t, err)
	h.chain.set(acc.UnderlyingTokenAccount, tokenAccountData(testMint, h.payer, 10))
	h.chain.set(acc.FTokenAccount, tokenAccountData(acc.FTokenMint, h.payer, 0))

	_, err = h.client.DepositEarn(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, h.submitter.last(t), 1)
}

func TestDepositEarnRejects(t *testing.T) {
	h := newHarness(t, WithLendingMarket(lendingParams()))
	_, err := h.client.DepositEarn(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = h.client.DepositEarn(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	acc, err := h.client.LendingAccounts()
	require.NoError(t, err)
	h.chain.set(acc.UnderlyingTokenAccount, tokenAccountData(testMint, h.payer, 5))
	_, err = h.client.DepositEarn(context.Background(), 6)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	assert.Empty(t, h.submitter.submitted)
}

func TestDepositEarnConfirmFailure(t *testing.T) {
	failed := errors.New("transaction failed")
	h := newHarness(t, WithLendingMarket(lendingParams()), WithConfirmer(&fakeConfirmer{err: failed}))
	acc, err := h.client.LendingAccounts()
	require.NoError(t, err)
	h.chain.set(acc.UnderlyingTokenAccount, tokenAccountData(testMint, h.payer, 5))

	sig, err := h.client.DepositEarn(context.Background(), 5)
	assert.ErrorIs(t, err, failed)
	assert.Equal(t, solana.Signature{9}, sig)
}

func TestWithdrawEarn(t *testing.T) {
	h := newHarness(t, WithLendingMarket(lendingParams()))
	acc, err := h.client.LendingAccounts()
	require.NoError(t, err)

	_, err = h.client.WithdrawEarn(context.Background(), 20_000)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	h.chain.set(acc.FTokenAccount, tokenAccountData(acc.FTokenMint, h.payer, 50_000))
	h.chain.set(acc.UnderlyingTokenAccount, tokenAccountData(testMint, h.payer, 0))

	_, err = h.client.WithdrawEarn(context.Background(), 20_000)
	require.NoError(t, err)

	instructions := h.submitter.last(t)
	require.Len(t, instructions, 1)
	withdraw, ok := instructions[0].(*program.WithdrawEarnInstruction)
	require.True(t, ok)
	assert.Equal(t, uint64(20_000), withdraw.Assets)
	assert.Equal(t, acc.ClaimAccount, withdraw.Accounts()[11].PublicKey)
}

func TestSubmitErrors(t *testing.T) {
	h := newHarness(t)
	incomplete := program.NewProxySwapInstruction(1, 0, uint128.Zero, true, program.SwapAccounts{})
	_, err := h.client.submit(context.Background(), "swap", []solana.Instruction{incomplete})
	assert.ErrorIs(t, err, program.ErrMissingAccount)
	assert.Empty(t, h.submitter.submitted)

	boom := errors.New("send failed")
	h.submitter.err = boom
	_, err = h.client.WrapSol(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}

func TestWrapSol(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.WrapSol(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = h.client.WrapSol(context.Background(), 100_000_000)
	require.NoError(t, err)

	instructions := h.submitter.last(t)
	require.Len(t, instructions, 3)
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, instructions[0].ProgramID())
	assert.Equal(t, solana.SystemProgramID, instructions[1].ProgramID())
	assert.Equal(t, solana.TokenProgramID, instructions[2].ProgramID())

	wsol := ataOf(t, h.payer, program.NativeMint)
	assert.Equal(t, wsol, instructions[1].Accounts()[1].PublicKey)
	assert.Equal(t, wsol, instructions[2].Accounts()[0].PublicKey)
}

func lendingParams() lending.Params {
	return lending.Params{Mint: testMint}
}
