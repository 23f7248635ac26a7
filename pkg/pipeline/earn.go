package pipeline

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"interactdapp/pkg/layout"
	"interactdapp/pkg/lending"
	"interactdapp/pkg/program"
)

func (c *Client) lendingAccounts() (lending.Accounts, error) {
	params := c.market
	params.User = c.payer
	acc, err := lending.DeriveAccounts(params)
	if err != nil {
		return lending.Accounts{}, fmt.Errorf("derive lending accounts: %w", err)
	}
	return acc, nil
}

// LendingAccounts returns the earn market accounts used for the payer.
func (c *Client) LendingAccounts() (lending.Accounts, error) {
	return c.lendingAccounts()
}

// DepositEarn deposits amount of the market's underlying mint through
// deposit_earn. The payer's fToken account is created when missing.
func (c *Client) DepositEarn(ctx context.Context, amount uint64) (solana.Signature, error) {
	if amount == 0 {
		return solana.Signature{}, fmt.Errorf("deposit: %w", ErrInvalidAmount)
	}
	acc, err := c.lendingAccounts()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("deposit: %w", err)
	}

	data, err := c.fetcher.GetAccountData(ctx, acc.UnderlyingTokenAccount)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("deposit: fetch token account %s: %w", acc.UnderlyingTokenAccount, err)
	}
	tokenAccount, err := layout.DecodeTokenAccount(data)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("deposit: %w", err)
	}
	if tokenAccount.Amount < amount {
		return solana.Signature{}, fmt.Errorf("deposit: %w: have %d, need %d", ErrInsufficientBalance, tokenAccount.Amount, amount)
	}

	instructions, _, err := c.ensureTokenAccount(ctx, c.payer, acc.FTokenMint, acc.TokenProgram)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("deposit: %w", err)
	}
	instructions = append(instructions, program.NewDepositEarnInstruction(amount, acc))

	c.logger.Info("depositing",
		zap.Stringer("mint", acc.Mint),
		zap.Uint64("amount", amount),
		zap.Stringer("lending", acc.Lending))
	return c.submit(ctx, "deposit", instructions)
}

// WithdrawEarn withdraws assets of the underlying mint through
// withdraw_earn. The payer's underlying token account is created when
// missing.
func (c *Client) WithdrawEarn(ctx context.Context, assets uint64) (solana.Signature, error) {
	if assets == 0 {
		return solana.Signature{}, fmt.Errorf("withdraw: %w", ErrInvalidAmount)
	}
	acc, err := c.lendingAccounts()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("withdraw: %w", err)
	}

	if _, err := c.fetcher.GetAccountData(ctx, acc.FTokenAccount); err != nil {
		return solana.Signature{}, fmt.Errorf("withdraw: fetch fToken account %s: %w", acc.FTokenAccount, err)
	}

	instructions, _, err := c.ensureTokenAccount(ctx, c.payer, acc.Mint, acc.TokenProgram)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("withdraw: %w", err)
	}
	instructions = append(instructions, program.NewWithdrawEarnInstruction(assets, acc))

	c.logger.Info("withdrawing",
		zap.Stringer("mint", acc.Mint),
		zap.Uint64("assets", assets),
		zap.Stringer("lending", acc.Lending))
	return c.submit(ctx, "withdraw", instructions)
}
