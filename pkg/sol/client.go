package sol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	jitorpc "github.com/jito-labs/jito-go-rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"interactdapp/pkg/observability"
	"interactdapp/pkg/pipeline"
)

// Client wraps an RPC endpoint with a request rate limit and, optionally, a
// Jito block engine used for transaction submission.
type Client struct {
	endpoint   string
	rpcClient  *rpc.Client
	jitoClient *jitorpc.JitoJsonRpcClient
	limiter    *rate.Limiter

	payer       *solana.PrivateKey
	commitment  rpc.CommitmentType
	jitoTip     uint64
	jitoTipAcct solana.PublicKey

	metrics *observability.Metrics
	logger  *zap.Logger
}

type Option func(*Client)

// WithPayer sets the fee payer that signs submitted transactions.
func WithPayer(payer solana.PrivateKey) Option {
	return func(c *Client) { c.payer = &payer }
}

func WithCommitment(commitment rpc.CommitmentType) Option {
	return func(c *Client) { c.commitment = commitment }
}

// WithJitoTip appends a tip transfer to every transaction sent through Jito.
func WithJitoTip(account solana.PublicKey, lamports uint64) Option {
	return func(c *Client) {
		c.jitoTipAcct = account
		c.jitoTip = lamports
	}
}

func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Client) { c.metrics = metrics }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for endpoint. jitoRpc may be empty, in which case
// transactions go through the regular RPC. reqLimitPerSecond <= 0 disables
// rate limiting.
func NewClient(ctx context.Context, endpoint string, jitoRpc string, reqLimitPerSecond int, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("rpc endpoint is required")
	}

	limit := rate.Inf
	burst := 1
	if reqLimitPerSecond > 0 {
		limit = rate.Limit(reqLimitPerSecond)
		burst = reqLimitPerSecond
	}

	c := &Client{
		endpoint:   endpoint,
		rpcClient:  rpc.New(endpoint),
		limiter:    rate.NewLimiter(limit, burst),
		commitment: rpc.CommitmentConfirmed,
		logger:     zap.NewNop(),
	}
	if jitoRpc != "" {
		c.jitoClient = jitorpc.NewJitoJsonRpcClient(jitoRpc, "")
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("endpoint", endpoint))
	return c, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) RPC() *rpc.Client {
	return c.rpcClient
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

func (c *Client) observe(method string, start time.Time, err *error) {
	c.metrics.ObserveRPC(method, start, *err)
}

func (c *Client) GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (out *rpc.GetAccountInfoResult, err error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	defer c.observe("getAccountInfo", time.Now(), &err)
	return c.rpcClient.GetAccountInfoWithOpts(ctx, account, opts)
}

// GetAccountData returns the raw data of account, or
// pipeline.ErrAccountNotFound when it does not exist.
func (c *Client) GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	result, err := c.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", account, pipeline.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account info %s: %w", account, err)
	}
	if result == nil || result.Value == nil || result.Value.Data == nil {
		return nil, fmt.Errorf("%s: %w", account, pipeline.ErrAccountNotFound)
	}
	return result.Value.Data.GetBinary(), nil
}

func (c *Client) GetLatestBlockhash(ctx context.Context) (hash solana.Hash, err error) {
	if err := c.wait(ctx); err != nil {
		return solana.Hash{}, err
	}
	defer c.observe("getLatestBlockhash", time.Now(), &err)
	result, err := c.rpcClient.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, err
	}
	if result == nil || result.Value == nil {
		return solana.Hash{}, fmt.Errorf("empty blockhash response")
	}
	return result.Value.Blockhash, nil
}

// Submit builds a transaction from instructions, signs it with the payer and
// sends it.
func (c *Client) Submit(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	if c.payer == nil {
		return solana.Signature{}, fmt.Errorf("no payer configured")
	}
	if len(instructions) == 0 {
		return solana.Signature{}, fmt.Errorf("no instructions to submit")
	}
	payer := c.payer.PublicKey()

	if c.jitoClient != nil && c.jitoTip > 0 && !c.jitoTipAcct.IsZero() {
		tip := system.NewTransferInstruction(c.jitoTip, payer, c.jitoTipAcct).Build()
		instructions = append(instructions[:len(instructions):len(instructions)], tip)
	}

	blockhash, err := c.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return c.payer
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	if c.jitoClient != nil {
		return c.sendJito(ctx, tx)
	}
	return c.SendTx(ctx, tx)
}

// SendTx sends a signed transaction through the RPC endpoint.
func (c *Client) SendTx(ctx context.Context, tx *solana.Transaction) (sig solana.Signature, err error) {
	if err := c.wait(ctx); err != nil {
		return solana.Signature{}, err
	}
	defer c.observe("sendTransaction", time.Now(), &err)
	sig, err = c.rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	if c.metrics != nil {
		c.metrics.Transactions.WithLabelValues("rpc").Inc()
	}
	c.logger.Debug("transaction sent", zap.Stringer("signature", sig))
	return sig, nil
}

func (c *Client) sendJito(ctx context.Context, tx *solana.Transaction) (sig solana.Signature, err error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}
	defer c.observe("jito.sendTransaction", time.Now(), &err)

	encoded, err := tx.ToBase64()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("encode transaction: %w", err)
	}
	// SendTxn appends the base64 encoding config itself.
	raw, err := c.jitoClient.SendTxn([]interface{}{encoded}, false)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("jito send transaction: %w", err)
	}

	var result string
	if err := json.Unmarshal(raw, &result); err != nil {
		return solana.Signature{}, fmt.Errorf("decode jito response: %w", err)
	}
	sig, err = solana.SignatureFromBase58(result)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("parse jito signature: %w", err)
	}
	if c.metrics != nil {
		c.metrics.Transactions.WithLabelValues("jito").Inc()
	}
	c.logger.Debug("transaction sent via jito", zap.Stringer("signature", sig))
	return sig, nil
}
