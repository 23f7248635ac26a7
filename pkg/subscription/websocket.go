package subscription

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketClient manages a WebSocket connection to a Solana RPC node
type WebSocketClient struct {
	url            string
	commitment     string
	conn           *websocket.Conn
	writeMu        sync.Mutex
	mu             sync.RWMutex
	subscriptions  map[uint64]*Subscription
	nextID         uint64
	reconnectDelay time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
	connected      bool
	logger         *zap.Logger
}

type subscriptionKind int

const (
	accountSubscription subscriptionKind = iota
	signatureSubscription
)

func (k subscriptionKind) subscribeMethod() string {
	if k == signatureSubscription {
		return "signatureSubscribe"
	}
	return "accountSubscribe"
}

func (k subscriptionKind) unsubscribeMethod() string {
	if k == signatureSubscription {
		return "signatureUnsubscribe"
	}
	return "accountUnsubscribe"
}

// Subscription represents one account or signature subscription
type Subscription struct {
	ID     uint64
	Target string
	SubID  uint64 // Solana subscription ID

	kind        subscriptionKind
	onAccount   AccountUpdateHandler
	onSignature SignatureHandler
}

// AccountUpdateHandler is called with the decoded data when an account changes
type AccountUpdateHandler func(account solana.PublicKey, data []byte, slot uint64)

// SignatureHandler is called once when a signature reaches the commitment
type SignatureHandler func(result SignatureResult)

// SignatureResult carries the outcome of a processed transaction
type SignatureResult struct {
	Slot uint64
	Err  json.RawMessage
}

// Failed reports whether the transaction returned an error.
func (r SignatureResult) Failed() bool {
	return len(r.Err) > 0 && string(r.Err) != "null"
}

// RPCRequest represents a JSON-RPC request
type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// RPCResponse represents a JSON-RPC response
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NotificationMessage represents a subscription notification
type NotificationMessage struct {
	JSONRPC string             `json:"jsonrpc"`
	Method  string             `json:"method"`
	Params  NotificationParams `json:"params"`
}

// NotificationParams contains subscription notification data
type NotificationParams struct {
	Result       Notification `json:"result"`
	Subscription uint64       `json:"subscription"`
}

// Notification wraps the kind-specific value with its slot
type Notification struct {
	Context Context         `json:"context"`
	Value   json.RawMessage `json:"value"`
}

// Context contains slot information
type Context struct {
	Slot uint64 `json:"slot"`
}

// AccountValue contains account data
type AccountValue struct {
	Data       []string `json:"data"` // [base64_data, encoding]
	Executable bool     `json:"executable"`
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
}

// SignatureValue contains the transaction error, null on success
type SignatureValue struct {
	Err json.RawMessage `json:"err"`
}

type Option func(*WebSocketClient)

func WithLogger(logger *zap.Logger) Option {
	return func(c *WebSocketClient) { c.logger = logger }
}

// WithCommitment sets the commitment used by new subscriptions.
func WithCommitment(commitment string) Option {
	return func(c *WebSocketClient) { c.commitment = commitment }
}

func WithReconnectDelay(delay time.Duration) Option {
	return func(c *WebSocketClient) { c.reconnectDelay = delay }
}

// NewWebSocketClient creates a new WebSocket client
func NewWebSocketClient(ctx context.Context, wsURL string, opts ...Option) (*WebSocketClient, error) {
	clientCtx, cancel := context.WithCancel(ctx)

	client := &WebSocketClient{
		url:            wsURL,
		commitment:     "confirmed",
		subscriptions:  make(map[uint64]*Subscription),
		reconnectDelay: 5 * time.Second,
		ctx:            clientCtx,
		cancel:         cancel,
		nextID:         1,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}

	if err := client.connect(); err != nil {
		cancel()
		return nil, err
	}

	// Start message reader
	go client.readMessages()

	// Start reconnection handler
	go client.handleReconnection()

	return client, nil
}

// connect establishes WebSocket connection
func (c *WebSocketClient) connect() error {
	conn, _, err := websocket.DefaultDialer.DialContext(c.ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to WebSocket: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.logger.Info("websocket connected", zap.String("url", c.url))

	return nil
}

// SubscribeAccount subscribes to account updates
func (c *WebSocketClient) SubscribeAccount(account solana.PublicKey, handler AccountUpdateHandler) (uint64, error) {
	return c.subscribe(&Subscription{
		Target:    account.String(),
		kind:      accountSubscription,
		onAccount: handler,
	})
}

// SubscribeSignature subscribes to the status of a transaction signature.
// The subscription ends after the first notification.
func (c *WebSocketClient) SubscribeSignature(signature solana.Signature, handler SignatureHandler) (uint64, error) {
	return c.subscribe(&Subscription{
		Target:      signature.String(),
		kind:        signatureSubscription,
		onSignature: handler,
	})
}

func (c *WebSocketClient) subscribe(sub *Subscription) (uint64, error) {
	c.mu.Lock()
	sub.ID = c.nextID
	c.nextID++
	// registered before sending so the response always finds it
	c.subscriptions[sub.ID] = sub
	c.mu.Unlock()

	if err := c.sendRequest(c.subscribeRequest(sub)); err != nil {
		c.mu.Lock()
		delete(c.subscriptions, sub.ID)
		c.mu.Unlock()
		return 0, err
	}

	return sub.ID, nil
}

func (c *WebSocketClient) subscribeRequest(sub *Subscription) RPCRequest {
	opts := map[string]interface{}{
		"commitment": c.commitment,
	}
	if sub.kind == accountSubscription {
		opts["encoding"] = "base64"
	}
	return RPCRequest{
		JSONRPC: "2.0",
		ID:      sub.ID,
		Method:  sub.kind.subscribeMethod(),
		Params:  []interface{}{sub.Target, opts},
	}
}

// Unsubscribe removes a subscription
func (c *WebSocketClient) Unsubscribe(id uint64) error {
	c.mu.Lock()
	sub, exists := c.subscriptions[id]
	if !exists {
		c.mu.Unlock()
		return fmt.Errorf("subscription not found: %d", id)
	}
	delete(c.subscriptions, id)
	// SubID is rewritten by the read loop and reconnect; copy it under the lock.
	subID, method := sub.SubID, sub.kind.unsubscribeMethod()
	c.mu.Unlock()

	if subID == 0 {
		// Subscription not yet confirmed
		return nil
	}

	return c.sendRequest(RPCRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  []interface{}{subID},
	})
}

// sendRequest sends a JSON-RPC request
func (c *WebSocketClient) sendRequest(req RPCRequest) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readMessages reads incoming messages
func (c *WebSocketClient) readMessages() {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.logger.Warn("websocket read error", zap.Error(err))
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
				c.connected = false
			}
			c.mu.Unlock()
			conn.Close()
			continue
		}

		c.handleMessage(message)
	}
}

// handleMessage processes incoming messages
func (c *WebSocketClient) handleMessage(data []byte) {
	var notification NotificationMessage
	if err := json.Unmarshal(data, &notification); err == nil {
		switch notification.Method {
		case "accountNotification":
			c.handleAccountNotification(notification.Params)
			return
		case "signatureNotification":
			c.handleSignatureNotification(notification.Params)
			return
		}
	}

	var response RPCResponse
	if err := json.Unmarshal(data, &response); err != nil {
		c.logger.Warn("failed to parse websocket message", zap.Error(err))
		return
	}

	c.handleResponse(response)
}

// handleResponse records the Solana subscription ID for a subscribe request
func (c *WebSocketClient) handleResponse(response RPCResponse) {
	if response.Error != nil {
		c.logger.Warn("rpc error",
			zap.Uint64("id", response.ID),
			zap.Int("code", response.Error.Code),
			zap.String("message", response.Error.Message))
		return
	}

	var subID uint64
	if err := json.Unmarshal(response.Result, &subID); err != nil {
		return
	}

	c.mu.Lock()
	if sub, exists := c.subscriptions[response.ID]; exists {
		sub.SubID = subID
	}
	c.mu.Unlock()
}

func (c *WebSocketClient) findBySubID(subID uint64) *Subscription {
	for _, sub := range c.subscriptions {
		if sub.SubID == subID {
			return sub
		}
	}
	return nil
}

func (c *WebSocketClient) handleAccountNotification(params NotificationParams) {
	c.mu.RLock()
	sub := c.findBySubID(params.Subscription)
	c.mu.RUnlock()

	if sub == nil || sub.onAccount == nil {
		return
	}

	var value AccountValue
	if err := json.Unmarshal(params.Result.Value, &value); err != nil || len(value.Data) < 1 {
		return
	}
	data, err := base64.StdEncoding.DecodeString(value.Data[0])
	if err != nil {
		c.logger.Warn("failed to decode account data", zap.String("account", sub.Target), zap.Error(err))
		return
	}
	account, err := solana.PublicKeyFromBase58(sub.Target)
	if err != nil {
		return
	}

	sub.onAccount(account, data, params.Result.Context.Slot)
}

func (c *WebSocketClient) handleSignatureNotification(params NotificationParams) {
	c.mu.Lock()
	sub := c.findBySubID(params.Subscription)
	if sub != nil {
		// the node drops signature subscriptions after notifying
		delete(c.subscriptions, sub.ID)
	}
	c.mu.Unlock()

	if sub == nil || sub.onSignature == nil {
		return
	}

	var value SignatureValue
	if err := json.Unmarshal(params.Result.Value, &value); err != nil {
		c.logger.Warn("failed to parse signature notification", zap.Error(err))
		return
	}

	sub.onSignature(SignatureResult{
		Slot: params.Result.Context.Slot,
		Err:  value.Err,
	})
}

// handleReconnection manages reconnection logic
func (c *WebSocketClient) handleReconnection() {
	ticker := time.NewTicker(c.reconnectDelay)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if !c.IsConnected() {
				c.logger.Info("attempting to reconnect websocket")
				if err := c.reconnect(); err != nil {
					c.logger.Warn("reconnection failed", zap.Error(err))
				} else {
					c.logger.Info("websocket reconnected")
				}
			}
		}
	}
}

// reconnect attempts to reconnect and resubscribe
func (c *WebSocketClient) reconnect() error {
	if err := c.connect(); err != nil {
		return err
	}

	c.mu.Lock()
	subs := make([]*Subscription, 0, len(c.subscriptions))
	for _, sub := range c.subscriptions {
		sub.SubID = 0
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		if err := c.sendRequest(c.subscribeRequest(sub)); err != nil {
			c.logger.Warn("failed to resubscribe", zap.String("target", sub.Target), zap.Error(err))
		}
	}

	return nil
}

// Close closes the WebSocket connection
func (c *WebSocketClient) Close() error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}

	return nil
}

// IsConnected returns whether the client is connected
func (c *WebSocketClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Len returns the number of live subscriptions
func (c *WebSocketClient) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscriptions)
}
