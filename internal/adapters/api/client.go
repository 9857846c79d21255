package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avelara/coachctl/internal/domain"
	"github.com/avelara/coachctl/internal/ports"
	"go.uber.org/zap"
)

const maxAPIResponseBytes = 1 << 20

// Client talks JSON to the coaching backend. It implements ports.AuthAPI
// and the data-source endpoints consumed by the sync manager.
type Client struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

var _ ports.AuthAPI = (*Client)(nil)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type userPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Locale      string `json:"locale"`
	Tier        string `json:"tier"`
}

type userPatchRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Locale      *string `json:"locale,omitempty"`
}

type transactionPayload struct {
	ID           string `json:"id"`
	ConnectionID string `json:"connection_id,omitempty"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Amount       string `json:"amount"`
	OccurredOn   string `json:"occurred_on"`
}

type goalPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TargetAmount string `json:"target_amount"`
	SavedAmount  string `json:"saved_amount"`
	TargetDate   string `json:"target_date,omitempty"`
}

type connectionPayload struct {
	ID           string `json:"id"`
	Institution  string `json:"institution"`
	Status       string `json:"status"`
	LastSyncedAt string `json:"last_synced_at,omitempty"`
}

type createTransactionRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	OccurredOn  string `json:"occurred_on"`
}

type connectRequest struct {
	Institution string `json:"institution"`
}

type agentCommandRequest struct {
	Text string `json:"text"`
}

type agentCommandResponse struct {
	Reply       string              `json:"reply"`
	Transaction *transactionPayload `json:"transaction,omitempty"`
}

type apiErrorResponse struct {
	Error string `json:"error"`
}

// AgentReply is the outcome of one playground command. Transaction is
// non-nil when the command created a ledger entry server-side.
type AgentReply struct {
	Reply       string
	Transaction *domain.Transaction
}

func (c *Client) Login(ctx context.Context, creds ports.Credentials) (string, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{
		Email:    creds.Email,
		Password: creds.Password,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if strings.TrimSpace(resp.Token) == "" {
		return "", errors.New("login response missing token")
	}

	return resp.Token, nil
}

func (c *Client) CurrentUser(ctx context.Context, token string) (domain.UserSnapshot, error) {
	var payload userPayload
	if err := c.do(ctx, http.MethodGet, "/users/me", token, nil, &payload); err != nil {
		return domain.UserSnapshot{}, fmt.Errorf("fetch current user: %w", err)
	}

	return userFromPayload(payload), nil
}

func (c *Client) UpdateUser(ctx context.Context, token string, patch domain.UserPatch) (domain.UserSnapshot, error) {
	var payload userPayload
	req := userPatchRequest{DisplayName: patch.DisplayName, Locale: patch.Locale}
	if err := c.do(ctx, http.MethodPatch, "/users/me", token, req, &payload); err != nil {
		return domain.UserSnapshot{}, fmt.Errorf("update user: %w", err)
	}

	return userFromPayload(payload), nil
}

func (c *Client) ListTransactions(ctx context.Context, token string) ([]domain.Transaction, error) {
	var payload []transactionPayload
	if err := c.do(ctx, http.MethodGet, "/transactions", token, nil, &payload); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	transactions := make([]domain.Transaction, 0, len(payload))
	for _, entry := range payload {
		transactions = append(transactions, transactionFromPayload(entry))
	}

	return transactions, nil
}

func (c *Client) ListGoals(ctx context.Context, token string) ([]domain.Goal, error) {
	var payload []goalPayload
	if err := c.do(ctx, http.MethodGet, "/goals", token, nil, &payload); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	goals := make([]domain.Goal, 0, len(payload))
	for _, entry := range payload {
		goals = append(goals, domain.Goal{
			ID:           domain.GoalID(entry.ID),
			Name:         entry.Name,
			TargetAmount: parseAmount(entry.TargetAmount),
			SavedAmount:  parseAmount(entry.SavedAmount),
			TargetDate:   parseTime(entry.TargetDate),
		})
	}

	return goals, nil
}

func (c *Client) ListConnections(ctx context.Context, token string) ([]domain.Connection, error) {
	var payload []connectionPayload
	if err := c.do(ctx, http.MethodGet, "/connections", token, nil, &payload); err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	connections := make([]domain.Connection, 0, len(payload))
	for _, entry := range payload {
		connections = append(connections, connectionFromPayload(entry))
	}

	return connections, nil
}

func (c *Client) CreateTransaction(ctx context.Context, token string, tx domain.Transaction) (domain.Transaction, error) {
	var payload transactionPayload
	req := createTransactionRequest{
		Description: tx.Description,
		Category:    tx.Category,
		Amount:      tx.Amount.String(),
		OccurredOn:  formatTime(tx.OccurredOn),
	}
	if err := c.do(ctx, http.MethodPost, "/transactions", token, req, &payload); err != nil {
		return domain.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	return transactionFromPayload(payload), nil
}

func (c *Client) ConnectAccount(ctx context.Context, token string, institution string) (domain.Connection, error) {
	var payload connectionPayload
	if err := c.do(ctx, http.MethodPost, "/connections", token, connectRequest{Institution: institution}, &payload); err != nil {
		return domain.Connection{}, fmt.Errorf("connect account: %w", err)
	}

	return connectionFromPayload(payload), nil
}

func (c *Client) DisconnectAccount(ctx context.Context, token string, id domain.ConnectionID) (domain.Connection, error) {
	var payload connectionPayload
	path := "/connections/" + url.PathEscape(string(id))
	if err := c.do(ctx, http.MethodDelete, path, token, nil, &payload); err != nil {
		return domain.Connection{}, fmt.Errorf("disconnect account: %w", err)
	}

	return connectionFromPayload(payload), nil
}

func (c *Client) SyncConnection(ctx context.Context, token string, id domain.ConnectionID) (domain.Connection, error) {
	var payload connectionPayload
	path := "/connections/" + url.PathEscape(string(id)) + "/sync"
	if err := c.do(ctx, http.MethodPost, path, token, nil, &payload); err != nil {
		return domain.Connection{}, fmt.Errorf("sync connection: %w", err)
	}

	return connectionFromPayload(payload), nil
}

func (c *Client) AgentCommand(ctx context.Context, token string, text string) (AgentReply, error) {
	var payload agentCommandResponse
	if err := c.do(ctx, http.MethodPost, "/agent/commands", token, agentCommandRequest{Text: text}, &payload); err != nil {
		return AgentReply{}, fmt.Errorf("agent command: %w", err)
	}

	reply := AgentReply{Reply: payload.Reply}
	if payload.Transaction != nil {
		tx := transactionFromPayload(*payload.Transaction)
		reply.Transaction = &tx
	}

	return reply, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body any, out any) error {
	endpoint, err := buildAPIURL(c.BaseURL, path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.logger().Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return domain.Transient(fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp); err != nil {
		c.logger().Warn("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Error(err))
		return err
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAPIResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// classifyStatus maps HTTP failures onto the session error taxonomy:
// 401/403 are terminal, timeouts and server errors are transient,
// everything else is a plain request failure.
func classifyStatus(resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	message := decodeAPIError(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", message, domain.ErrUnauthorized)
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		return domain.Transient(fmt.Errorf("status %d: %s", resp.StatusCode, message))
	default:
		return fmt.Errorf("status %d: %s", resp.StatusCode, message)
	}
}

func decodeAPIError(resp *http.Response) string {
	var payload apiErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAPIResponseBytes)).Decode(&payload); err != nil || payload.Error == "" {
		return http.StatusText(resp.StatusCode)
	}

	return payload.Error
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	if c.RequestTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.RequestTimeout)
}

func buildAPIURL(baseURL, path string) (string, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return "", errors.New("api base url is empty")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("api base url %q missing scheme or host", baseURL)
	}

	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + path
	return parsed.String(), nil
}
