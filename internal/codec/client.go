// Package codec is the gRPC client for the hosted qualitative judge.
package codec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/signals"
)

// ClassifySignalsMethod is the full RPC name. Request and response are
// google.protobuf.Struct, so the client needs no generated stubs.
const ClassifySignalsMethod = "/pmf.judge.v1.JudgeService/ClassifySignals"

// DefaultTimeout bounds a single judge call.
const DefaultTimeout = 20 * time.Second

// #region client-struct
// JudgeClient wraps the gRPC connection to the judge sidecar. It implements
// signals.Judge.
type JudgeClient struct {
	conn    grpc.ClientConnInterface
	closer  func() error
	timeout time.Duration
	logger  *slog.Logger
}

var _ signals.Judge = (*JudgeClient)(nil)

// #endregion client-struct

// #region constructor
// NewJudgeClient connects to the judge gRPC server. The connection is
// established lazily on the first call.
func NewJudgeClient(addr string, logger *slog.Logger) (*JudgeClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	c := NewJudgeClientWithConn(conn, logger)
	c.closer = conn.Close
	return c, nil
}

// NewJudgeClientWithConn creates a JudgeClient over an existing connection.
// Used for testing without a real gRPC server.
func NewJudgeClientWithConn(conn grpc.ClientConnInterface, logger *slog.Logger) *JudgeClient {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &JudgeClient{
		conn:    conn,
		timeout: DefaultTimeout,
		logger:  logger.With("component", "judge"),
	}
}

// SetTimeout overrides the per-call timeout. Zero disables it.
func (c *JudgeClient) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Close shuts down the gRPC connection.
func (c *JudgeClient) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// #endregion constructor

// #region classify
// Classify sends the checkpoint to the judge and returns its labels. Labels
// outside NOISE/WEAK/STRONG/PMF are dropped. Rule precedence and the vanity
// invariant are applied by signals.Merge, not here.
func (c *JudgeClient) Classify(ctx context.Context, raw signals.RawCounters, metrics signals.Metrics, rule signals.Classifications) (map[string]evidence.Classification, error) {
	req, err := buildRequest(raw, metrics, rule)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, ClassifySignalsMethod, req, resp); err != nil {
		return nil, fmt.Errorf("classify rpc: %w", err)
	}
	return c.parseResponse(resp), nil
}

// #endregion classify

// #region payload
func buildRequest(raw signals.RawCounters, metrics signals.Metrics, rule signals.Classifications) (*structpb.Struct, error) {
	var cpa any
	if v, ok := metrics.CPA.Value(); ok {
		cpa = v
	}

	ruled := make(map[string]any, len(rule))
	for _, name := range rule.Metrics() {
		ruled[name] = string(rule[name].Classification)
	}
	vanity := make([]any, 0)
	for _, m := range signals.VanityMetrics() {
		vanity = append(vanity, m)
	}

	return structpb.NewStruct(map[string]any{
		"raw": map[string]any{
			"spend":             raw.Spend,
			"hours_elapsed":     raw.HoursElapsed,
			"impressions":       raw.Impressions,
			"clicks":            raw.Clicks,
			"messages_received": raw.MessagesReceived,
			"orders_placed":     raw.OrdersPlaced,
			"orders_delivered":  raw.OrdersDelivered,
			"orders_canceled":   raw.OrdersCanceled,
		},
		"metrics": map[string]any{
			"ctr":                   metrics.CTR,
			"cpa":                   cpa,
			"message_to_order_rate": metrics.MessageToOrderRate,
			"cancel_rate":           metrics.CancelRate,
		},
		"rule_classifications": ruled,
		"vanity_metrics":       vanity,
	})
}

// parseResponse reads {"classifications": {"metric": "LABEL", ...}}.
func (c *JudgeClient) parseResponse(resp *structpb.Struct) map[string]evidence.Classification {
	out := make(map[string]evidence.Classification)
	labels := resp.GetFields()["classifications"].GetStructValue()
	for name, v := range labels.GetFields() {
		label := evidence.Classification(v.GetStringValue())
		if !label.Valid() {
			c.logger.Warn("judge returned unknown label", "metric", name, "label", v.GetStringValue())
			continue
		}
		out[name] = label
	}
	return out
}

// #endregion payload
