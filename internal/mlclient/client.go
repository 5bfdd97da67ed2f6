// Package mlclient классификатор, работающий через удалённый gRPC сервис.
package mlclient

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Krimson/heart-risk/internal/features"
	"github.com/Krimson/heart-risk/internal/grpcapi"
	"github.com/Krimson/heart-risk/internal/scoring"
)

// DefaultTimeout таймаут одного вызова, если не задан.
const DefaultTimeout = 3 * time.Second

var (
	_ scoring.Classifier = (*Client)(nil)
	_ scoring.Predictor  = (*Client)(nil)
)

// Client реализует scoring.Classifier поверх grpc.ClientConn.
type Client struct {
	conn    *grpc.ClientConn
	health  grpc_health_v1.HealthClient
	timeout time.Duration
}

// New создаёт клиента. Соединение устанавливается лениво при первом вызове.
func New(addr string, timeout time.Duration) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier client for %s: %w", addr, err)
	}
	return NewFromConn(conn, timeout), nil
}

// NewFromConn создаёт клиента поверх готового соединения.
func NewFromConn(conn *grpc.ClientConn, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		conn:    conn,
		health:  grpc_health_v1.NewHealthClient(conn),
		timeout: timeout,
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Predict метка и вероятность за один вызов.
// codes.Unavailable от сервиса превращается в scoring.ErrModelUnavailable.
func (c *Client) Predict(ctx context.Context, v features.Vector) (scoring.Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := grpcapi.EncodeFeatures(v)
	if err != nil {
		return scoring.Prediction{}, err
	}

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, grpcapi.PredictMethod, req, resp); err != nil {
		if status.Code(err) == codes.Unavailable {
			return scoring.Prediction{}, fmt.Errorf("%w: %v", scoring.ErrModelUnavailable, err)
		}
		return scoring.Prediction{}, fmt.Errorf("classifier call failed: %w", err)
	}

	return grpcapi.DecodePrediction(resp)
}

func (c *Client) PredictLabel(ctx context.Context, v features.Vector) (int, error) {
	p, err := c.Predict(ctx, v)
	return p.Label, err
}

func (c *Client) PredictProbability(ctx context.Context, v features.Vector) (float64, error) {
	p, err := c.Predict(ctx, v)
	return p.Probability, err
}

// Ready true, если удалённый сервис загрузил модель.
func (c *Client) Ready(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: grpcapi.ServiceName})
	if err != nil {
		return false, fmt.Errorf("health check failed: %w", err)
	}
	return resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING, nil
}
