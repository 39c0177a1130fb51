package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	publicrpcv1 "github.com/certusone/wormhole/node/pkg/proto/publicrpc/v1"
	spyv1 "github.com/certusone/wormhole/node/pkg/proto/spy/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	subscribeRetryDelay = 2 * time.Second
	subscribeMaxTries   = 5
)

// EmitterFilter restricts a subscription to one emitter on one chain.
// Address is the 32-byte emitter as 64 lowercase hex characters.
type EmitterFilter struct {
	ChainID uint16
	Address string
}

// VAAStream is the receiving half of a spy subscription.
type VAAStream interface {
	Recv() (*spyv1.SubscribeSignedVAAResponse, error)
}

// SpyClient handles connections to the Wormhole spy service
type SpyClient struct {
	conn    *grpc.ClientConn
	client  spyv1.SpyRPCServiceClient
	filters []EmitterFilter
	logger  *zap.Logger
}

// NewSpyClient creates a new client for the Wormhole spy service. The
// connection is established lazily by the first subscription.
func NewSpyClient(logger *zap.Logger, endpoint string, filters ...EmitterFilter) (*SpyClient, error) {
	client := &SpyClient{
		filters: filters,
		logger:  logger.With(zap.String("component", "SpyClient")),
	}

	client.logger.Info("Connecting to spy service",
		zap.String("endpoint", endpoint),
		zap.Int("filters", len(filters)))
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to spy: %w", err)
	}

	client.conn = conn
	client.client = spyv1.NewSpyRPCServiceClient(conn)
	return client, nil
}

// Close closes the connection to the spy service
func (c *SpyClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *SpyClient) request() *spyv1.SubscribeSignedVAARequest {
	req := &spyv1.SubscribeSignedVAARequest{}
	for _, f := range c.filters {
		req.Filters = append(req.Filters, &spyv1.FilterEntry{
			Filter: &spyv1.FilterEntry_EmitterFilter{
				EmitterFilter: &spyv1.EmitterFilter{
					ChainId:        publicrpcv1.ChainID(f.ChainID),
					EmitterAddress: f.Address,
				},
			},
		})
	}
	return req
}

// Subscribe opens a signed VAA stream, retrying transient failures.
func (c *SpyClient) Subscribe(ctx context.Context) (VAAStream, error) {
	c.logger.Debug("Subscribing to signed VAAs")

	attempt := 0
	stream, err := backoff.Retry(ctx, func() (spyv1.SpyRPCService_SubscribeSignedVAAClient, error) {
		attempt++
		stream, err := c.client.SubscribeSignedVAA(ctx, c.request())
		if err != nil {
			c.logger.Warn("Subscribe attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
				zap.Duration("retryIn", subscribeRetryDelay))
			return nil, err
		}
		return stream, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(subscribeRetryDelay)),
		backoff.WithMaxTries(subscribeMaxTries),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe after %d attempts: %w", attempt, err)
	}
	return stream, nil
}
