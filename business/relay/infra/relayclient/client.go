// Package relayclient implements the Submitter and Signer ports against a
// real Flashbots-style relay, for API_MODE=real.
package relayclient

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	bundledomain "github.com/fd1az/mev-searcher/business/bundle/domain"
	"github.com/fd1az/mev-searcher/business/relay/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/circuitbreaker"
	"github.com/fd1az/mev-searcher/internal/httpclient"
	"github.com/fd1az/mev-searcher/internal/logger"
)

type submitBundleRequest struct {
	TargetBlock  uint64   `json:"targetBlock"`
	Transactions []string `json:"transactions"`
}

type submitBundleResponse struct {
	BundleHash string `json:"bundleHash"`
}

type bundleStatusResponse struct {
	Status string `json:"status"`
}

// Client submits signed bundles to a relay's JSON-RPC endpoint and polls
// bundle inclusion status by hash.
type Client struct {
	client httpclient.Client
	cb     *circuitbreaker.CircuitBreaker[*submitBundleResponse]
	tracer trace.Tracer
	logger logger.LoggerInterface
}

// New builds a relay submission Client against baseURL, authenticating
// with apiKey.
func New(baseURL, apiKey string, log logger.LoggerInterface) (*Client, error) {
	tracer := otel.Tracer("relay.relayclient")
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("relay"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(10*time.Second),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + apiKey,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("relay/relayclient: build client: %w", err)
	}

	return &Client{
		client: client,
		tracer: tracer,
		logger: log,
		cb:     circuitbreaker.New[*submitBundleResponse](circuitbreaker.DefaultConfig("relay-submit")),
	}, nil
}

// SubmitBundle POSTs signedTxs as an ordered list of raw transactions and
// returns the relay-assigned bundle hash.
func (c *Client) SubmitBundle(ctx context.Context, bundle *bundledomain.Bundle, signedTxs [][]byte) (common.Hash, error) {
	ctx, span := c.tracer.Start(ctx, "relay.submit",
		trace.WithAttributes(attribute.String("bundle_id", bundle.ID)))
	defer span.End()

	req := submitBundleRequest{
		TargetBlock:  bundle.TargetBlock,
		Transactions: make([]string, len(signedTxs)),
	}
	for i, raw := range signedTxs {
		req.Transactions[i] = "0x" + fmt.Sprintf("%x", raw)
	}

	var result submitBundleResponse
	_, err := c.cb.Execute(func() (*submitBundleResponse, error) {
		resp, reqErr := c.client.NewRequestWithOptions(
			httpclient.WithLabels(httpclient.NewLabel("endpoint", "submit")),
		).
			SetBody(req).
			SetResult(&result).
			Post(ctx, "/bundle")
		if reqErr != nil {
			return nil, reqErr
		}
		if resp.IsError() {
			return nil, fmt.Errorf("relay submit HTTP %d: %s", resp.StatusCode, resp.String())
		}
		return &result, nil
	})
	if err != nil {
		span.RecordError(err)
		return common.Hash{}, apperror.New(apperror.CodeRelaySubmitFailed, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("bundle %s", bundle.ID)))
	}

	return common.HexToHash(result.BundleHash), nil
}

// GetBundleStatus polls the relay for hash's current inclusion status.
func (c *Client) GetBundleStatus(ctx context.Context, hash common.Hash) (domain.Status, error) {
	var result bundleStatusResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "status")),
	).
		SetQueryParam("hash", hash.Hex()).
		SetResult(&result).
		Get(ctx, "/bundle/status")
	if err != nil {
		return "", apperror.New(apperror.CodeEthereumRPCError, apperror.WithCause(err),
			apperror.WithContext("relay: poll status"))
	}
	if resp.IsError() {
		return "", apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithContext(fmt.Sprintf("relay status HTTP %d: %s", resp.StatusCode, resp.String())))
	}

	switch domain.Status(result.Status) {
	case domain.StatusPending, domain.StatusIncluded, domain.StatusFailed:
		return domain.Status(result.Status), nil
	default:
		return domain.StatusPending, nil
	}
}
