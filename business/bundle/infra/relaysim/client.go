// Package relaysim implements the Simulator port against a real relay's
// bundle simulation endpoint, for API_MODE=real.
package relaysim

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/mev-searcher/business/bundle/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/circuitbreaker"
	"github.com/fd1az/mev-searcher/internal/httpclient"
	"github.com/fd1az/mev-searcher/internal/logger"
)

type simulateTxRequest struct {
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	GasLimit uint64 `json:"gasLimit"`
}

type simulateBundleRequest struct {
	TargetBlock  uint64              `json:"targetBlock"`
	Transactions []simulateTxRequest `json:"transactions"`
}

type simulateBundleResponse struct {
	Success      bool     `json:"success"`
	Profit       string   `json:"profit"`
	GasUsed      uint64   `json:"gasUsed"`
	GasCost      string   `json:"gasCost"`
	NetProfit    string   `json:"netProfit"`
	PriceImpact  float64  `json:"priceImpact"`
	ErrorMessage string   `json:"error"`
	Traces       []string `json:"traces"`
}

// Client submits a Bundle to a relay's simulation endpoint over HTTP.
type Client struct {
	client httpclient.Client
	cb     *circuitbreaker.CircuitBreaker[*simulateBundleResponse]
	tracer trace.Tracer
	logger logger.LoggerInterface
}

// New builds a relay simulation Client against baseURL, authenticating
// with apiKey.
func New(baseURL, apiKey string, log logger.LoggerInterface) (*Client, error) {
	tracer := otel.Tracer("bundle.relaysim")
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("relay-sim"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(10*time.Second),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + apiKey,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("bundle/relaysim: build client: %w", err)
	}

	return &Client{
		client: client,
		tracer: tracer,
		logger: log,
		cb:     circuitbreaker.New[*simulateBundleResponse](circuitbreaker.DefaultConfig("bundle-relay-sim")),
	}, nil
}

// Simulate POSTs bundle's ordered transactions to the relay's simulation
// endpoint and parses the projected profit and gas outcome back.
func (c *Client) Simulate(ctx context.Context, bundle *domain.Bundle) (*domain.SimulationResult, error) {
	ctx, span := c.tracer.Start(ctx, "bundle.relaysim.simulate",
		trace.WithAttributes(attribute.String("bundle_id", bundle.ID)))
	defer span.End()

	req := simulateBundleRequest{
		TargetBlock:  bundle.TargetBlock,
		Transactions: make([]simulateTxRequest, 0, len(bundle.Transactions)),
	}
	for _, tx := range bundle.Transactions {
		value := tx.Value
		if value == nil {
			value = big.NewInt(0)
		}
		req.Transactions = append(req.Transactions, simulateTxRequest{
			To:       tx.To.Hex(),
			Data:     "0x" + fmt.Sprintf("%x", tx.Data),
			Value:    value.String(),
			GasLimit: tx.GasLimit,
		})
	}

	var result simulateBundleResponse
	_, err := c.cb.Execute(func() (*simulateBundleResponse, error) {
		resp, reqErr := c.client.NewRequestWithOptions(
			httpclient.WithLabels(httpclient.NewLabel("endpoint", "simulate")),
		).
			SetBody(req).
			SetResult(&result).
			Post(ctx, "/simulate")
		if reqErr != nil {
			return nil, reqErr
		}
		if resp.IsError() {
			return nil, fmt.Errorf("relay sim HTTP %d: %s", resp.StatusCode, resp.String())
		}
		return &result, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeSimulationFailed, apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("bundle %s", bundle.ID)))
	}

	profit, _ := new(big.Int).SetString(result.Profit, 10)
	gasCost, _ := new(big.Int).SetString(result.GasCost, 10)
	netProfit, _ := new(big.Int).SetString(result.NetProfit, 10)
	if profit == nil {
		profit = big.NewInt(0)
	}
	if gasCost == nil {
		gasCost = big.NewInt(0)
	}
	if netProfit == nil {
		netProfit = big.NewInt(0)
	}

	return &domain.SimulationResult{
		Success:      result.Success,
		Profit:       profit,
		GasUsed:      result.GasUsed,
		GasCost:      gasCost,
		NetProfit:    netProfit,
		PriceImpact:  result.PriceImpact,
		ErrorMessage: result.ErrorMessage,
		Traces:       result.Traces,
	}, nil
}
