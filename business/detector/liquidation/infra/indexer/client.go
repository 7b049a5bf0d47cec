// Package indexer queries a GraphQL subgraph for already-liquidatable
// accounts instead of scanning a fixed watch list on-chain, grounded on
// business/dex/infra/aggregator.OneInchAdapter's instrumented-HTTP-client
// plus circuit-breaker idiom.
package indexer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/mev-searcher/business/detector/liquidation/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/circuitbreaker"
	"github.com/fd1az/mev-searcher/internal/httpclient"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const liquidatableQuery = `query($maxHealthFactor: BigDecimal!) {
  users(where: { borrowedReservesCount_gt: 0, healthFactor_lt: $maxHealthFactor }, first: 200) {
    id
    healthFactor
    totalCollateralUSD
    totalDebtUSD
    reserves {
      reserve { underlyingAsset }
      currentTotalDebt
      currentATokenBalance
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type subgraphUser struct {
	ID                 string  `json:"id"`
	HealthFactor       string  `json:"healthFactor"`
	TotalCollateralUSD string  `json:"totalCollateralUSD"`
	TotalDebtUSD       string  `json:"totalDebtUSD"`
	Reserves           []struct {
		Reserve struct {
			UnderlyingAsset string `json:"underlyingAsset"`
		} `json:"reserve"`
		CurrentTotalDebt      string `json:"currentTotalDebt"`
		CurrentATokenBalance string `json:"currentATokenBalance"`
	} `json:"reserves"`
}

type graphqlResponse struct {
	Data struct {
		Users []subgraphUser `json:"users"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Client is a PositionSource backed by a lending-protocol subgraph.
type Client struct {
	client   httpclient.Client
	protocol string
	cb       *circuitbreaker.CircuitBreaker[*graphqlResponse]
	logger   logger.LoggerInterface
	tracer   trace.Tracer
}

// NewClient builds an indexer-backed PositionSource against a subgraph
// endpoint, e.g. Aave V3's official Ethereum mainnet subgraph.
func NewClient(endpoint, protocol string, log logger.LoggerInterface) (*Client, error) {
	tracer := otel.Tracer("liquidation.indexer")
	httpClient, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("liquidation-indexer"),
		httpclient.WithBaseURL(endpoint),
		httpclient.WithRequestTimeout(8*time.Second),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{"Content-Type": "application/json"}),
	)
	if err != nil {
		return nil, fmt.Errorf("liquidation/indexer: build http client: %w", err)
	}

	return &Client{
		client:   httpClient,
		protocol: protocol,
		cb:       circuitbreaker.New[*graphqlResponse](circuitbreaker.DefaultConfig("liquidation-indexer")),
		logger:   log,
		tracer:   tracer,
	}, nil
}

// ScanPositions queries the subgraph for users below a 1.0 health factor.
func (c *Client) ScanPositions(ctx context.Context) ([]domain.Position, error) {
	ctx, span := c.tracer.Start(ctx, "liquidation.indexer.scan")
	defer span.End()

	var result graphqlResponse
	_, err := c.cb.Execute(func() (*graphqlResponse, error) {
		resp, reqErr := c.client.NewRequestWithOptions().
			SetBody(graphqlRequest{
				Query:     liquidatableQuery,
				Variables: map[string]any{"maxHealthFactor": "1.0"},
			}).
			SetResult(&result).
			Post(ctx, "")
		if reqErr != nil {
			return nil, reqErr
		}
		if resp.IsError() {
			return nil, fmt.Errorf("indexer HTTP %d: %s", resp.StatusCode, resp.String())
		}
		return &result, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeExternalServiceError, apperror.WithCause(err),
			apperror.WithContext("liquidation: subgraph query failed"))
	}
	if len(result.Errors) > 0 {
		return nil, apperror.New(apperror.CodeExternalServiceError,
			apperror.WithContext("liquidation: subgraph returned errors: "+result.Errors[0].Message))
	}

	positions := make([]domain.Position, 0, len(result.Data.Users))
	for _, u := range result.Data.Users {
		positions = append(positions, c.toPosition(u))
	}
	span.SetAttributes(attribute.Int("positions_found", len(positions)))
	return positions, nil
}

func (c *Client) toPosition(u subgraphUser) domain.Position {
	hf := parseFloat(u.HealthFactor)

	var debts []domain.ReserveDebt
	var collateral []domain.ReserveCollateral
	for _, r := range u.Reserves {
		asset := common.HexToAddress(r.Reserve.UnderlyingAsset)
		if debtWei, ok := new(big.Int).SetString(r.CurrentTotalDebt, 10); ok && debtWei.Sign() > 0 {
			debts = append(debts, domain.ReserveDebt{Asset: asset, DebtWei: debtWei, DebtUSD: weiToApproxUSD(debtWei)})
		}
		if collWei, ok := new(big.Int).SetString(r.CurrentATokenBalance, 10); ok && collWei.Sign() > 0 {
			collateral = append(collateral, domain.ReserveCollateral{Asset: asset, CollateralWei: collWei, CollateralUSD: weiToApproxUSD(collWei)})
		}
	}

	return domain.Position{
		User:               common.HexToAddress(u.ID),
		Protocol:           c.protocol,
		HealthFactor:       hf,
		TotalCollateralUSD: parseFloat(u.TotalCollateralUSD),
		TotalDebtUSD:       parseFloat(u.TotalDebtUSD),
		Debts:              debts,
		Collateral:         collateral,
	}
}

func parseFloat(s string) float64 {
	var f float64
	fmt.Sscanf(s, "%g", &f)
	return f
}

// weiToApproxUSD is a placeholder per-reserve USD estimate until the
// subgraph response is joined against C3's oracle aggregator for an
// authoritative price; the aggregate totalDebtUSD/totalCollateralUSD
// fields above remain the authoritative figures the priority score uses.
func weiToApproxUSD(wei *big.Int) float64 {
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18))
	usd, _ := f.Float64()
	return usd
}
