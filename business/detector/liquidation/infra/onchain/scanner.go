// Package onchain scans a configured watch list of borrowers against
// Aave V3's Pool.getUserAccountData, grounded on
// business/detector/sandwich/infra/onchain.PoolReader's
// ABI-pack/circuit-breaker/CallContract idiom.
package onchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/mev-searcher/business/detector/liquidation/domain"
	"github.com/fd1az/mev-searcher/internal/apperror"
	"github.com/fd1az/mev-searcher/internal/circuitbreaker"
	"github.com/fd1az/mev-searcher/internal/logger"
)

const (
	poolABI = `[{"name":"getUserAccountData","type":"function","stateMutability":"view",
		"inputs":[{"name":"user","type":"address"}],
		"outputs":[
			{"name":"totalCollateralBase","type":"uint256"},
			{"name":"totalDebtBase","type":"uint256"},
			{"name":"availableBorrowsBase","type":"uint256"},
			{"name":"currentLiquidationThreshold","type":"uint256"},
			{"name":"ltv","type":"uint256"},
			{"name":"healthFactor","type":"uint256"}]}]`

	tracerName = "github.com/fd1az/mev-searcher/business/detector/liquidation/infra/onchain"

	// healthFactorRay is Aave's fixed-point scale for healthFactor (1e27,
	// a "ray"); a healthy position reports healthFactorRay as HF=1.0.
	healthFactorRay = 1e27

	// baseUnitsPerUSD is Aave V3's accounting-currency scale (8 decimals,
	// matching the USD-denominated Chainlink feeds it prices against).
	baseUnitsPerUSD = 1e8
)

// AaveScanner polls Aave V3's Pool contract for the account data of a
// fixed watch list of borrowers. Real deployments would seed the watch
// list from an indexer of Borrow events; this keeps the on-chain read
// path self-contained and independently testable.
type AaveScanner struct {
	client    *ethclient.Client
	pool      common.Address
	poolAbi   abi.ABI
	cb        *circuitbreaker.CircuitBreaker[[]byte]
	logger    logger.LoggerInterface
	tracer    trace.Tracer
	watchlist sync.Map // common.Address -> struct{}
}

// NewAaveScanner builds a scanner against a single Aave V3 Pool deployment.
func NewAaveScanner(client *ethclient.Client, pool common.Address, watchlist []common.Address, log logger.LoggerInterface) (*AaveScanner, error) {
	pABI, err := abi.JSON(strings.NewReader(poolABI))
	if err != nil {
		return nil, fmt.Errorf("liquidation/onchain: parse pool abi: %w", err)
	}

	s := &AaveScanner{
		client:  client,
		pool:    pool,
		poolAbi: pABI,
		cb:      circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("liquidation-aave-scanner")),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
	for _, addr := range watchlist {
		s.watchlist.Store(addr, struct{}{})
	}
	return s, nil
}

// Watch adds an address to the scanned set, e.g. once an indexer observes
// it taking on debt.
func (s *AaveScanner) Watch(addr common.Address) {
	s.watchlist.Store(addr, struct{}{})
}

// ScanPositions queries account data for every watched address, skipping
// (and logging) any single address whose call fails rather than failing
// the whole scan.
func (s *AaveScanner) ScanPositions(ctx context.Context) ([]domain.Position, error) {
	ctx, span := s.tracer.Start(ctx, "liquidation.aave_scanner.scan")
	defer span.End()

	var positions []domain.Position
	s.watchlist.Range(func(key, _ any) bool {
		addr := key.(common.Address)
		pos, err := s.accountData(ctx, addr)
		if err != nil {
			s.logger.Warn(ctx, "liquidation: getUserAccountData failed", "user", addr.Hex(), "error", err)
			return true
		}
		positions = append(positions, pos)
		return true
	})

	span.SetAttributes(attribute.Int("positions_scanned", len(positions)))
	return positions, nil
}

func (s *AaveScanner) accountData(ctx context.Context, user common.Address) (domain.Position, error) {
	callData, err := s.poolAbi.Pack("getUserAccountData", user)
	if err != nil {
		return domain.Position{}, err
	}
	raw, err := s.cb.Execute(func() ([]byte, error) {
		return s.client.CallContract(ctx, ethereum.CallMsg{To: &s.pool, Data: callData}, nil)
	})
	if err != nil {
		return domain.Position{}, apperror.New(apperror.CodeContractCallFailed, apperror.WithCause(err))
	}
	out, err := s.poolAbi.Unpack("getUserAccountData", raw)
	if err != nil || len(out) < 6 {
		return domain.Position{}, fmt.Errorf("liquidation/onchain: decode getUserAccountData: %w", err)
	}

	totalCollateralBase := out[0].(*big.Int)
	totalDebtBase := out[1].(*big.Int)
	healthFactorRaw := out[5].(*big.Int)

	// Aave reports MaxUint256 for a user with zero debt: not liquidatable
	// and not meaningfully convertible to a float, so treat it as healthy.
	healthFactor := 1.0
	if totalDebtBase.Sign() > 0 {
		hf := new(big.Float).Quo(new(big.Float).SetInt(healthFactorRaw), big.NewFloat(healthFactorRay))
		healthFactor, _ = hf.Float64()
	}

	debtUSD := baseToUSD(totalDebtBase)
	collateralUSD := baseToUSD(totalCollateralBase)

	return domain.Position{
		User:               user,
		Protocol:           "aave_v3",
		HealthFactor:       healthFactor,
		TotalCollateralUSD: collateralUSD,
		TotalDebtUSD:       debtUSD,
		// Aave's getUserAccountData aggregates across reserves; per-reserve
		// breakdown requires a second call to the protocol data provider
		// (getUserReserveData per asset), not made here for every watched
		// address on every scan tick. Until that's wired, the aggregate
		// debt/collateral is reported as a single synthetic reserve so the
		// detector still has a debt/collateral asset pair to act on.
		Debts:      []domain.ReserveDebt{{DebtWei: totalDebtBase, DebtUSD: debtUSD}},
		Collateral: []domain.ReserveCollateral{{CollateralWei: totalCollateralBase, CollateralUSD: collateralUSD}},
	}, nil
}

func baseToUSD(base *big.Int) float64 {
	f := new(big.Float).Quo(new(big.Float).SetInt(base), big.NewFloat(baseUnitsPerUSD))
	usd, _ := f.Float64()
	return usd
}
