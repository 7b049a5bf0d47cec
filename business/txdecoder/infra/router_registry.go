// Package infra holds C2's router-registry adapter.
package infra

import "github.com/ethereum/go-ethereum/common"

// StaticRouterRegistry answers IsRouter against a fixed, configured set of
// DEX router addresses (Uniswap V2/V3, SushiSwap, ...).
type StaticRouterRegistry struct {
	routers map[common.Address]struct{}
}

// NewStaticRouterRegistry builds a registry from a list of router addresses.
func NewStaticRouterRegistry(routers []common.Address) *StaticRouterRegistry {
	set := make(map[common.Address]struct{}, len(routers))
	for _, r := range routers {
		set[r] = struct{}{}
	}
	return &StaticRouterRegistry{routers: set}
}

// IsRouter reports whether addr is one of the configured routers.
func (r *StaticRouterRegistry) IsRouter(addr common.Address) bool {
	_, ok := r.routers[addr]
	return ok
}
