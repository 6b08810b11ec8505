/*

This file contains the asset descriptor type: the static identity of every asset the keeper evaluates.

*/

package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// AssetDescriptor identifies an ERC20 asset the farm contract supports.
type AssetDescriptor struct {
	Address  common.Address `json:"address"`  // Token contract address
	Symbol   string         `json:"symbol"`   // e.g., "USDC"
	Decimals int            `json:"decimals"` // e.g., 6 for USDC
}

func (a AssetDescriptor) String() string {
	return a.Symbol + "(" + a.Address.Hex() + ")"
}
