// Package eosiotoken builds eosio.token transfers of WAX.
package eosiotoken

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"

	"github.com/crptomonkeys/greenwiz/types"
)

const (
	Contract  = "eosio.token"
	Symbol    = "WAX"
	Precision = 8
)

// TransferData is the transfer action payload.
type TransferData struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo"`
}

// Transfer sends quantity, already formatted as an asset string.
func Transfer(auth []types.PermissionLevel, from, to, quantity, memo string) types.Action {
	return types.Action{
		Account:       Contract,
		Name:          "transfer",
		Authorization: auth,
		Data: TransferData{
			From:     from,
			To:       to,
			Quantity: quantity,
			Memo:     memo,
		},
	}
}

// unitScale is 10^Precision, the number of indivisible units in one WAX.
var unitScale = sdkmath.NewInt(100_000_000)

// ParseAmount reads a decimal WAX amount, with or without the symbol.
func ParseAmount(s string) (sdkmath.LegacyDec, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), Symbol))
	d, err := sdkmath.LegacyNewDecFromStr(s)
	if err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("invalid WAX amount %q: %w", s, err)
	}
	if !d.IsPositive() {
		return sdkmath.LegacyDec{}, fmt.Errorf("WAX amount must be positive, got %s", s)
	}
	if units := d.MulInt(unitScale); !units.TruncateDec().Equal(units) {
		return sdkmath.LegacyDec{}, fmt.Errorf("WAX amount %s has more than %d decimals", s, Precision)
	}
	return d, nil
}

// FormatAmount renders amount at full WAX precision, e.g. "1.50000000 WAX".
// Digits beyond the eighth decimal are truncated.
func FormatAmount(amount sdkmath.LegacyDec) string {
	scale := unitScale
	units := amount.MulInt(scale).TruncateInt()
	neg := units.IsNegative()
	if neg {
		units = units.Neg()
	}
	whole := units.Quo(scale)
	frac := units.Mod(scale)
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%s.%08d %s", sign, whole.String(), frac.Int64(), Symbol)
}
