package lib

import (
	"fmt"
	"strings"
)

// extraSpecials are premium suffixes always accepted.
var extraSpecials = []string{"wam", "waa", "wax"}

var systemAccounts = map[string]bool{
	"eosio.bpay":   true,
	"eosio.msig":   true,
	"eosio.names":  true,
	"eosio.ram":    true,
	"eosio.ramfee": true,
	"eosio.saving": true,
	"eosio.stake":  true,
	"eosio.token":  true,
	"eosio.vpay":   true,
	"eosio.rex":    true,
}

// AccountValidator decides whether a string is a usable WAX account name.
// Names shorter than 12 characters must end in a known premium suffix.
type AccountValidator struct {
	specials map[string]bool
}

// NewAccountValidator builds a validator accepting the built-in suffixes plus specials.
func NewAccountValidator(specials ...string) *AccountValidator {
	v := &AccountValidator{specials: make(map[string]bool, len(specials)+len(extraSpecials))}
	for _, s := range extraSpecials {
		v.specials[s] = true
	}
	for _, s := range specials {
		if s = strings.TrimSpace(s); s != "" {
			v.specials[s] = true
		}
	}
	return v
}

// Valid reports whether addr is a valid WAX account name.
func (v *AccountValidator) Valid(addr string) bool {
	if len(addr) < 1 || len(addr) > 12 {
		return false
	}
	for _, c := range addr {
		if !isNameChar(c) {
			return false
		}
	}
	if len(addr) == 12 || systemAccounts[addr] {
		return true
	}
	base := addr[strings.LastIndexByte(addr, '.')+1:]
	if base == "" {
		return false
	}
	return v.specials[base]
}

// Parse returns the first whitespace separated token in text that is a valid account.
func (v *AccountValidator) Parse(text string) (string, bool) {
	for _, item := range strings.Fields(text) {
		if v.Valid(item) {
			return item, true
		}
	}
	return "", false
}

func isNameChar(c rune) bool {
	return c == '.' || (c >= '1' && c <= '5') || (c >= 'a' && c <= 'z')
}

func charToSymbol(c byte) uint64 {
	switch {
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 6
	case c >= '1' && c <= '5':
		return uint64(c-'1') + 1
	}
	return 0
}

// StringToName encodes an EOSIO name into its uint64 form.
func StringToName(s string) (uint64, error) {
	if len(s) > 13 {
		return 0, fmt.Errorf("name %q is longer than 13 characters", s)
	}
	var value uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '.' && charToSymbol(c) == 0 {
			return 0, fmt.Errorf("name %q contains invalid character %q", s, c)
		}
		sym := charToSymbol(c)
		if i < 12 {
			value |= (sym & 0x1f) << (64 - 5*(i+1))
		} else {
			if sym > 0x0f {
				return 0, fmt.Errorf("name %q has an invalid 13th character", s)
			}
			value |= sym & 0x0f
		}
	}
	return value, nil
}

const nameCharmap = ".12345abcdefghijklmnopqrstuvwxyz"

// NameToString decodes a uint64 EOSIO name.
func NameToString(value uint64) string {
	out := make([]byte, 13)
	tmp := value
	for i := 0; i <= 12; i++ {
		var c byte
		if i == 0 {
			c = nameCharmap[tmp&0x0f]
			tmp >>= 4
		} else {
			c = nameCharmap[tmp&0x1f]
			tmp >>= 5
		}
		out[12-i] = c
	}
	return strings.TrimRight(string(out), ".")
}
