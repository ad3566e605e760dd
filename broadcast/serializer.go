package broadcast

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/types"
)

// encoder writes the chain's binary wire format: little endian integers,
// LEB128 varuint32 lengths and names packed into uint64.
type encoder struct {
	buf bytes.Buffer
	err error
}

func (e *encoder) uint8(v uint8) { e.buf.WriteByte(v) }

func (e *encoder) uint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) uint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) varuint32(v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		e.buf.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

func (e *encoder) name(s string) {
	if e.err != nil {
		return
	}
	v, err := lib.StringToName(s)
	if err != nil {
		e.err = err
		return
	}
	e.uint64(v)
}

func (e *encoder) bytes(b []byte) {
	e.varuint32(uint32(len(b)))
	e.buf.Write(b)
}

// SerializeTransaction packs trx. Every action must already carry binary data.
func SerializeTransaction(trx *types.Transaction) ([]byte, error) {
	var e encoder
	e.uint32(uint32(trx.Expiration.Unix()))
	e.uint16(trx.RefBlockNum)
	e.uint32(trx.RefBlockPrefix)
	e.varuint32(0) // max_net_usage_words
	e.uint8(0)     // max_cpu_usage_ms
	e.varuint32(0) // delay_sec

	e.varuint32(0) // context_free_actions
	e.varuint32(uint32(len(trx.Actions)))
	for i, act := range trx.Actions {
		data, ok := act.Data.([]byte)
		if !ok {
			return nil, fmt.Errorf("action %d (%s::%s) is not encoded", i, act.Account, act.Name)
		}
		e.name(act.Account)
		e.name(act.Name)
		e.varuint32(uint32(len(act.Authorization)))
		for _, auth := range act.Authorization {
			e.name(auth.Actor)
			e.name(auth.Permission)
		}
		e.bytes(data)
	}
	e.varuint32(0) // transaction_extensions

	if e.err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", e.err)
	}
	return e.buf.Bytes(), nil
}
