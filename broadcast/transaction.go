package broadcast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cosmossdk.io/log"

	"github.com/crptomonkeys/greenwiz/lib/chainregistry"
	"github.com/crptomonkeys/greenwiz/types"
)

// PreparedTransaction is a transaction bound to a reference block, with every
// action encoded, ready to be serialized exactly once.
type PreparedTransaction struct {
	ChainID     string
	Transaction types.Transaction
	Endpoint    string
}

// SignedTransaction is the single signed serialization sent to every node.
type SignedTransaction struct {
	ID     string
	Packed *PackedTransaction
}

// Builder fetches reference block data and encodes actions.
type Builder struct {
	registry   *chainregistry.Registry
	pool       *clientPool
	expiration time.Duration
	chainID    string
	logger     log.Logger
}

// Prepare walks core endpoints in order and stops at the first one that
// yields a head block, a chain id and an encoding for every action.
func (b *Builder) Prepare(ctx context.Context, actions []types.Action) (*PreparedTransaction, error) {
	if len(actions) == 0 {
		return nil, fmt.Errorf("a transaction must have at least one action")
	}
	endpoints, err := b.registry.Require(chainregistry.RoleCore)
	if err != nil {
		return nil, &types.BroadcastError{Stage: "prepare", Cause: err}
	}

	var failures []types.EndpointFailure
	for _, endpoint := range endpoints {
		if err := ctx.Err(); err != nil {
			return nil, &types.BroadcastError{Stage: "prepare", Failures: failures, Cause: err}
		}
		prepared, err := b.prepareWith(ctx, b.pool.get(endpoint), actions)
		if err != nil {
			b.logger.Debug("failed to set up transaction", "endpoint", endpoint, "err", err)
			failures = append(failures, types.EndpointFailure{URL: endpoint, Reason: err.Error()})
			continue
		}
		if len(failures) > 0 {
			b.logger.Info("prepared transaction after failures", "endpoint", endpoint, "failed", len(failures))
		}
		return prepared, nil
	}
	return nil, &types.BroadcastError{Stage: "prepare", Failures: failures}
}

func (b *Builder) prepareWith(ctx context.Context, client *Client, actions []types.Action) (*PreparedTransaction, error) {
	chainID, block, err := client.GetHeadBlock(ctx)
	if err != nil {
		return nil, err
	}
	if b.chainID != "" && chainID != b.chainID {
		return nil, fmt.Errorf("endpoint reports chain %s, expected %s", chainID, b.chainID)
	}
	blockTime, err := block.Time()
	if err != nil {
		return nil, err
	}

	encoded := make([]types.Action, len(actions))
	for i, act := range actions {
		encoded[i] = act
		if _, ok := act.Data.([]byte); ok {
			continue
		}
		data, err := client.ABIJSONToBin(ctx, act.Account, act.Name, act.Data)
		if err != nil {
			return nil, fmt.Errorf("abi_json_to_bin %s::%s: %w", act.Account, act.Name, err)
		}
		encoded[i].Data = data
	}

	return &PreparedTransaction{
		ChainID:  chainID,
		Endpoint: client.URL(),
		Transaction: types.Transaction{
			Expiration:     blockTime.Add(b.expiration),
			RefBlockNum:    uint16(block.BlockNum & 0xffff),
			RefBlockPrefix: block.RefBlockPrefix,
			Actions:        encoded,
		},
	}, nil
}

// SigningDigest is sha256(chain id ‖ packed trx ‖ 32 zero bytes of context free data hash).
func SigningDigest(chainID string, packed []byte) ([]byte, error) {
	id, err := hex.DecodeString(chainID)
	if err != nil {
		return nil, fmt.Errorf("invalid chain id %q: %w", chainID, err)
	}
	h := sha256.New()
	h.Write(id)
	h.Write(packed)
	h.Write(make([]byte, 32))
	return h.Sum(nil), nil
}

// Sign serializes prepared once and signs that serialization once.
func Sign(prepared *PreparedTransaction, signer types.Signer) (*SignedTransaction, error) {
	packed, err := SerializeTransaction(&prepared.Transaction)
	if err != nil {
		return nil, err
	}
	digest, err := SigningDigest(prepared.ChainID, packed)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(digest)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	id := sha256.Sum256(packed)
	return &SignedTransaction{
		ID: hex.EncodeToString(id[:]),
		Packed: &PackedTransaction{
			Signatures: []string{sig},
			PackedTrx:  hex.EncodeToString(packed),
		},
	}, nil
}
