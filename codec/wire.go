package codec

import (
	"fmt"

	"github.com/nftopia/stellar-auth/core"
)

// Wire structs mirror the core types field for field. Keeping them
// local to this package means the domain types never learn about CBOR
// tags and the wire format cannot drift without touching this file.

type wireEnvelope struct {
	Body       wireBody        `cbor:"body"`
	Signatures []wireSignature `cbor:"sigs"`
}

type wireBody struct {
	Source   []byte          `cbor:"source"`
	Sequence uint64          `cbor:"seq"`
	Fee      uint32          `cbor:"fee"`
	MinTime  uint64          `cbor:"min_time"`
	MaxTime  uint64          `cbor:"max_time"`
	Ops      []wireOperation `cbor:"ops"`
}

type wireOperation struct {
	Kind  uint8  `cbor:"kind"`
	Actor []byte `cbor:"actor"`
	Key   string `cbor:"key"`
	Value []byte `cbor:"value"`
}

type wireSignature struct {
	Hint      []byte `cbor:"hint"`
	Signature []byte `cbor:"sig"`
}

func toWireBody(env core.Envelope) wireBody {
	ops := make([]wireOperation, 0, len(env.Operations))
	for _, op := range env.Operations {
		ops = append(ops, wireOperation{
			Kind:  uint8(op.Kind),
			Actor: op.Actor[:],
			Key:   op.Key,
			Value: op.Value,
		})
	}
	return wireBody{
		Source:   env.Source[:],
		Sequence: env.Sequence,
		Fee:      env.Fee,
		MinTime:  env.MinTime,
		MaxTime:  env.MaxTime,
		Ops:      ops,
	}
}

func toWireEnvelope(env core.Envelope) wireEnvelope {
	sigs := make([]wireSignature, 0, len(env.Signatures))
	for _, sig := range env.Signatures {
		sigs = append(sigs, wireSignature{
			Hint:      sig.Hint[:],
			Signature: sig.Signature[:],
		})
	}
	return wireEnvelope{
		Body:       toWireBody(env),
		Signatures: sigs,
	}
}

func fromWireEnvelope(wire wireEnvelope) (core.Envelope, error) {
	source, err := core.IdentityFromBytes(wire.Body.Source)
	if err != nil {
		return core.Envelope{}, fmt.Errorf("%w: bad source key", core.ErrMalformed)
	}

	env := core.Envelope{
		Source:   source,
		Sequence: wire.Body.Sequence,
		Fee:      wire.Body.Fee,
		MinTime:  wire.Body.MinTime,
		MaxTime:  wire.Body.MaxTime,
	}

	if len(wire.Body.Ops) > 0 {
		env.Operations = make([]core.Operation, 0, len(wire.Body.Ops))
	}
	for _, op := range wire.Body.Ops {
		actor, err := core.IdentityFromBytes(op.Actor)
		if err != nil {
			return core.Envelope{}, fmt.Errorf("%w: bad operation actor key", core.ErrMalformed)
		}
		env.Operations = append(env.Operations, core.Operation{
			Kind:  core.OperationKind(op.Kind),
			Actor: actor,
			Key:   op.Key,
			Value: op.Value,
		})
	}

	if len(wire.Signatures) > 0 {
		env.Signatures = make([]core.DecoratedSignature, 0, len(wire.Signatures))
	}
	for _, sig := range wire.Signatures {
		var ds core.DecoratedSignature
		if len(sig.Hint) != len(ds.Hint) {
			return core.Envelope{}, fmt.Errorf("%w: signature hint must be %d bytes", core.ErrMalformed, len(ds.Hint))
		}
		if len(sig.Signature) != core.SignatureSize {
			return core.Envelope{}, fmt.Errorf("%w: signature must be %d bytes", core.ErrMalformed, core.SignatureSize)
		}
		copy(ds.Hint[:], sig.Hint)
		copy(ds.Signature[:], sig.Signature)
		env.Signatures = append(env.Signatures, ds)
	}

	return env, nil
}
