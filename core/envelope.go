package core

// OperationKind discriminates the operation variants an envelope can
// carry. Only data-entry operations exist today; the tag keeps the
// format open without a version bump.
type OperationKind uint8

const (
	// KindDataEntry is a name/value pair attached by an acting identity.
	KindDataEntry OperationKind = 1
)

// Sentinel values for the ledger-shaped envelope fields. The envelope
// is a signing artifact only: sequence and fee carry no meaning and
// the zero validity window can never contain a timestamp, so the
// envelope is rejected by construction anywhere outside this flow.
const (
	SentinelSequence uint64 = 0
	SentinelFee      uint32 = 0
)

// ChallengeDataKey is the data-entry name every challenge operation
// must carry.
const ChallengeDataKey = "auth"

// SignatureHint is the trailing four bytes of a signer's public key.
type SignatureHint [4]byte

// SignatureSize is the length of an ed25519 signature.
const SignatureSize = 64

// DecoratedSignature is a detached signature over the envelope's
// signing digest, tagged with a hint identifying the signing key.
type DecoratedSignature struct {
	Hint      SignatureHint
	Signature [SignatureSize]byte
}

// Operation is a single envelope operation. For challenges the actor
// must equal the envelope source and the key must be ChallengeDataKey.
type Operation struct {
	Kind  OperationKind
	Actor Identity
	Key   string
	Value []byte
}

// Envelope is the signable authentication artifact. Sequence, Fee,
// MinTime and MaxTime are fixed at their sentinel values; they exist
// so external signing tooling sees a familiar transaction shape.
type Envelope struct {
	Source     Identity
	Sequence   uint64
	Fee        uint32
	MinTime    uint64
	MaxTime    uint64
	Operations []Operation
	Signatures []DecoratedSignature
}

// NewChallengeEnvelope builds the unsigned challenge envelope for the
// given source identity and nonce.
func NewChallengeEnvelope(source Identity, nonce []byte) Envelope {
	return Envelope{
		Source:   source,
		Sequence: SentinelSequence,
		Fee:      SentinelFee,
		MinTime:  0,
		MaxTime:  0,
		Operations: []Operation{{
			Kind:  KindDataEntry,
			Actor: source,
			Key:   ChallengeDataKey,
			Value: nonce,
		}},
	}
}

// ChallengeOperation returns the single data-entry operation of a
// structurally valid challenge envelope, or ErrBadStructure.
func (e *Envelope) ChallengeOperation() (Operation, error) {
	if len(e.Operations) != 1 {
		return Operation{}, ErrBadStructure
	}
	op := e.Operations[0]
	if op.Kind != KindDataEntry || op.Key != ChallengeDataKey || len(op.Value) == 0 {
		return Operation{}, ErrBadStructure
	}
	return op, nil
}
