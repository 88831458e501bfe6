package pqkd

// Operation is one of the three KME calls.
type Operation int

const (
	OpStatus Operation = iota
	OpEncKeys
	OpDecKeys
)

func (op Operation) String() string {
	switch op {
	case OpStatus:
		return "status"
	case OpEncKeys:
		return "enc_keys"
	case OpDecKeys:
		return "dec_keys"
	default:
		return "unknown"
	}
}

// Request is a finalized KME operation. It is produced by RequestBuilder.Finalize
// and is read-only afterwards.
type Request struct {
	op     Operation
	saeID  string
	size   uint16
	number uint32
	keyIDs []string
}

func newRequest(op Operation, saeID string) *Request {
	return &Request{
		op:     op,
		saeID:  saeID,
		size:   DefaultKeySize,
		number: DefaultKeyCount,
	}
}

func (r *Request) Operation() Operation { return r.op }

// SAEID is the partner secure application entity the request targets.
func (r *Request) SAEID() string { return r.saeID }

// KeySize is the requested key size in bits.
func (r *Request) KeySize() uint16 { return r.size }

// KeyCount is the number of fresh keys requested. It is not sent when key IDs
// are present.
func (r *Request) KeyCount() uint32 { return r.number }

// KeyIDs returns a copy of the requested key IDs, in caller order.
func (r *Request) KeyIDs() []string {
	ids := make([]string, len(r.keyIDs))
	copy(ids, r.keyIDs)
	return ids
}
