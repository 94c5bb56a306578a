package domain

// Outcome enumerates every way a gateway callback can resolve. Handlers
// switch on it exhaustively; there is no free-form error channel back to
// the gateway.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeFailedPayment
	OutcomeDuplicate
	OutcomeInvalidSignature
	OutcomeMalformedRef
	OutcomeOrderNotFound
	OutcomeAmountMismatch
	OutcomeInternalError
)

type Result struct {
	Outcome   Outcome
	OrderID   int64
	OrderCode string
}

// Ack is the small structured body the server-to-server notify endpoint
// returns; the gateway parses it and stops retrying on any known code.
type Ack struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// Mutated reports whether the callback changed persistent state.
func (o Outcome) Mutated() bool {
	return o == OutcomeApplied || o == OutcomeFailedPayment
}

// GatewayAck maps an outcome onto the gateway's IPN acknowledgement codes.
// Duplicates ack as already-confirmed so the gateway stops retrying.
func (r Result) GatewayAck() Ack {
	switch r.Outcome {
	case OutcomeApplied:
		return Ack{RspCode: "00", Message: "Confirm Success"}
	case OutcomeFailedPayment:
		return Ack{RspCode: "00", Message: "Confirm Success"}
	case OutcomeDuplicate:
		return Ack{RspCode: "02", Message: "Order already confirmed"}
	case OutcomeOrderNotFound:
		return Ack{RspCode: "01", Message: "Order not found"}
	case OutcomeAmountMismatch:
		return Ack{RspCode: "04", Message: "Invalid amount"}
	case OutcomeInvalidSignature:
		return Ack{RspCode: "97", Message: "Invalid signature"}
	default:
		return Ack{RspCode: "99", Message: "Unknown error"}
	}
}

// BrowserMessage is the human-readable outcome for the return-URL path.
func (r Result) BrowserMessage() (bool, string) {
	switch r.Outcome {
	case OutcomeApplied:
		return true, "Payment confirmed, order is being processed"
	case OutcomeDuplicate:
		return true, "Payment was already processed"
	case OutcomeFailedPayment:
		return false, "Payment failed, order has been cancelled"
	case OutcomeInvalidSignature:
		return false, "Invalid payment signature"
	case OutcomeMalformedRef:
		return false, "Malformed transaction reference"
	case OutcomeOrderNotFound:
		return false, "Order not found"
	case OutcomeAmountMismatch:
		return false, "Payment amount does not match order total"
	default:
		return false, "Payment could not be processed"
	}
}
