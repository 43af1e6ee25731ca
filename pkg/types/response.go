package types

// Envelope wraps every successful JSON body as {"data": ...}.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// Failure wraps every error body as {"error": {...}}.
type Failure struct {
	Error Problem `json:"error"`
}

// Problem carries a stable machine code and a message safe to show users.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Data wraps v in a success envelope.
func Data[T any](v T) Envelope[T] {
	return Envelope[T]{Data: v}
}
