package zensegur

// FResult pairs an HTTP status with the body to render.
type FResult struct {
	Code int
	Data any
}

func NewFResult(code int, data any) *FResult {
	return &FResult{Code: code, Data: data}
}
