package topup

// CreateTopupReq is the generate-QR request body.
// swagger:model CreateTopupReq
type CreateTopupReq struct {
	Amount   float64 `json:"amount" validate:"required,gt=0,lte=10000"`
	Currency string  `json:"currency" validate:"required,oneof=USD KHR"`
}
