package req

type MessageRequest struct {
	Content   string `json:"content" validate:"required,max=4000"`
	ClientRef string `json:"client_ref,omitempty" validate:"omitempty,max=64"`
}
