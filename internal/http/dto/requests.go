package dto

type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Username *string `json:"username,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty"`
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type CreateListingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	PriceCents  int64    `json:"price_cents"`
	Condition   string   `json:"condition"`
	Category    string   `json:"category"`
	Specs       any      `json:"specs,omitempty"`
	Images      []string `json:"images,omitempty"`
	Publish     bool     `json:"publish,omitempty"`
}

type ImportListingRequest struct {
	PageURL  string `json:"page_url"`
	Category string `json:"category"`
}

type CheckoutRequest struct {
	ListingID       string `json:"listing_id"`
	ShippingAddress any    `json:"shipping_address"`
}

type OpenDisputeRequest struct {
	Reason       string   `json:"reason"`
	Description  string   `json:"description,omitempty"`
	EvidenceURLs []string `json:"evidence_urls,omitempty"`
}

type IssueVerdictRequest struct {
	Verdict string `json:"verdict"` // BUYER / SELLER / REJECTED
}
