package pricing

import "time"

// PaymentAsset is a registered payment asset and its external price feed.
// The registry is owner-managed; an asset without a row here is not an
// acceptable means of payment.
type PaymentAsset struct {
	Asset     string    `gorm:"primaryKey;type:varchar(32)" json:"asset"`
	FeedURL   string    `gorm:"not null" json:"feed_url"`
	Exponent  int32     `gorm:"not null;default:8" json:"exponent"` // decimal places of the asset's minor unit
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for PaymentAsset
func (PaymentAsset) TableName() string {
	return "payment_assets"
}
