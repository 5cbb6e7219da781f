package model

// LabTest is a catalog item, the source of price snapshots. Catalog
// mutation is owned by a separate component; this service only reads.
type LabTest struct {
	Base
	Name                    string `db:"name" json:"name"`
	Description             string `db:"description" json:"description,omitempty"`
	Category                string `db:"category" json:"category"`
	PriceCents              int64  `db:"price_cents" json:"price_cents"`
	SampleType              string `db:"sample_type" json:"sample_type,omitempty"`
	PreparationInstructions string `db:"preparation_instructions" json:"preparation_instructions,omitempty"`
	ReportDeliveryTime      string `db:"report_delivery_time" json:"report_delivery_time,omitempty"`
	IsActive                bool   `db:"is_active" json:"is_active"`
}

// Snapshot captures the denormalized order-time detail for this test.
func (t *LabTest) Snapshot() TestDetail {
	return TestDetail{
		TestID:     t.ID,
		Name:       t.Name,
		PriceCents: t.PriceCents,
		Category:   t.Category,
	}
}
