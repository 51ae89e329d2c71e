package domain

// Product is a gift card brand sold in fixed face values. Immutable.
type Product struct {
	ID          string  `json:"id"`
	Brand       string  `json:"brand"`
	Description string  `json:"description"`
	FaceValues  []int64 `json:"face_values"` // ordered, in smallest currency unit
	Country     string  `json:"country"`
}

// HasFaceValue reports whether amount is one of the product's face values.
func (p *Product) HasFaceValue(amount int64) bool {
	for _, v := range p.FaceValues {
		if v == amount {
			return true
		}
	}
	return false
}

// DemoCatalog returns the products offered by the storefront.
func DemoCatalog() []Product {
	return []Product{
		{
			ID:          "apple-ci",
			Brand:       "Apple • CI",
			Description: "Cartes Apple (App Store, musique…)",
			FaceValues:  []int64{10000, 25000, 50000},
			Country:     "CI",
		},
		{
			ID:          "psn-ci",
			Brand:       "PSN • CI",
			Description: "PlayStation Store : jeux, addons, PS Plus.",
			FaceValues:  []int64{10000, 20000, 40000},
			Country:     "CI",
		},
		{
			ID:          "gplay-ci",
			Brand:       "Google Play • CI",
			Description: "Apps et contenus Google Play.",
			FaceValues:  []int64{10000, 15000, 30000},
			Country:     "CI",
		},
	}
}
