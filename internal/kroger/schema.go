package kroger

// Raw response shapes of the Kroger public API. Only the fields mapped into
// the canonical model are declared.

type locationsResponse struct {
	Data []rawLocation `json:"data"`
}

type rawLocation struct {
	LocationID string `json:"locationId"`
	Chain      string `json:"chain"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    struct {
		AddressLine1 string `json:"addressLine1"`
		City         string `json:"city"`
		State        string `json:"state"`
		ZipCode      string `json:"zipCode"`
		County       string `json:"county"`
	} `json:"address"`
	Geolocation struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"geolocation"`
}

type productsResponse struct {
	Data []rawProduct `json:"data"`
}

type rawProduct struct {
	ProductID   string     `json:"productId"`
	UPC         string     `json:"upc"`
	Brand       string     `json:"brand"`
	Description string     `json:"description"`
	Images      []rawImage `json:"images"`
	Items       []rawItem  `json:"items"`
}

type rawImage struct {
	Perspective string `json:"perspective"`
	Featured    bool   `json:"featured"`
	Sizes       []struct {
		Size string `json:"size"`
		URL  string `json:"url"`
	} `json:"sizes"`
}

type rawItem struct {
	Price *struct {
		Regular float64 `json:"regular"`
		Promo   float64 `json:"promo"`
	} `json:"price"`
	Size   string `json:"size"`
	SoldBy string `json:"soldBy"`
}
