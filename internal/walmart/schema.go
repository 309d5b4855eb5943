package walmart

// Raw response shapes of the Walmart affiliate API.

type rawStore struct {
	No            int       `json:"no"`
	Name          string    `json:"name"`
	Coordinates   []float64 `json:"coordinates"` // [lon, lat]
	StreetAddress string    `json:"streetAddress"`
	City          string    `json:"city"`
	StateProvCode string    `json:"stateProvCode"`
	Zip           string    `json:"zip"`
	PhoneNumber   string    `json:"phoneNumber"`
}

type searchResponse struct {
	Query        string    `json:"query"`
	TotalResults int       `json:"totalResults"`
	Items        []rawItem `json:"items"`
}

type rawItem struct {
	ItemID         int64   `json:"itemId"`
	Name           string  `json:"name"`
	MSRP           float64 `json:"msrp"`
	SalePrice      float64 `json:"salePrice"`
	UPC            string  `json:"upc"`
	BrandName      string  `json:"brandName"`
	ThumbnailImage string  `json:"thumbnailImage"`
	MediumImage    string  `json:"mediumImage"`
	Size           string  `json:"size"`
}
