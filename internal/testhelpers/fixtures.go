package testhelpers

import "fmt"

// KrogerLocationID returns the location id used by KrogerLocations for the
// i'th (zero-based) entry.
func KrogerLocationID(i int) string {
	return fmt.Sprintf("014%05d", i+1)
}

// KrogerLocations builds a raw /locations response with n stores.
func KrogerLocations(n int) map[string]any {
	data := make([]any, 0, n)
	for i := range n {
		data = append(data, map[string]any{
			"locationId": KrogerLocationID(i),
			"chain":      "KROGER",
			"name":       fmt.Sprintf("Kroger Store %d", i+1),
			"phone":      "5135550100",
			"address": map[string]any{
				"addressLine1": fmt.Sprintf("%d Vine St", 100+i),
				"city":         "Cincinnati",
				"state":        "OH",
				"zipCode":      "45202",
				"county":       "Hamilton",
			},
			"geolocation": map[string]any{
				"latitude":  39.1 + float64(i)/100,
				"longitude": -84.5,
			},
		})
	}

	return map[string]any{"data": data}
}

// KrogerProducts builds a raw /products response with n products, each with
// a featured front image and a regular price.
func KrogerProducts(n int) map[string]any {
	data := make([]any, 0, n)
	for i := range n {
		id := fmt.Sprintf("00011110%05d", i+1)
		data = append(data, map[string]any{
			"productId":   id,
			"upc":         id,
			"brand":       "Kroger",
			"description": fmt.Sprintf("Kroger 2%% Milk %d", i+1),
			"images": []any{
				map[string]any{
					"perspective": "back",
					"sizes": []any{
						map[string]any{"size": "medium", "url": "https://img.example/" + id + "/back/medium.jpg"},
					},
				},
				map[string]any{
					"perspective": "front",
					"featured":    true,
					"sizes": []any{
						map[string]any{"size": "thumbnail", "url": "https://img.example/" + id + "/front/thumbnail.jpg"},
						map[string]any{"size": "medium", "url": "https://img.example/" + id + "/front/medium.jpg"},
					},
				},
			},
			"items": []any{
				map[string]any{
					"price":  map[string]any{"regular": 2.49 + float64(i), "promo": 0},
					"size":   "1 gal",
					"soldBy": "UNIT",
				},
			},
		})
	}

	return map[string]any{"data": data}
}

// WalmartStoreID returns the store number used by WalmartStores for the
// i'th (zero-based) entry.
func WalmartStoreID(i int) int {
	return 100 + i
}

// WalmartStores builds a raw /stores response with n stores.
func WalmartStores(n int) []any {
	stores := make([]any, 0, n)
	for i := range n {
		stores = append(stores, map[string]any{
			"no":            WalmartStoreID(i),
			"name":          fmt.Sprintf("Bentonville Supercenter %d", i+1),
			"coordinates":   []float64{-94.2, 36.3 + float64(i)/100},
			"streetAddress": fmt.Sprintf("%d SE Walton Blvd", 400+i),
			"city":          "Bentonville",
			"stateProvCode": "AR",
			"zip":           "72712",
			"phoneNumber":   "479-555-0100",
		})
	}

	return stores
}

// WalmartSearch builds a raw /search response with n items.
func WalmartSearch(n int) map[string]any {
	items := make([]any, 0, n)
	for i := range n {
		id := 1000 + i
		items = append(items, map[string]any{
			"itemId":         id,
			"name":           fmt.Sprintf("Great Value Whole Milk %d", i+1),
			"msrp":           3.68 + float64(i),
			"salePrice":      3.18 + float64(i),
			"upc":            fmt.Sprintf("07874235%04d", id),
			"brandName":      "Great Value",
			"thumbnailImage": fmt.Sprintf("https://i5.walmartimages.com/%d/thumb.jpg", id),
			"mediumImage":    fmt.Sprintf("https://i5.walmartimages.com/%d/medium.jpg", id),
			"size":           "1 gal",
		})
	}

	return map[string]any{"items": items}
}
