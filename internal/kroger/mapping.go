package kroger

import "github.com/chinmina/grocery-bridge/internal/grocery"

// preferredImageSize is the rendition chosen when an image offers several.
const preferredImageSize = "medium"

func toLocations(raw []rawLocation) []grocery.StoreLocation {
	raw = grocery.Truncate(raw)

	locations := make([]grocery.StoreLocation, 0, len(raw))
	for _, r := range raw {
		locations = append(locations, grocery.StoreLocation{
			LocationID: r.LocationID,
			Chain:      r.Chain,
			Name:       r.Name,
			Phone:      r.Phone,
			Address: grocery.Address{
				Line1:  r.Address.AddressLine1,
				City:   r.Address.City,
				State:  r.Address.State,
				Zip:    r.Address.ZipCode,
				County: r.Address.County,
			},
			Geo: grocery.Geo{
				Lat: r.Geolocation.Latitude,
				Lon: r.Geolocation.Longitude,
			},
		})
	}

	return locations
}

func toProducts(raw []rawProduct) []grocery.Product {
	raw = grocery.Truncate(raw)

	products := make([]grocery.Product, 0, len(raw))
	for _, r := range raw {
		p := grocery.Product{
			ProductID:   r.ProductID,
			UPC:         r.UPC,
			Brand:       r.Brand,
			Description: r.Description,
			ImageURL:    imageURL(r.Images),
		}

		// price and size describe the first sellable item
		if len(r.Items) > 0 {
			item := r.Items[0]
			if item.Price != nil {
				p.Price = item.Price.Regular
			}
			p.Size = item.Size
			p.SoldBy = item.SoldBy
		}

		products = append(products, p)
	}

	return products
}

// imageURL picks the featured image (falling back to the front perspective,
// then the first image) and returns its medium rendition, or the first
// rendition available. Products without images map to "".
func imageURL(images []rawImage) string {
	if len(images) == 0 {
		return ""
	}

	chosen := images[0]
	for _, img := range images {
		if img.Featured {
			chosen = img
			break
		}
		if img.Perspective == "front" && chosen.Perspective != "front" {
			chosen = img
		}
	}

	for _, s := range chosen.Sizes {
		if s.Size == preferredImageSize && s.URL != "" {
			return s.URL
		}
	}

	for _, s := range chosen.Sizes {
		if s.URL != "" {
			return s.URL
		}
	}

	return ""
}
