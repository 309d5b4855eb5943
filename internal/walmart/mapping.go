package walmart

import (
	"strconv"

	"github.com/chinmina/grocery-bridge/internal/grocery"
)

const chain = "WALMART"

func toLocations(raw []rawStore) []grocery.StoreLocation {
	raw = grocery.Truncate(raw)

	locations := make([]grocery.StoreLocation, 0, len(raw))
	for _, r := range raw {
		loc := grocery.StoreLocation{
			LocationID: strconv.Itoa(r.No),
			Chain:      chain,
			Name:       r.Name,
			Phone:      r.PhoneNumber,
			Address: grocery.Address{
				Line1: r.StreetAddress,
				City:  r.City,
				State: r.StateProvCode,
				Zip:   r.Zip,
			},
		}

		if len(r.Coordinates) == 2 {
			loc.Geo = grocery.Geo{Lat: r.Coordinates[1], Lon: r.Coordinates[0]}
		}

		locations = append(locations, loc)
	}

	return locations
}

func toProducts(raw []rawItem) []grocery.Product {
	raw = grocery.Truncate(raw)

	products := make([]grocery.Product, 0, len(raw))
	for _, r := range raw {
		products = append(products, grocery.Product{
			ProductID:   strconv.FormatInt(r.ItemID, 10),
			UPC:         r.UPC,
			Brand:       r.BrandName,
			Description: r.Name,
			ImageURL:    firstNonEmpty(r.MediumImage, r.ThumbnailImage),
			Price:       regularPrice(r),
			Size:        r.Size,
		})
	}

	return products
}

// regularPrice prefers the list price, falling back to the current sale price
// for items that carry no MSRP.
func regularPrice(r rawItem) float64 {
	if r.MSRP > 0 {
		return r.MSRP
	}
	return r.SalePrice
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
