package provider

import (
	"context"

	"github.com/earthscan/s3loader/common"
)

// ProductProvider is the interface of a product download service
type ProductProvider interface {
	// Download retrieves the zip content of the product, staging it at
	// stagingPath while the transfer is in flight. The staging file is
	// removed once the content has been loaded, on success and on failure.
	// Returns the content and the number of attempts made; content is nil
	// when every attempt failed.
	Download(ctx context.Context, product common.Product, stagingPath string) ([]byte, int, error)

	// Name of the provider
	Name() string
}
