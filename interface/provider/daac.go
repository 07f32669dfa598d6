package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cavaliercoder/grab"
	"github.com/earthscan/s3loader/common"
	"github.com/earthscan/s3loader/service"
	"golang.org/x/oauth2"
)

const (
	// DefaultDAACURL is the NASA LAADS DAAC archive of Sentinel-3 products
	DefaultDAACURL = "https://ladsweb.modaps.eosdis.nasa.gov/archive/allData/450/"

	// DefaultDAACTimeout bounds each mirror request: the mirror is a
	// fallback and is given a shorter budget than the primary archive.
	DefaultDAACTimeout = 10 * time.Second

	// The DAAC rejects non-browser agents
	daacUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/70.0.3538.77 " +
		"Safari/537.36 " +
		"Edg/79.0.309.43"
)

// MirroredProductTypes lists the product types replicated on the DAAC mirror
var MirroredProductTypes = service.NewStringSet(
	"OL_1_EFR___", "OL_1_ERR___",
	"SL_1_RBT___",
	"SY_2_SYN___",
)

// DAACProvider implements ProductProvider for the DAAC mirror, used as a
// fallback for products the primary archive holds offline. Authenticated
// with a bearer API key.
type DAACProvider struct {
	baseURL string
	client  *grab.Client
	nbTries int
}

// NewDAACProvider creates a new ProductProvider from the DAAC mirror
func NewDAACProvider(ctx context.Context, baseURL, apiKey string, timeout time.Duration, nbTries int) *DAACProvider {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"}))
	httpClient.Timeout = timeout
	client := grab.NewClient()
	client.HTTPClient = httpClient
	return &DAACProvider{
		baseURL: baseURL,
		client:  client,
		nbTries: nbTries,
	}
}

// Name implements ProductProvider
func (p *DAACProvider) Name() string {
	return "DAAC"
}

// Mirrored returns whether the mirror hosts this type of product
func Mirrored(productName string) bool {
	productType, err := common.ProductType(productName)
	if err != nil {
		return false
	}
	return MirroredProductTypes.Exists(productType)
}

// ProductPath derives the archive path of a product from its name:
// {product_type}/{year}/{day_of_year}/{name}.zip. Pure function, errors only
// on names too short for the fixed fields.
func ProductPath(productName string) (string, error) {
	productType, err := common.ProductType(productName)
	if err != nil {
		return "", err
	}
	start, err := common.SensingStart(productName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%04d/%03d/%s.zip", productType, start.Year(), start.YearDay(), productName), nil
}

// Download implements ProductProvider
func (p *DAACProvider) Download(ctx context.Context, product common.Product, stagingPath string) ([]byte, int, error) {
	path, err := ProductPath(product.Name)
	if err != nil {
		return nil, 0, fmt.Errorf("DAACProvider.%w", err)
	}
	content, tried, err := fetchRetry(ctx, p.client, p.baseURL+path, stagingPath, func(req *http.Request) {
		req.Header.Set("User-Agent", daacUserAgent)
	}, p.nbTries)
	if err != nil {
		return nil, tried, fmt.Errorf("DAACProvider.%w", err)
	}
	return content, tried, nil
}
