package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cavaliercoder/grab"
	"github.com/earthscan/s3loader/common"
	"github.com/earthscan/s3loader/service"
)

const (
	dhusProductValue  = "%sodata/v1/Products('%s')/$value"
	dhusOnlineValue   = "%sodata/v1/Products('%s')/Online/$value"
	dhusChecksumValue = "%sodata/v1/Products('%s')/Checksum/Value/$value"

	// DefaultDHUSURL is the public Copernicus open access hub
	DefaultDHUSURL = "https://scihub.copernicus.eu/dhus/"
)

// DHUSProvider implements ProductProvider for a DHUS-style OData archive
// (the primary archive, with online/offline tiering). It also serves the
// online-status probe and the reference checksum of a product.
type DHUSProvider struct {
	baseURL string
	user    string
	pword   string
	client  *grab.Client
	nbTries int
}

// NewDHUSProvider creates a new ProductProvider from a DHUS-style archive
func NewDHUSProvider(baseURL, user, pword string, nbTries int) *DHUSProvider {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &DHUSProvider{
		baseURL: baseURL,
		user:    user,
		pword:   pword,
		client:  grab.NewClient(),
		nbTries: nbTries,
	}
}

// Name implements ProductProvider
func (p *DHUSProvider) Name() string {
	return "DHUS"
}

// Download implements ProductProvider
func (p *DHUSProvider) Download(ctx context.Context, product common.Product, stagingPath string) ([]byte, int, error) {
	url := fmt.Sprintf(dhusProductValue, p.baseURL, product.UUID)
	content, tried, err := fetchRetry(ctx, p.client, url, stagingPath, func(req *http.Request) {
		req.SetBasicAuth(p.user, p.pword)
	}, p.nbTries)
	if err != nil {
		return nil, tried, fmt.Errorf("DHUSProvider.%w", err)
	}
	return content, tried, nil
}

// Online queries the archive for the online status of a product.
// applicable is false when the probe itself failed: the status is unknown
// and the product must be assumed retrievable.
func (p *DHUSProvider) Online(ctx context.Context, productUUID string) (applicable, online bool) {
	url := fmt.Sprintf(dhusOnlineValue, p.baseURL, productUUID)
	body, err := p.getValue(ctx, url)
	if err != nil {
		return false, false
	}
	return true, strings.TrimSpace(string(body)) == "true"
}

// Checksum returns the reference checksum of a product, as reported by the archive
func (p *DHUSProvider) Checksum(ctx context.Context, productUUID string) (string, error) {
	url := fmt.Sprintf(dhusChecksumValue, p.baseURL, productUUID)
	body, err := p.getValue(ctx, url)
	if err != nil {
		return "", fmt.Errorf("DHUSProvider.Checksum: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// getValue GETs a small OData property with basic auth
func (p *DHUSProvider) getValue(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("getValue.NewRequest: %w", err)
	}
	req.SetBasicAuth(p.user, p.pword)
	return service.GetBodyRetryReq(req, p.nbTries-1)
}
