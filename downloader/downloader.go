package downloader

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/earthscan/s3loader/common"
	"github.com/earthscan/s3loader/interface/provider"
	"github.com/earthscan/s3loader/service/log"
)

// PrimaryArchive is the archive of reference: it serves the product content,
// the online-status probe and the checksum every download is verified
// against, whichever mirror provided the bytes.
type PrimaryArchive interface {
	provider.ProductProvider
	Online(ctx context.Context, productUUID string) (applicable, online bool)
	Checksum(ctx context.Context, productUUID string) (string, error)
}

// Downloader fetches products to a local directory, verifying their
// integrity against the primary archive.
type Downloader struct {
	primary   PrimaryArchive
	secondary provider.ProductProvider // nil when no mirror API key is configured
	loadDir   string
}

// New creates a Downloader extracting products into loadDir.
// secondary may be nil: products offline in the primary archive are then
// reported as failed.
func New(primary PrimaryArchive, secondary provider.ProductProvider, loadDir string) *Downloader {
	return &Downloader{
		primary:   primary,
		secondary: secondary,
		loadDir:   loadDir,
	}
}

// targetDir is the extraction target of the product
func (d *Downloader) targetDir(product common.Product) string {
	return filepath.Join(d.loadDir, product.Name+"."+common.ExtensionSEN3)
}

// ProcessProduct runs the fetch workflow for a single product: local
// existence check, online-status probe, primary fetch, conditional mirror
// fallback, checksum verification, extraction. Returns whether the product
// ends up extracted under the load directory; failures are logged, never
// raised.
func (d *Downloader) ProcessProduct(ctx context.Context, product common.Product, stagingPath string) bool {
	if fi, err := os.Stat(d.targetDir(product)); err == nil && fi.IsDir() {
		log.Logger(ctx).Sugar().Infof("product %s.%s has already been downloaded to %s", product.Name, common.ExtensionSEN3, d.loadDir)
		return true
	}

	applicable, online := d.primary.Online(ctx, product.UUID)

	var content []byte
	if online || !applicable {
		log.Logger(ctx).Sugar().Infof("started downloading %s from %s", product.Name, d.primary.Name())
		var tried int
		var err error
		if content, tried, err = d.primary.Download(ctx, product, stagingPath); err != nil {
			log.Logger(ctx).Sugar().Warnf("%s: %v", d.primary.Name(), err)
			log.Logger(ctx).Sugar().Errorf("was not able to download the product %s after %d attempts", product.Name, tried)
		}
	}

	if content == nil {
		if applicable && !online {
			log.Logger(ctx).Sugar().Warnf("product %s is offline in the long term archive", product.Name)
		}
		if content = d.downloadFallback(ctx, product, stagingPath); content == nil {
			return false
		}
	}

	if !d.checksumOK(ctx, content, product) {
		log.Logger(ctx).Sugar().Errorf("checksums were not equal for %s, the product is not downloaded", product.Name)
		return false
	}

	if err := d.extract(content, stagingPath); err != nil {
		log.Logger(ctx).Sugar().Errorf("extract %s: %v", product.Name, err)
		return false
	}
	log.Logger(ctx).Sugar().Infof("successfully unzipped and saved %s.%s in %s", product.Name, common.ExtensionSEN3, d.loadDir)
	return true
}

// downloadFallback attempts the secondary mirror when it is eligible:
// the product type must be mirrored and an API key must be configured.
func (d *Downloader) downloadFallback(ctx context.Context, product common.Product, stagingPath string) []byte {
	if !provider.Mirrored(product.Name) {
		log.Logger(ctx).Sugar().Warnf("the product is not available at the mirror, can not use the alternative mirror to download %s", product.Name)
		return nil
	}
	if d.secondary == nil {
		log.Logger(ctx).Sugar().Warnf("mirror API key was not provided, can not use the alternative mirror to download %s", product.Name)
		return nil
	}

	log.Logger(ctx).Sugar().Infof("started downloading %s from %s", product.Name, d.secondary.Name())
	content, tried, err := d.secondary.Download(ctx, product, stagingPath)
	if err != nil {
		log.Logger(ctx).Sugar().Warnf("%s: %v", d.secondary.Name(), err)
		log.Logger(ctx).Sugar().Errorf("was not able to download the product %s after %d attempts", product.Name, tried)
		return nil
	}
	return content
}

// checksumOK fetches the reference checksum from the primary archive and
// compares it with the hash of the downloaded content. A reference that can
// not be fetched blocks acceptance; a mismatch is a normal outcome path.
func (d *Downloader) checksumOK(ctx context.Context, content []byte, product common.Product) bool {
	expected, err := d.primary.Checksum(ctx, product.UUID)
	if err != nil {
		log.Logger(ctx).Sugar().Warnf("reference checksum was not downloaded: %v", err)
		return false
	}
	sum := fmt.Sprintf("%x", md5.Sum(content))
	return strings.EqualFold(sum, expected)
}

// extract unpacks the product zip into the load directory, producing the
// {name}.SEN3 directory tree.
func (d *Downloader) extract(content []byte, stagingPath string) error {
	zipPath := stagingPath + ".zip"
	if err := os.WriteFile(zipPath, content, 0o644); err != nil {
		return fmt.Errorf("extract.WriteFile: %w", err)
	}
	defer os.Remove(zipPath)
	if err := provider.Unarchive(zipPath, d.loadDir); err != nil {
		return fmt.Errorf("extract.%w", err)
	}
	return nil
}
