package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/earthscan/s3loader/common"
	"github.com/earthscan/s3loader/downloader"
	"github.com/earthscan/s3loader/interface/database/pg"
	"github.com/earthscan/s3loader/interface/provider"
	"github.com/earthscan/s3loader/service/log"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type config struct {
	LoadDir string
	WorkDir string

	DHUSURL      string
	DHUSUsername string
	DHUSPassword string
	DAACURL      string
	DAACAPIKey   string

	NbTries  int
	Parallel int

	FrequentOrbitsOnly bool

	DbConnection string
	ProductType  string
	Period       []string
	Point        []float64
}

var cfg config

var rootCmd = &cobra.Command{
	Use:           "s3loader [products-file]",
	Short:         "Download Sentinel-3 products from the Copernicus hub, with DAAC mirror fallback, MD5 verification and extraction.",
	Example:       "s3loader --dhus-username=user --dhus-password=pass --daac-apikey=KEY --parallel=2 products.txt",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), args)
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfg.LoadDir, "dir", ".", "directory where the products are extracted")
	rootCmd.Flags().StringVar(&cfg.WorkDir, "workdir", os.TempDir(), "working directory for staging files")
	rootCmd.Flags().StringVar(&cfg.DHUSURL, "dhus-url", provider.DefaultDHUSURL, "primary archive endpoint (DHUS-style OData)")
	rootCmd.Flags().StringVar(&cfg.DHUSUsername, "dhus-username", "", "primary archive account username")
	rootCmd.Flags().StringVar(&cfg.DHUSPassword, "dhus-password", "", "primary archive account password")
	rootCmd.Flags().StringVar(&cfg.DAACURL, "daac-url", provider.DefaultDAACURL, "mirror endpoint")
	rootCmd.Flags().StringVar(&cfg.DAACAPIKey, "daac-apikey", "", "mirror API key (optional). To configure the DAAC as a fallback for offline products.")
	rootCmd.Flags().IntVar(&cfg.NbTries, "tries", 3, "download attempts per product and per archive")
	rootCmd.Flags().IntVar(&cfg.Parallel, "parallel", 1, "number of concurrent downloads (2 restores the historical paired mode)")
	rootCmd.Flags().BoolVar(&cfg.FrequentOrbitsOnly, "frequent-orbits", false, "only download one product per orbit occurring at least twice in the candidates")
	rootCmd.Flags().StringVar(&cfg.DbConnection, "db-connection", "", "connection string of the product tracking database (optional)")
	rootCmd.Flags().StringVar(&cfg.ProductType, "product-type", "", "expected product type of the candidates, e.g. OL_1_EFR___ (optional check)")
	rootCmd.Flags().StringSliceVar(&cfg.Period, "period", nil, "search period as one or two dates, e.g. 2018-01-31,2018-02-20 (optional check)")
	rootCmd.Flags().Float64SliceVar(&cfg.Point, "point", nil, "geo-point as lat,lon, e.g. 56.46,7.57 (optional, registered in the tracking database)")

	rootCmd.MarkFlagRequired("dhus-username")
	rootCmd.MarkFlagRequired("dhus-password")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal("error", zap.Error(err))
	}
}

func run(ctx context.Context, args []string) error {
	// Validate the user input before any network activity
	if cfg.ProductType != "" {
		if err := common.CheckProductType(cfg.ProductType); err != nil {
			return err
		}
	}
	if len(cfg.Period) != 0 {
		start, end, err := common.ParsePeriod(cfg.Period)
		if err != nil {
			return err
		}
		log.Logger(ctx).Sugar().Infof("period %s - %s", common.FormatUTC(start), common.FormatUTC(end))
	}

	var store *pg.BackendDB
	if cfg.DbConnection != "" {
		var err error
		if store, err = pg.New(ctx, cfg.DbConnection); err != nil {
			return fmt.Errorf("tracking database: %w", err)
		}
		defer store.Close()
	}

	pointID := 0
	if len(cfg.Point) != 0 {
		if len(cfg.Point) != 2 {
			return common.ValidationError{Field: "point", Reason: fmt.Sprintf("expected lat,lon, got %v", cfg.Point)}
		}
		point, err := common.ParsePoint(cfg.Point[0], cfg.Point[1])
		if err != nil {
			return err
		}
		if store != nil {
			if pointID, err = store.RegisterPoint(ctx, point); err != nil {
				return err
			}
		}
	} else if store != nil {
		return common.ValidationError{Field: "point", Reason: "required with -db-connection: the tracking store is per geo-point"}
	}

	// Candidate products: from the file argument, or from the tracking store
	var products []common.Product
	var err error
	switch {
	case len(args) == 1:
		if products, err = readProducts(args[0]); err != nil {
			return err
		}
		if store != nil {
			if err := store.StoreProducts(ctx, pointID, products); err != nil {
				return err
			}
		}
	case store != nil:
		if products, err = store.ProductsToDownload(ctx, pointID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("no products: pass a products file or configure -db-connection")
	}
	if len(products) == 0 {
		log.Logger(ctx).Info("nothing to download")
		return nil
	}

	if cfg.FrequentOrbitsOnly {
		if products, err = downloader.FilterFrequentOrbits(ctx, products, downloader.MinOrbitFrequency); err != nil {
			return err
		}
	}

	primary := provider.NewDHUSProvider(cfg.DHUSURL, cfg.DHUSUsername, cfg.DHUSPassword, cfg.NbTries)
	var secondary provider.ProductProvider
	if cfg.DAACAPIKey != "" {
		secondary = provider.NewDAACProvider(ctx, cfg.DAACURL, cfg.DAACAPIKey, provider.DefaultDAACTimeout, cfg.NbTries)
	}

	if err := os.MkdirAll(cfg.LoadDir, 0766); err != nil {
		return fmt.Errorf("make directory %s: %w", cfg.LoadDir, err)
	}

	var tracker downloader.Tracker
	if store != nil {
		tracker = store.Backend
	}

	registry := metrics.NewRegistry()
	dl := downloader.New(primary, secondary, cfg.LoadDir)
	dispatcher := downloader.NewDispatcher(dl, cfg.WorkDir, cfg.Parallel, tracker, registry)

	loaded := dispatcher.Run(ctx, products)
	log.Logger(ctx).Sugar().Infof("downloaded %d / %d products", loaded, len(products))
	return nil
}

// readProducts parses a products file: one "uuid name" pair per line
func readProducts(path string) ([]common.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("readProducts: %w", err)
	}
	defer f.Close()

	var products []common.Product
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("readProducts: malformed line %d: expected 'uuid name', got %q", line, text)
		}
		products = append(products, common.Product{UUID: fields[0], Name: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("readProducts: %w", err)
	}
	return products, nil
}
