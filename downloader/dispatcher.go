package downloader

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/earthscan/s3loader/common"
	"github.com/earthscan/s3loader/service/log"
	"github.com/google/uuid"
	"github.com/rcrowley/go-metrics"
	"golang.org/x/sync/errgroup"
)

// Tracker records successfully downloaded products, e.g. in the product
// tracking store.
type Tracker interface {
	MarkDownloaded(ctx context.Context, productUUID string) error
}

// Dispatcher runs the fetch workflow over a batch of products, one at a
// time or in consecutive groups of fixed width. A batch always runs to the
// end: per-product failures are logged and counted, never raised.
type Dispatcher struct {
	dl      *Downloader
	workdir string
	workers int
	tracker Tracker

	success metrics.Meter
	failure metrics.Meter
}

// NewDispatcher creates a Dispatcher staging downloads under workdir.
// workers is the number of products fetched concurrently within a group;
// 1 or less means sequential. tracker may be nil.
func NewDispatcher(dl *Downloader, workdir string, workers int, tracker Tracker, registry metrics.Registry) *Dispatcher {
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	return &Dispatcher{
		dl:      dl,
		workdir: workdir,
		workers: workers,
		tracker: tracker,
		success: metrics.GetOrRegisterMeter("downloads.success", registry),
		failure: metrics.GetOrRegisterMeter("downloads.failure", registry),
	}
}

// Run fetches every product of the batch and returns the number of products
// downloaded, verified and extracted.
func (dp *Dispatcher) Run(ctx context.Context, products []common.Product) int {
	total := len(products)
	loaded := 0
	if dp.workers <= 1 {
		for i, p := range products {
			if dp.process(ctx, p) {
				loaded++
			}
			log.Logger(ctx).Sugar().Infof("%d / %d", i+1, total)
		}
	} else {
		// Groups are processed in input order; within a group, fetches run
		// concurrently and each owns its own staging file. A trailing partial
		// group runs with fewer workers.
		var n int64
		for begin := 0; begin < total; begin += dp.workers {
			end := min(begin+dp.workers, total)
			log.Logger(ctx).Sugar().Infof("%d / %d", end, total)
			g, gctx := errgroup.WithContext(ctx)
			for _, p := range products[begin:end] {
				p := p
				g.Go(func() error {
					if dp.process(gctx, p) {
						atomic.AddInt64(&n, 1)
					}
					return nil
				})
			}
			g.Wait()
		}
		loaded = int(atomic.LoadInt64(&n))
	}
	log.Logger(ctx).Sugar().Infof("batch done: %d succeeded, %d failed", dp.success.Count(), dp.failure.Count())
	return loaded
}

// process fetches one product with a staging file of its own
func (dp *Dispatcher) process(ctx context.Context, product common.Product) bool {
	ctx = log.With(ctx, "product", product.Name)
	stagingPath := filepath.Join(dp.workdir, "tmp-"+uuid.New().String())

	if !dp.dl.ProcessProduct(ctx, product, stagingPath) {
		dp.failure.Mark(1)
		return false
	}
	dp.success.Mark(1)
	if dp.tracker != nil {
		if err := dp.tracker.MarkDownloaded(ctx, product.UUID); err != nil {
			log.Logger(ctx).Sugar().Warnf("mark %s downloaded: %v", product.Name, err)
		}
	}
	return true
}
