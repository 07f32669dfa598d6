package downloader

import (
	"context"
	"fmt"

	"github.com/earthscan/s3loader/common"
	"github.com/earthscan/s3loader/service"
	"github.com/earthscan/s3loader/service/log"
)

// MinOrbitFrequency is the number of occurrences an orbit needs in the
// candidate window to be considered complete enough to download.
const MinOrbitFrequency = 2

// ErrNoFrequentOrbits is returned when no orbit of the candidate list meets
// the frequency threshold: the search window is unusable.
type ErrNoFrequentOrbits struct {
	MinFrequency int
}

func (e ErrNoFrequentOrbits) Error() string {
	return fmt.Sprintf("found 0 orbits occurring at least %d times, is the candidate window too narrow?", e.MinFrequency)
}

// FilterFrequentOrbits keeps one product per orbit number occurring at least
// minFrequency times in the candidates: the first product of that orbit, in
// input order. A malformed product name is a fatal error.
func FilterFrequentOrbits(ctx context.Context, candidates []common.Product, minFrequency int) ([]common.Product, error) {
	orbits := make([]int, len(candidates))
	counts := make(map[int]int)
	for i, p := range candidates {
		orbit, err := common.RelativeOrbit(p.Name)
		if err != nil {
			return nil, service.MakeFatal(fmt.Errorf("FilterFrequentOrbits: %w", err))
		}
		orbits[i] = orbit
		counts[orbit]++
	}

	var kept []common.Product
	seen := make(map[int]struct{})
	for i, p := range candidates {
		if counts[orbits[i]] < minFrequency {
			continue
		}
		if _, ok := seen[orbits[i]]; ok {
			continue
		}
		seen[orbits[i]] = struct{}{}
		kept = append(kept, p)
	}

	if len(kept) == 0 {
		return nil, service.MakeFatal(ErrNoFrequentOrbits{minFrequency})
	}
	log.Logger(ctx).Sugar().Infof("found %d frequent orbits", len(kept))
	return kept, nil
}
