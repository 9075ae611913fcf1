package optimizer

import (
	"fmt"
	"sync"

	"github.com/andresyuhnke/ConvertVTTAssets/pkg/pathmap"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/planner"
)

const (
	// MinThrottle is the smallest allowed worker count.
	MinThrottle = 1
	// MaxThrottle is the largest allowed worker count for rename runs.
	MaxThrottle = 32
)

// ValidateThrottle rejects worker counts outside the supported range.
func ValidateThrottle(n int) error {
	if n < MinThrottle || n > MaxThrottle {
		return fmt.Errorf("throttle limit %d outside supported range %d-%d", n, MinThrottle, MaxThrottle)
	}
	return nil
}

// RunParallel partitions files into throttle roughly-equal batches and runs
// the executor over each batch on its own worker. Directories are never
// dispatched here; they are fully processed before any file parallelism
// begins, so workers only read the resolver. The call blocks until every
// batch completes. Per-file errors are captured inside the executor as
// Failed records and never cross the worker boundary. Results arrive in
// completion order, not input order.
func RunParallel(files []planner.Entry, exec *Executor, res pathmap.Resolver, throttle int) []OperationRecord {
	if len(files) == 0 {
		return nil
	}

	if throttle < MinThrottle {
		throttle = MinThrottle
	}
	if throttle > MaxThrottle {
		throttle = MaxThrottle
	}
	if throttle > len(files) {
		throttle = len(files)
	}

	batches := partition(files, throttle)
	results := make(chan OperationRecord, len(files))

	var wg sync.WaitGroup
	for _, batch := range batches {
		batch := batch
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, entry := range batch {
				results <- exec.ProcessFile(entry, res)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	records := make([]OperationRecord, 0, len(files))
	for rec := range results {
		records = append(records, rec)
	}

	return records
}

// partition splits files into n contiguous, roughly-equal batches.
func partition(files []planner.Entry, n int) [][]planner.Entry {
	batches := make([][]planner.Entry, 0, n)
	size := (len(files) + n - 1) / n

	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		batches = append(batches, files[start:end])
	}

	return batches
}
