package imageprocessing

import (
	"runtime"
	"sync"
)

// parallelFor runs fn(y) over y in [0, n) using up to GOMAXPROCS workers.
// Work is distributed by striding to balance uneven workloads. A panic in fn
// is re-raised on the caller once all workers have stopped.
func parallelFor(n int, fn func(y int)) {
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	var panicOnce sync.Once
	var recovered any
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicOnce.Do(func() { recovered = r })
				}
			}()
			for y := w; y < n; y += workers {
				fn(y)
			}
		}()
	}
	wg.Wait()

	// Re-raise on the calling goroutine so callers can recover it.
	if recovered != nil {
		panic(recovered)
	}
}
