// Package parallel splits index ranges across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, n) into contiguous chunks, one per CPU, and calls fn
// on each chunk concurrently. It returns when every chunk is done.
func Parallelize(n int, fn func(start, end int)) {
	ParallelizeWorkers(n, runtime.GOMAXPROCS(0), fn)
}

// ParallelizeWithThreshold runs fn(0, n) on the calling goroutine when n is
// below threshold and falls back to Parallelize otherwise.
func ParallelizeWithThreshold(n, threshold int, fn func(start, end int)) {
	if n < threshold {
		if n > 0 {
			fn(0, n)
		}
		return
	}
	Parallelize(n, fn)
}

// ParallelizeWorkers is Parallelize with an explicit worker count.
// A non-positive count means one worker per CPU.
func ParallelizeWorkers(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

// ForEach calls fn(i) for every i in [0, n) using at most workers goroutines.
// Results must be written to index-addressed storage by fn.
func ForEach(n, workers int, fn func(i int)) {
	ParallelizeWorkers(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}
