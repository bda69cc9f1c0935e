package vm

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var bankPool = sync.Pool{
	New: func() any { return new(TempBank) },
}

// ExecParallel runs code like Exec but spreads chunks over up to workers
// goroutines. Each running chunk owns a temporary bank; the program and
// constants are shared read-only. Results are identical to Exec, including
// seeded random draws. ctx is checked between chunks only.
func (vm *VM) ExecParallel(ctx context.Context, workers int, code []byte, inputs, outputs [][]Vector, constants []Vector, numLanes int) error {
	if workers <= 1 {
		return vm.exec(ctx, code, inputs, outputs, constants, numLanes)
	}
	if err := checkShape(inputs, outputs, constants, numLanes); err != nil {
		return err
	}

	var startTime time.Time
	if vm.statsEnabled {
		startTime = time.Now()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	numChunks := (numLanes + VectorsPerChunk - 1) / VectorsPerChunk
	skipped := false
	for chunk := 0; chunk < numChunks; chunk++ {
		if gctx.Err() != nil {
			skipped = true
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bank := bankPool.Get().(*TempBank)
			defer bankPool.Put(bank)

			registers := NewRegisterTable(bank)
			registers.Rebind(inputs, outputs, chunk)
			lanes := min(numLanes-chunk*VectorsPerChunk, VectorsPerChunk)
			return vm.runChunk(code, registers, bank, constants, chunk, lanes)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if skipped {
		// Only ctx stops the loop without a chunk error.
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if vm.statsEnabled {
		vm.statsMu.Lock()
		vm.stats.ExecutionTimeNs = time.Since(startTime).Nanoseconds()
		vm.statsMu.Unlock()
	}
	return nil
}
