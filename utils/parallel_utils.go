package utils

import (
	"runtime"
	"sync"
)

// PartitionMap splits [0, MaxIndex) into ParallelDegree contiguous buckets whose sizes
// differ by at most one.
type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

// Split1D returns the range of bucket threadNum. The first MaxIndex % ParallelDegree
// buckets take one extra item.
func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}

// Workers resolves a requested parallel degree: values below 1 mean one per CPU, and
// there are never more workers than items.
func Workers(requested, items int) (np int) {
	np = requested
	if np < 1 {
		np = runtime.NumCPU()
	}
	if np > items {
		np = items
	}
	if np < 1 {
		np = 1
	}
	return
}

// ParallelFor partitions [0, n) over the workers and calls fn once per index, each
// partition on its own goroutine. It returns when every call has finished. Callers write
// results into index addressed slots, so the output never depends on scheduling.
func ParallelFor(workers, n int, fn func(k int)) {
	if n <= 0 {
		return
	}
	var (
		pm = NewPartitionMap(Workers(workers, n), n)
		wg = sync.WaitGroup{}
	)
	for bn := 0; bn < pm.ParallelDegree; bn++ {
		wg.Add(1)
		go func(bn int) {
			defer wg.Done()
			kMin, kMax := pm.GetBucketRange(bn)
			for k := kMin; k < kMax; k++ {
				fn(k)
			}
		}(bn)
	}
	wg.Wait()
}
