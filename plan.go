package sialo

import (
	"fmt"
	"math"
	"math/bits"
)

// UploadPlan describes how a file of a given size is split into slabs
// and erasure-coded shards.
type UploadPlan struct {
	FileSize     uint64 `json:"file_size"`
	DataShards   uint32 `json:"data_shards"`
	ParityShards uint32 `json:"parity_shards"`
	SectorSize   uint64 `json:"sector_size"`

	// SlabDataSize is the number of file bytes carried by one slab.
	SlabDataSize uint64 `json:"slab_data_size"`
	// SlabCount is FileSize / SlabDataSize rounded up.
	SlabCount     uint64 `json:"slab_count"`
	ShardsPerSlab uint64 `json:"shards_per_slab"`
	TotalShards   uint64 `json:"total_shards"`
}

// PlanUpload computes the slab and shard totals for an upload.
// An empty file yields zero slabs and zero shards. Totals that do not fit
// in a uint64 fail with ErrPlanOverflow.
func PlanUpload(fileSize uint64, dataShards, parityShards uint32, sectorSize uint64) (UploadPlan, error) {
	if dataShards == 0 {
		return UploadPlan{}, fmt.Errorf("plan upload: %w", ErrZeroDataShards)
	}
	if sectorSize == 0 {
		return UploadPlan{}, fmt.Errorf("plan upload: %w", ErrZeroSectorSize)
	}

	if sectorSize > math.MaxUint64/uint64(dataShards) {
		return UploadPlan{}, fmt.Errorf("plan upload: %w: slab size %d x %d", ErrPlanOverflow, dataShards, sectorSize)
	}

	slabDataSize := uint64(dataShards) * sectorSize
	slabCount := fileSize / slabDataSize
	if fileSize%slabDataSize != 0 {
		slabCount++
	}
	shardsPerSlab := uint64(dataShards) + uint64(parityShards)

	hi, totalShards := bits.Mul64(slabCount, shardsPerSlab)
	if hi != 0 {
		return UploadPlan{}, fmt.Errorf("plan upload: %w: %d slabs x %d shards", ErrPlanOverflow, slabCount, shardsPerSlab)
	}

	return UploadPlan{
		FileSize:      fileSize,
		DataShards:    dataShards,
		ParityShards:  parityShards,
		SectorSize:    sectorSize,
		SlabDataSize:  slabDataSize,
		SlabCount:     slabCount,
		ShardsPerSlab: shardsPerSlab,
		TotalShards:   totalShards,
	}, nil
}
