package fixer

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dot5enko/region-fixer/chunk"
	"github.com/dot5enko/region-fixer/config"
	"github.com/dot5enko/region-fixer/region"
	"github.com/dot5enko/region-fixer/schema"
	"github.com/fatih/color"
)

// FixRegion checks every allocated chunk of the region at path and applies the repair policy
// to the ones that fail. Errors returned here mean the region could not be processed at all,
// failures of single chunks only show up in the result.
func (f *Fixer) FixRegion(path string) (res RegionResult, topErr error) {

	started := time.Now()
	res = RegionResult{Path: path, Reasons: map[Reason]int{}}

	coords, parseErr := schema.ParseRegionFileName(filepath.Base(path))
	if parseErr != nil {
		return res, parseErr
	}

	r, openErr := region.OpenWithOptions(path, region.Options{
		Buffers:             f.buffers,
		ExtendedCompression: f.cfg.ExtendedCompression,
		Logger:              f.logger,
	})
	if openErr != nil {
		return res, openErr
	}
	defer r.Close()

	res.SizeBefore, topErr = r.Size()
	if topErr != nil {
		return res, fmt.Errorf("unable to get size of %s: %s", path, topErr.Error())
	}

	lastUpdateMax := chunk.DefaultLastUpdate

	for x := 0; x < schema.RegionWidth; x++ {
		for z := 0; z < schema.RegionWidth; z++ {
			if !r.HasChunk(x, z) {
				continue
			}

			res.Checked++

			state, reason, c, checkErr := f.checkChunk(r, coords, x, z)

			if c != nil {
				if lastUpdate, ok := c.LastUpdate(); ok && lastUpdate > lastUpdateMax {
					lastUpdateMax = lastUpdate
				}
			}

			switch state {
			case Valid:
				state = Kept
			case DecodeFailed, Invalid:
				f.logger.Debug("chunk failed checks", "path", path, "x", x, "z", z, "state", state.String(), "reason", reason.String(), "saved_at", r.Timestamp(x, z), "error", checkErr.Error())
				state = f.repair(r, coords, x, z, reason, checkErr, lastUpdateMax)
			}

			res.count(state, reason)
		}
	}

	res.SizeAfter = res.SizeBefore

	if f.cfg.Compact {
		stats, compactErr := r.Compact()
		if compactErr != nil {
			color.Red("unable to compact %s: %s", path, compactErr.Error())
			f.logger.Error("compaction failed", "path", path, "error", compactErr.Error())
		} else {
			res.Compacted = true
			res.SizeAfter = stats.BytesAfter

			if f.cfg.Verbose {
				layoutErr := r.CheckLayout()
				if layoutErr != nil {
					f.logger.Error("region layout broken after compaction", "path", path, "error", layoutErr.Error())
				}
			}
		}
	} else {
		size, sizeErr := r.Size()
		if sizeErr == nil {
			res.SizeAfter = size
		}
	}

	f.metrics.ObserveRegion(res.Checked, res.SizeBefore-res.SizeAfter, time.Since(started))

	f.logger.Info("region checked",
		"path", path,
		"modified", r.LastModified(),
		"chunks_left", r.ChunkCount(),
		"grown_bytes", r.SizeDelta(),
		"checked", res.Checked,
		"kept", res.Kept,
		"deleted", res.Deleted,
		"replaced", res.Replaced,
		"failed", res.Failed,
		"took_ms", time.Since(started).Milliseconds(),
	)

	return res, nil
}

// repair applies the configured policy to a chunk that failed its checks and returns its final state.
func (f *Fixer) repair(r *region.Region, coords schema.RegionCoords, x, z int, reason Reason, cause error, lastUpdate int64) ChunkState {

	worldX, worldZ := coords.ChunkWorldPos(x, z)

	switch f.cfg.Policy {
	case config.PolicyReplace:
		data, encodeErr := chunk.EncodeCompressed(chunk.NewEmpty(worldX, worldZ, lastUpdate))
		if encodeErr == nil {
			encodeErr = r.WriteChunk(x, z, data)
		}

		if encodeErr != nil {
			f.repairFailed(r, worldX, worldZ, reason, encodeErr)
			return RepairFailed
		}

		color.Red("replaced chunk [%d,%d] of %s (%s): %s", worldX, worldZ, r.Name(), reason.String(), cause.Error())
		f.metrics.ObserveRepair(Replaced.String(), reason.String())
		return Replaced
	default:
		deleteErr := r.DeleteChunk(x, z)
		if deleteErr != nil {
			f.repairFailed(r, worldX, worldZ, reason, deleteErr)
			return RepairFailed
		}

		color.Red("deleted chunk [%d,%d] of %s (%s): %s", worldX, worldZ, r.Name(), reason.String(), cause.Error())
		f.metrics.ObserveRepair(Deleted.String(), reason.String())
		return Deleted
	}
}

// repairFailed reports a policy action that failed, worldX and worldZ are world chunk coordinates.
func (f *Fixer) repairFailed(r *region.Region, worldX, worldZ int, reason Reason, err error) {
	color.Red("unable to repair chunk [%d,%d] of %s: %s", worldX, worldZ, r.Name(), err.Error())
	f.logger.Error("chunk repair failed", "path", r.Path(), "world_x", worldX, "world_z", worldZ, "policy", string(f.cfg.Policy), "error", err.Error())
	f.metrics.ObserveRepair(RepairFailed.String(), reason.String())
}
