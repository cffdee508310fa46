/*
Package workers determines worker pool sizes that respect container CPU
limits.

# Overview

When running in containers, the number of available CPUs may be limited by
cgroup constraints. While Go 1.19+ automatically sets GOMAXPROCS based on
container CPU limits, runtime.NumCPU() still returns the host machine's CPU
count. Every function here derives counts from GOMAXPROCS so worker pools
match what the container can actually run.

# Thumbnail Generation

The viewer's dominant background workload is thumbnail generation: read a
source image, decode, resample, write a cache file. ForThumbnails sizes
that pool as CPUs minus one, keeping a spare core for the foreground,
and never below two:

	cap := workers.ForThumbnails()
	scheduler := thumbnail.NewScheduler(cap)

Operators can override the calculation:

	# In a deployment manifest
	env:
	- name: THUMBNAIL_WORKERS
	  value: "4"

# Other Pools

For ancillary parallel work (such as the stat pass during catalog
population) use Count directly or the ForIO helper:

	// 2 workers per CPU, at most 8
	numWorkers := workers.ForIO(8)

Always specify a limit for I/O pools; unbounded fan-out on a large machine
just saturates the filesystem.

# Thread Safety

All functions are safe for concurrent use. They read GOMAXPROCS and
environment variables, which are themselves thread-safe.
*/
package workers
