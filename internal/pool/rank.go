package pool

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Launcher environment variables consulted for rank discovery, in order:
// OpenMPI, MPICH/PMI, Slurm. The worker contract is the same for all of
// them: the launcher exports the rank and world size, nothing else.
var (
	rankEnv  = []string{"OMPI_COMM_WORLD_RANK", "PMI_RANK", "SLURM_PROCID"}
	worldEnv = []string{"OMPI_COMM_WORLD_SIZE", "PMI_SIZE", "SLURM_NTASKS"}
)

// RankFromEnv reads this worker's rank and world size from the launcher's
// environment.
func RankFromEnv() (rank, worldSize int, err error) {
	rank, err = intFromEnv(rankEnv)
	if err != nil {
		return 0, 0, fmt.Errorf("worker rank: %w", err)
	}

	worldSize, err = intFromEnv(worldEnv)
	if err != nil {
		return 0, 0, fmt.Errorf("world size: %w", err)
	}

	if worldSize < 1 || rank < 0 || rank >= worldSize {
		return 0, 0, fmt.Errorf("rank %d out of range for world size %d", rank, worldSize)
	}
	return rank, worldSize, nil
}

func intFromEnv(names []string) (int, error) {
	for _, name := range names {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parse %s=%q: %w", name, v, err)
		}
		return i, nil
	}
	return 0, fmt.Errorf("none of %s set", strings.Join(names, ", "))
}
