package episode

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const dirPrefix = "episode_"

// NextIndex scans the data root for existing episode directories and
// returns one past the highest suffix found. Counting directories would
// reuse indices after deletions; scanning suffixes never does.
func NextIndex(dataDir string) (int, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("scan data dir: %w", err)
	}

	next := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), dirPrefix) {
			continue
		}
		suffix := strings.TrimPrefix(entry.Name(), dirPrefix)
		idx, err := strconv.Atoi(suffix)
		if err != nil || idx < 0 {
			continue
		}
		if idx+1 > next {
			next = idx + 1
		}
	}
	return next, nil
}

// DirName formats the directory name for an episode index.
func DirName(index int) string {
	return fmt.Sprintf("%s%04d", dirPrefix, index)
}
