package files

import (
	"golang.org/x/sys/unix"
)

// Disk reports usage of the filesystem backing path.
func (s *Service) Disk(path string) (*DiskUsage, error) {
	abs, err := s.sb.Resolve(path)
	if err != nil {
		return nil, err
	}

	var st unix.Statfs_t
	if err := unix.Statfs(abs, &st); err != nil {
		return nil, err
	}

	total := st.Blocks * uint64(st.Bsize)
	free := st.Bavail * uint64(st.Bsize)
	used := total - free

	usage := &DiskUsage{
		Total: total,
		Used:  used,
		Free:  free,
	}
	if total > 0 {
		usage.Percent = float64(used) / float64(total) * 100
	}
	return usage, nil
}
