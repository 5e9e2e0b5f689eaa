package node

import (
	"github.com/c9s/goprocinfo/linux"

	"offercube/logger"
)

var log = logger.New("node")

// Stats is a snapshot of the host's resources read from /proc.
type Stats struct {
	MemStats  *linux.MemInfo
	DiskStats *linux.Disk
	CpuStats  *linux.CPUStat
	LoadStats *linux.LoadAvg
	CpuInfo   *linux.CPUInfo
}

// GetStats reads the current host stats. Missing files leave zero values.
func GetStats() *Stats {
	return &Stats{
		MemStats:  getMemoryInfo(),
		DiskStats: getDiskInfo(),
		CpuStats:  getCpuStats(),
		LoadStats: getLoadAverage(),
		CpuInfo:   getCpuInfo(),
	}
}

func (s *Stats) MemTotalKb() uint64 {
	return s.MemStats.MemTotal
}

func (s *Stats) MemAvailableKb() uint64 {
	return s.MemStats.MemAvailable
}

func (s *Stats) MemUsedKb() uint64 {
	return s.MemStats.MemTotal - s.MemStats.MemAvailable
}

func (s *Stats) DiskTotal() uint64 {
	return s.DiskStats.All
}

func (s *Stats) DiskFree() uint64 {
	return s.DiskStats.Free
}

func (s *Stats) DiskUsed() uint64 {
	return s.DiskStats.Used
}

func (s *Stats) NumCPU() int {
	return s.CpuInfo.NumCPU()
}

// CpuUsage is the busy fraction of CPU time since boot.
func (s *Stats) CpuUsage() float64 {
	idle := s.CpuStats.Idle + s.CpuStats.IOWait
	nonIdle := s.CpuStats.User + s.CpuStats.Nice + s.CpuStats.System + s.CpuStats.IRQ + s.CpuStats.SoftIRQ + s.CpuStats.Steal
	total := idle + nonIdle

	if total == 0 {
		return 0.00
	}

	return (float64(total) - float64(idle)) / float64(total)
}

func getMemoryInfo() *linux.MemInfo {
	memstats, err := linux.ReadMemInfo("/proc/meminfo")
	if err != nil {
		log.Warn("unable to read /proc/meminfo", "error", err)
		return &linux.MemInfo{}
	}
	return memstats
}

func getDiskInfo() *linux.Disk {
	diskstats, err := linux.ReadDisk("/")
	if err != nil {
		log.Warn("unable to read disk stats for /", "error", err)
		return &linux.Disk{}
	}
	return diskstats
}

func getCpuStats() *linux.CPUStat {
	cpustats, err := linux.ReadStat("/proc/stat")
	if err != nil {
		log.Warn("unable to read /proc/stat", "error", err)
		return &linux.CPUStat{}
	}
	return &cpustats.CPUStatAll
}

func getLoadAverage() *linux.LoadAvg {
	loadavg, err := linux.ReadLoadAvg("/proc/loadavg")
	if err != nil {
		log.Warn("unable to read /proc/loadavg", "error", err)
		return &linux.LoadAvg{}
	}
	return loadavg
}

func getCpuInfo() *linux.CPUInfo {
	cpuinfo, err := linux.ReadCPUInfo("/proc/cpuinfo")
	if err != nil {
		log.Warn("unable to read /proc/cpuinfo", "error", err)
		return &linux.CPUInfo{}
	}
	return cpuinfo
}
