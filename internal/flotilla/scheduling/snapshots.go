package scheduling

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/flotillaproject/flotilla/internal/common/util"
	"github.com/flotillaproject/flotilla/internal/flotilla/repository"
	"github.com/flotillaproject/flotilla/pkg/api"
)

// SnapshotRecorder periodically persists an immutable utilization snapshot
// per cluster. Purely observational: nothing in the scheduling path reads
// snapshots back.
type SnapshotRecorder struct {
	accountant         *ResourceAccountant
	snapshotRepository repository.SnapshotRepository
	clock              util.Clock
}

func NewSnapshotRecorder(
	accountant *ResourceAccountant,
	snapshotRepository repository.SnapshotRepository,
	clock util.Clock,
) *SnapshotRecorder {
	return &SnapshotRecorder{
		accountant:         accountant,
		snapshotRepository: snapshotRepository,
		clock:              clock,
	}
}

// CaptureResourceUtilization records one snapshot per cluster and refreshes
// the utilization gauges. Errors are logged; the recorder runs again next
// tick.
func (r *SnapshotRecorder) CaptureResourceUtilization() {
	reports, err := r.accountant.GetClusterUsage()
	if err != nil {
		log.WithError(err).Error("failed to compute cluster usage for snapshots")
		return
	}

	now := r.clock.Now()
	snapshots := make([]*api.ResourceSnapshot, 0, len(reports))
	for _, report := range reports {
		snapshot := SnapshotFromReport(report, now)
		snapshot.Id = util.NewULID()
		snapshots = append(snapshots, snapshot)

		utilizationGauge.WithLabelValues(report.ClusterId, "cpu").Set(snapshot.CpuUtilization)
		utilizationGauge.WithLabelValues(report.ClusterId, "ram").Set(snapshot.RamUtilization)
		utilizationGauge.WithLabelValues(report.ClusterId, "gpu").Set(snapshot.GpuUtilization)
	}

	if err := r.snapshotRepository.AddSnapshots(snapshots); err != nil {
		log.WithError(err).Error("failed to save resource snapshots")
		return
	}
	log.Infof("captured resource utilization for %d clusters", len(snapshots))
}

// SnapshotFromReport derives the snapshot quantities from one usage report:
// available is floored at zero and utilization is used/total as a percentage,
// clamped to 0 for zero-capacity dimensions.
func SnapshotFromReport(report *api.ClusterUsageReport, now time.Time) *api.ResourceSnapshot {
	available := report.Total.Sub(report.Used).FloorZero()
	return &api.ResourceSnapshot{
		ClusterId:      report.ClusterId,
		CreatedAt:      now,
		TotalCpu:       report.Total.Cpu,
		TotalRam:       report.Total.Ram,
		TotalGpu:       report.Total.Gpu,
		UsedCpu:        report.Used.Cpu,
		UsedRam:        report.Used.Ram,
		UsedGpu:        report.Used.Gpu,
		AvailableCpu:   available.Cpu,
		AvailableRam:   available.Ram,
		AvailableGpu:   available.Gpu,
		CpuUtilization: utilizationPercent(report.Used.Cpu, report.Total.Cpu),
		RamUtilization: utilizationPercent(report.Used.Ram, report.Total.Ram),
		GpuUtilization: utilizationPercent(report.Used.Gpu, report.Total.Gpu),
	}
}

func utilizationPercent(used, total int64) float64 {
	if total <= 0 {
		return 0
	}
	percent := float64(used) / float64(total) * 100
	return math.Round(percent*100) / 100
}
