package dashboard_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	dashboardPkg "github.com/afepanou/payments/internal/dashboard"
)

func TestDashboard(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dashboard Suite")
}

// Mock repository keyed by range start month
type mockDashboardRepository struct {
	statsByMonth map[string]*dashboardPkg.MonthlyStats
	statsError   error
	lastStart    time.Time
	lastEnd      time.Time
}

func newMockDashboardRepository() *mockDashboardRepository {
	return &mockDashboardRepository{
		statsByMonth: make(map[string]*dashboardPkg.MonthlyStats),
	}
}

func (m *mockDashboardRepository) StatsForRange(start, end time.Time) (*dashboardPkg.MonthlyStats, error) {
	if m.statsError != nil {
		return nil, m.statsError
	}
	m.lastStart = start
	m.lastEnd = end
	if stats, exists := m.statsByMonth[start.Format("2006-01")]; exists {
		copied := *stats
		return &copied, nil
	}
	return &dashboardPkg.MonthlyStats{}, nil
}

var _ = Describe("DashboardService", func() {
	var (
		service  *dashboardPkg.Service
		mockRepo *mockDashboardRepository
		logger   *slog.Logger
	)

	BeforeEach(func() {
		mockRepo = newMockDashboardRepository()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = dashboardPkg.NewService(mockRepo, logger)
	})

	Describe("Variation", func() {
		It("should compute the percentage change", func() {
			Expect(dashboardPkg.Variation(150, 100)).To(Equal(50.0))
			Expect(dashboardPkg.Variation(80, 100)).To(Equal(-20.0))
		})

		It("should return 0 when there is no previous value", func() {
			Expect(dashboardPkg.Variation(0, 0)).To(Equal(0.0))
			Expect(dashboardPkg.Variation(42, 0)).To(Equal(0.0))
		})
	})

	Describe("MonthlyStats", func() {
		It("should aggregate the calendar month containing the given time", func() {
			mockRepo.statsByMonth["2026-08"] = &dashboardPkg.MonthlyStats{
				SuccessCount:        12,
				PendingCount:        3,
				FailedCount:         2,
				TotalAmountCentimes: 450000,
			}

			someTime := time.Date(2026, time.August, 17, 14, 30, 0, 0, time.UTC)
			stats, err := service.MonthlyStats(someTime)

			Expect(err).ToNot(HaveOccurred())
			Expect(stats.Month).To(Equal("2026-08"))
			Expect(stats.SuccessCount).To(Equal(int64(12)))
			Expect(stats.TotalAmountCentimes).To(Equal(int64(450000)))

			Expect(mockRepo.lastStart).To(Equal(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)))
			Expect(mockRepo.lastEnd).To(Equal(time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)))
		})

		It("should propagate repository failures", func() {
			mockRepo.statsError = errors.New("aggregation failed")

			_, err := service.MonthlyStats(time.Now())

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("MonthlyReport", func() {
		It("should compare the month with the previous one", func() {
			mockRepo.statsByMonth["2026-07"] = &dashboardPkg.MonthlyStats{
				SuccessCount:        100,
				FailedCount:         10,
				TotalAmountCentimes: 1000000,
			}
			mockRepo.statsByMonth["2026-08"] = &dashboardPkg.MonthlyStats{
				SuccessCount:        150,
				FailedCount:         8,
				TotalAmountCentimes: 1200000,
			}

			report, err := service.MonthlyReport(time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC))

			Expect(err).ToNot(HaveOccurred())
			Expect(report.Current.Month).To(Equal("2026-08"))
			Expect(report.Previous.Month).To(Equal("2026-07"))
			Expect(report.SuccessVariation).To(Equal(50.0))
			Expect(report.AmountVariation).To(Equal(20.0))
			Expect(report.FailedVariation).To(Equal(-20.0))
		})

		It("should report 0 variation when the previous month is empty", func() {
			mockRepo.statsByMonth["2026-08"] = &dashboardPkg.MonthlyStats{
				SuccessCount: 5,
			}

			report, err := service.MonthlyReport(time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC))

			Expect(err).ToNot(HaveOccurred())
			Expect(report.SuccessVariation).To(Equal(0.0))
			Expect(report.AmountVariation).To(Equal(0.0))
		})

		It("should handle a January report crossing the year boundary", func() {
			mockRepo.statsByMonth["2025-12"] = &dashboardPkg.MonthlyStats{SuccessCount: 40}
			mockRepo.statsByMonth["2026-01"] = &dashboardPkg.MonthlyStats{SuccessCount: 50}

			report, err := service.MonthlyReport(time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC))

			Expect(err).ToNot(HaveOccurred())
			Expect(report.Previous.Month).To(Equal("2025-12"))
			Expect(report.SuccessVariation).To(Equal(25.0))
		})
	})
})
