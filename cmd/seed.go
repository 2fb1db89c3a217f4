package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/KunalPandey-675/oceanResQ/internal/components"
	"github.com/KunalPandey-675/oceanResQ/internal/config"
	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/internal/observability"
	"github.com/KunalPandey-675/oceanResQ/internal/service"
)

type sampleReport struct {
	submit     domain.SubmitReportRequest
	status     domain.ReportStatus
	verifiedBy string
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample coastal hazard reports",
		Long: "Insert the sample coastal hazard reports. Seeding opens only the report " +
			"store, so Critical samples are never queued as alerts.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := components.SetupLogger(cfg.Env)
			clock := clockwork.NewRealClock()

			repo, pg, err := components.OpenStore(cmd.Context(), cfg, clock, logger)
			if err != nil {
				return err
			}
			if pg != nil {
				defer pg.Close()
			}

			seeded, err := seedReports(cmd.Context(), repo, clock, logger, observability.NewMetrics())
			if err != nil {
				return err
			}
			for i, r := range seeded {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s at %s (%s)\n", i+1, r.HazardType, r.Location.Details, r.Severity)
			}
			return nil
		},
	}
}

// seedReports submits each sample through a ReportService with no
// notification queue, then applies its status and verification in one
// update, so resolved samples get a response time.
func seedReports(ctx context.Context, repo service.ReportRepository, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) ([]*domain.HazardReport, error) {
	reports := service.NewReportService(repo, nil, clock, logger, metrics)
	out := make([]*domain.HazardReport, 0, len(sampleReports))

	for _, s := range sampleReports {
		r, err := reports.Submit(ctx, s.submit)
		if err != nil {
			return out, fmt.Errorf("seed %q: %w", s.submit.Location.Details, err)
		}

		var upd domain.UpdateReportRequest
		if s.status != domain.StatusActive {
			st := s.status
			upd.Status = &st
		}
		if s.verifiedBy != "" {
			yes := true
			by := s.verifiedBy
			upd.Verified = &yes
			upd.VerifiedBy = &by
		}
		if upd.Status != nil || upd.Verified != nil {
			if r, err = reports.Update(ctx, r.ID, upd); err != nil {
				return out, fmt.Errorf("seed %q: %w", s.submit.Location.Details, err)
			}
		}

		out = append(out, r)
	}

	logger.Info("seeded hazard reports", slog.Int("count", len(out)))
	return out, nil
}

func at(lat, lng float64, details string) domain.LocationInput {
	return domain.LocationInput{Lat: &lat, Lng: &lng, Details: details}
}

var sampleReports = []sampleReport{
	{
		submit: domain.SubmitReportRequest{
			Location:    at(19.0760, 72.8777, "Marine Drive, Mumbai, Maharashtra, India"),
			HazardType:  domain.HazardHighWaves,
			Severity:    domain.SeverityHigh,
			Description: "Extremely high waves observed near Marine Drive. Strong undertow currents detected. Public advised to avoid water activities.",
			Contact:     domain.Contact{Name: "Coastal Guard Mumbai", Phone: "+91-22-1234567", Email: "guard.mumbai@coastguard.gov.in"},
		},
		status:     domain.StatusActive,
		verifiedBy: "Mumbai Coastal Authority",
	},
	{
		submit: domain.SubmitReportRequest{
			Location:    at(15.2993, 74.1240, "Calangute Beach, Goa, India"),
			HazardType:  domain.HazardRipCurrent,
			Severity:    domain.SeverityCritical,
			Description: "Dangerous rip current spotted at Calangute Beach. Several rescue operations ongoing. Beach temporarily closed to swimmers.",
			Contact:     domain.Contact{Name: "Goa Lifeguard Service", Phone: "+91-832-9876543", Email: "lifeguard@goa.gov.in"},
		},
		status:     domain.StatusActive,
		verifiedBy: "Goa Tourism Department",
	},
	{
		submit: domain.SubmitReportRequest{
			Location:    at(13.0827, 80.2707, "Marina Beach, Chennai, Tamil Nadu, India"),
			HazardType:  domain.HazardMarineDebris,
			Severity:    domain.SeverityModerate,
			Description: "Significant amount of plastic debris and fishing nets washed ashore. Cleanup operations in progress. Swimming not recommended.",
			Contact:     domain.Contact{Name: "Chennai Municipal Corporation", Phone: "+91-44-1234567", Email: "marine@chennai.gov.in"},
		},
		status: domain.StatusUnderReview,
	},
	{
		submit: domain.SubmitReportRequest{
			Location:    at(11.9416, 79.8083, "Promenade Beach, Puducherry, India"),
			HazardType:  domain.HazardWeatherEvents,
			Severity:    domain.SeverityLow,
			Description: "Light rain and mild winds expected. Sea conditions are generally calm. Normal precautions advised for water activities.",
			Contact:     domain.Contact{Name: "Puducherry Port Authority", Phone: "+91-413-1234567", Email: "port@puducherry.gov.in"},
		},
		status:     domain.StatusResolved,
		verifiedBy: "Puducherry Maritime Department",
	},
	{
		submit: domain.SubmitReportRequest{
			Location:    at(8.0883, 77.0644, "Kovalam Beach, Kerala, India"),
			HazardType:  domain.HazardStormSurge,
			Severity:    domain.SeverityHigh,
			Description: "Storm surge warning issued for Kovalam Beach area. Water levels rising rapidly. Immediate evacuation of low-lying areas recommended.",
			Contact:     domain.Contact{Name: "Kerala State Disaster Management", Phone: "+91-471-9876543", Email: "disaster@kerala.gov.in"},
		},
		status:     domain.StatusActive,
		verifiedBy: "Kerala Coastal Authority",
	},
	{
		submit: domain.SubmitReportRequest{
			Location:    at(17.6868, 83.2185, "Visakhapatnam Beach, Andhra Pradesh, India"),
			HazardType:  domain.HazardCoastalErosion,
			Severity:    domain.SeverityModerate,
			Description: "Ongoing coastal erosion observed along the shoreline. Infrastructure assessment in progress. Public access restricted in affected areas.",
			Contact:     domain.Contact{Name: "Andhra Pradesh Coastal Management", Phone: "+91-891-1234567", Email: "coastal@ap.gov.in"},
		},
		status: domain.StatusUnderReview,
	},
	{
		submit: domain.SubmitReportRequest{
			Location:    at(21.2787, 81.8661, "Raigarh Coast, Chhattisgarh, India"),
			HazardType:  domain.HazardOther,
			Severity:    domain.SeverityLow,
			Description: "Unusual fish behavior reported by local fishermen. Marine biology team investigating. No immediate threat to public safety.",
			Contact:     domain.Contact{Name: "Local Fishermen Association", Phone: "+91-7762-123456", Email: "fishermen@raigarh.org"},
		},
		status:     domain.StatusClosed,
		verifiedBy: "Marine Research Institute",
	},
	{
		submit: domain.SubmitReportRequest{
			Location:    at(20.2961, 85.8245, "Puri Beach, Odisha, India"),
			HazardType:  domain.HazardHighWaves,
			Severity:    domain.SeverityModerate,
			Description: "Moderate to high wave activity at Puri Beach. Lifeguards on high alert. Swimmers advised to stay close to shore and follow safety guidelines.",
			Contact:     domain.Contact{Name: "Puri Beach Management", Phone: "+91-6752-123456", Email: "beach@puri.gov.in"},
		},
		status:     domain.StatusActive,
		verifiedBy: "Odisha Coastal Police",
	},
}
