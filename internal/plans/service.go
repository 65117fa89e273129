package plans

import (
	"context"
	"errors"

	"github.com/2beens/liftlog/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// Service is the fail-soft face of a Repo: backend errors are logged and
// counted, callers get empty results.
type Service struct {
	repo           Repo
	metricsManager *metrics.Manager
}

func NewService(repo Repo, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func (s *Service) Available() bool {
	return s.repo != nil
}

func (s *Service) failed(operation string, err error) {
	if errors.Is(err, context.Canceled) {
		log.Debugf("plans service: %s: %s", operation, err)
		return
	}
	log.Errorf("plans service: %s: %s", operation, err)
	if s.metricsManager != nil {
		s.metricsManager.CounterBackendFailures.WithLabelValues(operation).Inc()
	}
}

func (s *Service) List(ctx context.Context) []WorkoutPlan {
	if s.repo == nil {
		return []WorkoutPlan{}
	}
	list, err := s.repo.ListPlans(ctx)
	if err != nil {
		s.failed("list_plans", err)
		return []WorkoutPlan{}
	}
	if list == nil {
		return []WorkoutPlan{}
	}
	return list
}

func (s *Service) Get(ctx context.Context, id string) *WorkoutPlan {
	if s.repo == nil {
		return nil
	}
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.failed("get_plan", err)
		}
		return nil
	}
	return plan
}

// Create stores a plan passing Validate. The only error returned is a
// validation one; a backend failure gives a nil plan.
func (s *Service) Create(ctx context.Context, plan WorkoutPlan) (*WorkoutPlan, error) {
	if err := Validate(plan); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, nil
	}
	created, err := s.repo.CreatePlan(ctx, plan)
	if err != nil {
		s.failed("create_plan", err)
		return nil, nil
	}
	return created, nil
}
