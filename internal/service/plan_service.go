package service

import "github.com/digkill/thumblify/internal/models"

var defaultCatalogue = []models.Plan{
	{ID: models.PlanFree, Price: 0, Credits: 5},
	{ID: models.PlanGo, Price: 399, Credits: 50},
	{ID: models.PlanPlus, Price: 1999, Credits: 500},
	{ID: models.PlanPro, Price: 19900, Credits: 5000},
	{ID: models.PlanTeam, Price: 6999, Credits: 2000},
	{ID: models.PlanEnterprise, Price: 49900, Credits: 15000},
}

// PlanService serves the fixed plan catalogue.
type PlanService struct {
	plans []models.Plan
}

func NewPlanService() *PlanService {
	return &PlanService{plans: defaultCatalogue}
}

func (s *PlanService) List() []models.Plan {
	out := make([]models.Plan, len(s.plans))
	copy(out, s.plans)
	return out
}

func (s *PlanService) Get(id string) (models.Plan, bool) {
	for _, p := range s.plans {
		if string(p.ID) == id {
			return p, true
		}
	}
	return models.Plan{}, false
}
