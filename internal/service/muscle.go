package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/pose-mock/internal/model"
	"github.com/sakif/pose-mock/internal/repository"
)

// DefaultMuscles is the reference list inserted by the first seed.
var DefaultMuscles = []model.Muscle{
	{Name: "Quadriceps", NameUA: model.StringPtr("Квадрицепс"), BodyPart: "legs"},
	{Name: "Hamstrings", NameUA: model.StringPtr("Біцепс стегна"), BodyPart: "legs"},
	{Name: "Gluteus Maximus", NameUA: model.StringPtr("Великий сідничний м'яз"), BodyPart: "legs"},
	{Name: "Calves", NameUA: model.StringPtr("Литкові м'язи"), BodyPart: "legs"},
	{Name: "Hip Flexors", NameUA: model.StringPtr("Згиначі стегна"), BodyPart: "legs"},
	{Name: "Rectus Abdominis", NameUA: model.StringPtr("Прямий м'яз живота"), BodyPart: "core"},
	{Name: "Obliques", NameUA: model.StringPtr("Косі м'язи живота"), BodyPart: "core"},
	{Name: "Erector Spinae", NameUA: model.StringPtr("Випрямляч хребта"), BodyPart: "back"},
	{Name: "Latissimus Dorsi", NameUA: model.StringPtr("Найширший м'яз спини"), BodyPart: "back"},
	{Name: "Trapezius", NameUA: model.StringPtr("Трапецієподібний м'яз"), BodyPart: "back"},
	{Name: "Deltoids", NameUA: model.StringPtr("Дельтоподібні м'язи"), BodyPart: "shoulders"},
	{Name: "Pectoralis Major", NameUA: model.StringPtr("Великий грудний м'яз"), BodyPart: "chest"},
	{Name: "Biceps", NameUA: model.StringPtr("Біцепс"), BodyPart: "arms"},
	{Name: "Triceps", NameUA: model.StringPtr("Трицепс"), BodyPart: "arms"},
}

type MuscleService struct {
	repo   repository.MuscleRepository
	logger *slog.Logger
}

func NewMuscleService(repo repository.MuscleRepository, logger *slog.Logger) *MuscleService {
	return &MuscleService{repo: repo, logger: logger}
}

// Seed inserts DefaultMuscles when the collection is empty and returns the
// full current list either way, so seeding twice equals seeding once.
func (s *MuscleService) Seed(ctx context.Context) ([]model.Muscle, error) {
	inserted, err := s.repo.SeedMuscles(ctx, DefaultMuscles)
	if err != nil {
		return nil, fmt.Errorf("seeding muscles: %w", err)
	}
	if inserted {
		s.logger.Info("muscles seeded", slog.Int("count", len(DefaultMuscles)))
	}
	return s.List(ctx)
}

func (s *MuscleService) List(ctx context.Context) ([]model.Muscle, error) {
	muscles, err := s.repo.ListMuscles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing muscles: %w", err)
	}
	return muscles, nil
}
