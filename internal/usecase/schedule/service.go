package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"couples-daily-backend/internal/domain"
	"couples-daily-backend/internal/infra/metrics"
	"couples-daily-backend/internal/usecase/content"
)

// Generator создаёт ежедневный контент пары. Реализуется content.Service.
type Generator interface {
	Generate(ctx context.Context, coupleID string, contentType domain.ContentType, timezone string, explicitDay int, now time.Time) (content.Result, error)
}

// Service выполняет почасовой проход планировщика: находит пары, у которых
// наступила локальная полночь, и генерирует им контент следующего дня.
type Service struct {
	settings  domain.SettingsRepo
	generator Generator
	locks     domain.Cache
	log       zerolog.Logger
}

// NewService создаёт планировщик. locks может быть nil: тогда проход не
// защищён от параллельного запуска другими репликами.
func NewService(settings domain.SettingsRepo, generator Generator, locks domain.Cache, log zerolog.Logger) *Service {
	return &Service{settings: settings, generator: generator, locks: locks, log: log}
}

// RunStats — итоги одного прохода планировщика.
type RunStats struct {
	Generated int
	Skipped   int
	Failed    int
}

// Run обрабатывает оба типа контента для зон текущего часа UTC. Час
// захватывается распределённой блокировкой, чтобы реплики не дублировали
// проход. Ошибка одной пары не прерывает проход: она логируется и
// учитывается в Failed.
func (s *Service) Run(ctx context.Context, now time.Time) RunStats {
	if s.locks == nil {
		return s.run(ctx, now)
	}
	key := "scheduler:run:" + now.UTC().Format("2006-01-02-15")
	var stats RunStats
	if err := s.locks.Once(key, time.Hour, func() error {
		stats = s.run(ctx, now)
		return nil
	}); err != nil {
		s.log.Warn().Err(err).Msg("scheduler: блокировка прохода недоступна, выполняем без неё")
		return s.run(ctx, now)
	}
	return stats
}

func (s *Service) run(ctx context.Context, now time.Time) RunStats {
	started := time.Now()
	defer func() {
		metrics.SchedulerRunSeconds.Observe(time.Since(started).Seconds())
	}()

	zones := TimezonesForUTCHour(now.UTC().Hour())
	if len(zones) == 0 {
		return RunStats{}
	}
	dueDate := domain.DateString(now)

	var stats RunStats
	for _, contentType := range []domain.ContentType{domain.ContentTypeQuestion, domain.ContentTypeChallenge} {
		due, err := s.settings.ListDueSettings(ctx, contentType, zones, dueDate)
		if err != nil {
			s.log.Error().Err(err).Str("content_type", string(contentType)).Msg("scheduler: не удалось получить пары к генерации")
			stats.Failed++
			continue
		}
		for _, settings := range due {
			switch s.processCouple(ctx, settings, now) {
			case outcomeGenerated:
				stats.Generated++
			case outcomeSkipped:
				stats.Skipped++
			case outcomeFailed:
				stats.Failed++
			}
		}
	}

	s.log.Info().
		Int("generated", stats.Generated).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Strs("zones", zones).
		Msg("scheduler: проход завершён")
	return stats
}

type outcome string

const (
	outcomeGenerated outcome = "generated"
	outcomeSkipped   outcome = "skipped"
	outcomeFailed    outcome = "failed"
)

// processCouple подтверждает локальную полночь пары и генерирует контент.
// Ведро зон строится по статическим смещениям, поэтому фактический локальный
// час проверяется ещё раз по базе tzdata.
func (s *Service) processCouple(ctx context.Context, settings domain.CoupleSettings, now time.Time) outcome {
	result := outcomeFailed
	defer func() {
		metrics.SchedulerCouples.WithLabelValues(string(result)).Inc()
	}()

	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		s.log.Warn().Err(err).
			Str("couple_id", settings.CoupleID).
			Str("timezone", settings.Timezone).
			Msg("scheduler: неизвестный часовой пояс пары")
		return result
	}
	if now.In(loc).Hour() != 0 {
		result = outcomeSkipped
		return result
	}

	generated, err := s.generator.Generate(ctx, settings.CoupleID, settings.ContentType, settings.Timezone, 0, now)
	if err != nil {
		s.log.Error().Err(err).
			Str("couple_id", settings.CoupleID).
			Str("content_type", string(settings.ContentType)).
			Msg("scheduler: генерация не удалась")
		return result
	}

	next := domain.DateString(now.AddDate(0, 0, 1))
	if err := s.settings.AdvanceSettings(ctx, settings.CoupleID, settings.ContentType, generated.Content.ContentDay, next); err != nil {
		s.log.Error().Err(err).
			Str("couple_id", settings.CoupleID).
			Msg("scheduler: не удалось продвинуть расписание")
		return result
	}

	if generated.AlreadyExists {
		result = outcomeSkipped
	} else {
		result = outcomeGenerated
	}
	return result
}
