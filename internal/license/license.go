// Package license вычисляет уровень доступа пользователя по записи лицензии.
//
// Evaluate: единственное каноническое определение "активен ли пробный период".
// Функция чистая: результат зависит только от лицензии и переданного момента
// времени. Вызывается заново при каждом запросе.
package license

import (
	"time"

	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// AccessLevel уровень доступа, производный от лицензии.
type AccessLevel int

const (
	// TrialExpired: пробный период закончился или лицензии нет.
	TrialExpired AccessLevel = iota
	// TrialActive: пробный период ещё идёт.
	TrialActive
	// LifetimeAccess: куплен пожизненный доступ.
	LifetimeAccess
)

func (l AccessLevel) String() string {
	switch l {
	case LifetimeAccess:
		return "lifetime"
	case TrialActive:
		return "trial-active"
	default:
		return "trial-expired"
	}
}

const day = 24 * time.Hour

// Evaluation результат оценки лицензии.
type Evaluation struct {
	Level              AccessLevel
	TrialDaysRemaining int
}

// ShowPaywall сообщает, нужно ли блокировать контент пейволлом.
func (e Evaluation) ShowPaywall() bool {
	return e.Level == TrialExpired
}

// ShowBanner сообщает, нужно ли показывать баннер с остатком пробного периода.
func (e Evaluation) ShowBanner() bool {
	return e.Level == TrialActive
}

// Evaluate классифицирует лицензию относительно момента now.
//
// Пожизненный доступ имеет приоритет над датами пробного периода.
// Отсутствующая лицензия трактуется как истёкший пробный период.
func Evaluate(lic *models.License, now time.Time) Evaluation {
	if lic == nil {
		return Evaluation{Level: TrialExpired}
	}
	if lic.HasLifetimeAccess {
		return Evaluation{Level: LifetimeAccess}
	}
	if lic.TrialEndDate != nil && lic.TrialEndDate.After(now) {
		return Evaluation{
			Level:              TrialActive,
			TrialDaysRemaining: ceilDays(lic.TrialEndDate.Sub(now)),
		}
	}
	return Evaluation{Level: TrialExpired}
}

func ceilDays(d time.Duration) int {
	days := int(d / day)
	if d%day != 0 {
		days++
	}
	return days
}
