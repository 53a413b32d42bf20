// Package gate решает для защищённого маршрута: показать индикатор загрузки,
// отдать содержимое или отправить пользователя на страницу входа.
//
// Переходы описаны чистой функцией Transition, а Gate: оболочка на время
// жизни одного монтирования (одного запроса), которая выполняет разрешение
// сессии и побочные эффекты: уведомление и редирект.
package gate

import "github.com/magabrotheeeer/ugc-tracker/internal/models"

// State состояние гейта.
type State int

const (
	// Unresolved: сессия ещё не разрешена.
	Unresolved State = iota
	// Authorized: пользователь аутентифицирован.
	Authorized
	// Unauthorized: сессии нет; терминальное состояние для монтирования.
	Unauthorized
)

func (s State) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unresolved"
	}
}

// View что именно отображается в данном состоянии.
type View int

const (
	ViewLoading View = iota
	ViewChildren
	ViewNothing
)

func (v View) String() string {
	switch v {
	case ViewChildren:
		return "children"
	case ViewNothing:
		return "nothing"
	default:
		return "loading"
	}
}

// Effect побочный эффект перехода.
type Effect int

const (
	EffectNone Effect = iota
	// EffectRedirect: уведомить пользователя и заменить текущую страницу страницей входа.
	EffectRedirect
)

// Signal входные данные от сервиса авторизации.
type Signal struct {
	Loading  bool
	Identity *models.Session
	Err      error
}

// Transition вычисляет следующее состояние и эффект.
func Transition(cur State, sig Signal) (State, Effect) {
	if cur == Unauthorized {
		return Unauthorized, EffectNone
	}
	if sig.Loading {
		return Unresolved, EffectNone
	}
	if sig.Err != nil || sig.Identity == nil {
		return Unauthorized, EffectRedirect
	}
	return Authorized, EffectNone
}

// ViewFor возвращает отображение для состояния.
func ViewFor(s State) View {
	switch s {
	case Authorized:
		return ViewChildren
	case Unauthorized:
		return ViewNothing
	default:
		return ViewLoading
	}
}
