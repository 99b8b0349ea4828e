package service

import (
	"strings"

	"onchain-leveling-backend/internal/features/session/models"
)

const (
	RouteRoot        = "/"
	RouteOnboarding  = "/onboarding"
	RouteHome        = "/home"
	RouteActivity    = "/activity"
	RouteQuest       = "/quest"
	RouteTasks       = "/tasks"
	RouteProfile     = "/profile"
	RouteLeaderboard = "/leaderboard"
)

type routeClass int

const (
	classUnknown routeClass = iota
	classPublic
	classOnboarding
	classLedger
	classCosmetic
)

var routes = map[string]routeClass{
	RouteLeaderboard: classPublic,
	RouteOnboarding:  classOnboarding,
	RouteTasks:       classLedger,
	RouteProfile:     classLedger,
	RouteRoot:        classCosmetic,
	RouteHome:        classCosmetic,
	RouteActivity:    classCosmetic,
	RouteQuest:       classCosmetic,
}

// NormalizeRoute drops the query string and any trailing slash.
func NormalizeRoute(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	route = strings.TrimRight(route, "/")
	if route == "" {
		return RouteRoot
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return strings.ToLower(route)
}

func allow() models.Decision { return models.Decision{Action: models.ActionAllow} }

func wait() models.Decision { return models.Decision{Action: models.ActionWait} }

func redirect(target string) models.Decision {
	return models.Decision{Action: models.ActionRedirect, Target: target}
}

// Guard is the one place that decides whether a client may show route.
// A registered profile always has an on-chain character, so only
// unregistered clients depend on the local one.
func Guard(state models.State, hasLocalCosmetic bool, route string) models.Decision {
	pending := state == models.StateConnecting || state == models.StateCheckingRegistration

	switch routes[NormalizeRoute(route)] {
	case classPublic:
		return allow()

	case classOnboarding:
		switch {
		case state == models.StateRegistered:
			return redirect(RouteHome)
		case pending:
			return wait()
		default:
			return allow()
		}

	case classLedger:
		switch {
		case state == models.StateRegistered:
			return allow()
		case pending:
			return wait()
		default:
			return redirect(RouteOnboarding)
		}

	case classCosmetic:
		switch {
		case state == models.StateRegistered, hasLocalCosmetic:
			return allow()
		case pending:
			return wait()
		default:
			return redirect(RouteOnboarding)
		}

	default:
		return redirect(RouteRoot)
	}
}
