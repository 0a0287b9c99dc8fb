package data

import (
	"time"

	"github.com/kykmenu/yemekbot/internal/biz/repo"
	"github.com/kykmenu/yemekbot/internal/gateway"
	"github.com/kykmenu/yemekbot/internal/menu"
)

// Repositories contains all repositories
type Repositories struct {
	Message repo.MessageRepo
	Menu    repo.MenuRepo
	// MenuWeekly uses a tighter timeout; the weekly overview makes up to 14
	// sequential fetches and must not hang on a slow provider.
	MenuWeekly repo.MenuRepo
	Log        repo.MessageLogRepo
}

// NewRepositories creates all repositories
func NewRepositories(
	gw *gateway.Client,
	menuBaseURL, menuCity string,
	menuTimeout, menuWeeklyTimeout time.Duration,
	logDBPath string,
) (*Repositories, error) {
	logStore, err := NewLogStore(logDBPath)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Message:    gw,
		Menu:       menu.NewClient(menuBaseURL, menuCity, menuTimeout),
		MenuWeekly: menu.NewClient(menuBaseURL, menuCity, menuWeeklyTimeout),
		Log:        logStore,
	}, nil
}
