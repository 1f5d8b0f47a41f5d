// Package store defines the DataStore contract implemented by
// LocalDataStore, RemoteDataStore, and SyncedDataStore.
package store

import (
	"context"

	"github.com/relentnet/matchops-sync/internal/domain"
)

// BackendName identifies which DataStore implementation is in use.
type BackendName string

const (
	BackendLocal  BackendName = "local"
	BackendRemote BackendName = "supabase"
	BackendSynced BackendName = "synced"
)

// DataStore is the uniform contract satisfied by all three
// implementations.
type DataStore interface {
	Initialize(ctx context.Context) error
	Close(ctx context.Context) error
	BackendName() BackendName
	IsAvailable() bool

	// Players
	GetPlayers(ctx context.Context) ([]domain.Player, error)
	CreatePlayer(ctx context.Context, p domain.Player) (domain.Player, error)
	UpdatePlayer(ctx context.Context, id string, patch domain.Player) (*domain.Player, error)
	DeletePlayer(ctx context.Context, id string) error
	UpsertPlayer(ctx context.Context, p domain.Player) (domain.Player, error)

	// Teams
	GetTeams(ctx context.Context, includeArchived bool) ([]domain.Team, error)
	GetTeamByID(ctx context.Context, id string) (*domain.Team, error)
	CreateTeam(ctx context.Context, t domain.Team) (domain.Team, error)
	UpdateTeam(ctx context.Context, id string, patch domain.Team) (*domain.Team, error)
	DeleteTeam(ctx context.Context, id string) error
	UpsertTeam(ctx context.Context, t domain.Team) (domain.Team, error)

	// Team rosters
	GetTeamRoster(ctx context.Context, teamID string) ([]domain.TeamPlayer, error)
	SetTeamRoster(ctx context.Context, teamID string, roster []domain.TeamPlayer) error
	GetAllTeamRosters(ctx context.Context) (map[string][]domain.TeamPlayer, error)

	// Seasons
	GetSeasons(ctx context.Context, includeArchived bool) ([]domain.Season, error)
	CreateSeason(ctx context.Context, s domain.Season) (domain.Season, error)
	UpdateSeason(ctx context.Context, id string, full domain.Season) (*domain.Season, error)
	DeleteSeason(ctx context.Context, id string) error

	// Tournaments
	GetTournaments(ctx context.Context, includeArchived bool) ([]domain.Tournament, error)
	CreateTournament(ctx context.Context, t domain.Tournament) (domain.Tournament, error)
	UpdateTournament(ctx context.Context, id string, full domain.Tournament) (*domain.Tournament, error)
	DeleteTournament(ctx context.Context, id string) error

	// Personnel
	GetAllPersonnel(ctx context.Context) ([]domain.Personnel, error)
	GetPersonnelByID(ctx context.Context, id string) (*domain.Personnel, error)
	AddPersonnelMember(ctx context.Context, p domain.Personnel) (domain.Personnel, error)
	UpdatePersonnelMember(ctx context.Context, id string, patch domain.Personnel) (*domain.Personnel, error)
	RemovePersonnelMember(ctx context.Context, id string) error

	// Games
	GetGames(ctx context.Context) (map[string]domain.Game, error)
	GetGameByID(ctx context.Context, id string) (*domain.Game, error)
	CreateGame(ctx context.Context, partial domain.Game) (domain.Game, error)
	SaveGame(ctx context.Context, id string, full domain.Game) (*domain.Game, error)
	SaveAllGames(ctx context.Context, games map[string]domain.Game) error
	DeleteGame(ctx context.Context, id string) error

	// Game events (identity is positional: gameID + index)
	AddGameEvent(ctx context.Context, gameID string, event domain.GameEvent) (*domain.Game, error)
	UpdateGameEvent(ctx context.Context, gameID string, index int, event domain.GameEvent) (*domain.Game, error)
	RemoveGameEvent(ctx context.Context, gameID string, index int) (*domain.Game, error)

	// Player adjustments
	GetPlayerAdjustments(ctx context.Context, playerID string) ([]domain.PlayerAdjustment, error)
	AddPlayerAdjustment(ctx context.Context, a domain.PlayerAdjustment) (domain.PlayerAdjustment, error)
	UpdatePlayerAdjustment(ctx context.Context, playerID, adjID string, patch domain.PlayerAdjustment) (*domain.PlayerAdjustment, error)
	DeletePlayerAdjustment(ctx context.Context, playerID, adjID string) error

	// Warmup plan
	GetWarmupPlan(ctx context.Context) (*domain.WarmupPlan, error)
	SaveWarmupPlan(ctx context.Context, plan domain.WarmupPlan) (domain.WarmupPlan, error)
	DeleteWarmupPlan(ctx context.Context) error

	// Settings
	GetSettings(ctx context.Context) (domain.AppSettings, error)
	SaveSettings(ctx context.Context, s domain.AppSettings) error
	UpdateSettings(ctx context.Context, patch map[string]any) (domain.AppSettings, error)

	// Timer state (local-only; never synchronized)
	GetTimerState(ctx context.Context) (*domain.TimerState, error)
	SaveTimerState(ctx context.Context, t domain.TimerState) error
	ClearTimerState(ctx context.Context) error
}
