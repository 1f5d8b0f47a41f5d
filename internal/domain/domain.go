// Package domain defines the value types shared by every DataStore
// implementation: players, teams, seasons, tournaments, personnel, games and
// their events, warmup plans, settings, and the ephemeral timer state.
package domain

import "strings"

// PersonnelRole enumerates the roles a Personnel record may hold.
type PersonnelRole string

const (
	RoleCoach     PersonnelRole = "coach"
	RoleAssistant PersonnelRole = "assistant"
	RoleManager   PersonnelRole = "manager"
	RoleMedic     PersonnelRole = "medic"
	RoleOther     PersonnelRole = "other"
)

// Player is a master-roster entry, independent of any team assignment.
type Player struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Nickname             string  `json:"nickname,omitempty"`
	JerseyNumber         string  `json:"jerseyNumber,omitempty"`
	IsGoalie             bool    `json:"isGoalie"`
	ReceivedFairPlayCard bool    `json:"receivedFairPlayCard"`
	Color                string  `json:"color,omitempty"`
	Notes                string  `json:"notes,omitempty"`
	CreatedAt            string  `json:"createdAt"`
	UpdatedAt            string  `json:"updatedAt"`
}

// Team is a roster grouping, optionally bound to a season/tournament/series.
type Team struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	Color                    string `json:"color,omitempty"`
	Notes                    string `json:"notes,omitempty"`
	AgeGroup                 string `json:"ageGroup,omitempty"`
	GameType                 string `json:"gameType,omitempty"`
	IsArchived               bool   `json:"isArchived"`
	BoundSeasonID            string `json:"boundSeasonId,omitempty"`
	BoundTournamentID        string `json:"boundTournamentId,omitempty"`
	BoundTournamentSeriesID  string `json:"boundTournamentSeriesId,omitempty"`
	CreatedAt                string `json:"createdAt"`
	UpdatedAt                string `json:"updatedAt"`
}

// UniqueKey returns the composite uniqueness tuple for a team. Name is
// case-folded; all other fields participate verbatim.
func (t Team) UniqueKey() string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(t.Name)),
		t.GameType,
		t.BoundSeasonID,
		t.BoundTournamentID,
		t.BoundTournamentSeriesID,
	}, "\x1f")
}

// TeamPlayer is a Player snapshot taken at roster-assignment time.
type TeamPlayer struct {
	TeamID               string `json:"teamId"`
	PlayerID             string `json:"playerId"`
	Name                 string `json:"name"`
	Nickname             string `json:"nickname,omitempty"`
	JerseyNumber         string `json:"jerseyNumber,omitempty"`
	IsGoalie             bool   `json:"isGoalie"`
	ReceivedFairPlayCard bool   `json:"receivedFairPlayCard"`
	Color                string `json:"color,omitempty"`
	Notes                string `json:"notes,omitempty"`
}

// Season groups games under a club season window.
type Season struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	StartDate       string `json:"startDate,omitempty"`
	EndDate         string `json:"endDate,omitempty"`
	ClubSeason      string `json:"clubSeason"`
	GameType        string `json:"gameType,omitempty"`
	Gender          string `json:"gender,omitempty"`
	AgeGroup        string `json:"ageGroup,omitempty"`
	LeagueID        string `json:"leagueId,omitempty"`
	CustomLeagueName string `json:"customLeagueName,omitempty"`
	IsArchived      bool   `json:"isArchived"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

// UniqueKey returns the composite uniqueness tuple for a season.
func (s Season) UniqueKey() string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(s.Name)),
		s.ClubSeason, s.GameType, s.Gender, s.AgeGroup, s.LeagueID,
	}, "\x1f")
}

// Tournament is analogous to Season but additionally carries a level/series.
type Tournament struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StartDate  string `json:"startDate,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
	Location   string `json:"location,omitempty"`
	Level      string `json:"level,omitempty"`
	Series     string `json:"series,omitempty"`
	ClubSeason string `json:"clubSeason"`
	GameType   string `json:"gameType,omitempty"`
	Gender     string `json:"gender,omitempty"`
	AgeGroup   string `json:"ageGroup,omitempty"`
	IsArchived bool   `json:"isArchived"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// UniqueKey returns the composite uniqueness tuple for a tournament.
func (t Tournament) UniqueKey() string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(t.Name)),
		t.ClubSeason, t.GameType, t.Gender, t.AgeGroup,
	}, "\x1f")
}

// Personnel is a coach/assistant/manager/medic record, unique by lowercased name.
type Personnel struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Role           PersonnelRole `json:"role"`
	Email          string        `json:"email,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	Certifications []string      `json:"certifications,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	CreatedAt      string        `json:"createdAt"`
	UpdatedAt      string        `json:"updatedAt"`
}

// UniqueKey is the lowercased name — Personnel has a single namespace per user.
func (p Personnel) UniqueKey() string {
	return strings.ToLower(strings.TrimSpace(p.Name))
}

// GameEvent is a single timeline entry on a Game. Identity is positional:
// (gameID, index into Game.GameEvents) — there is no stable per-event id.
type GameEvent struct {
	Type          string                 `json:"type"`
	Time          int                    `json:"time"`
	ScorerID      string                 `json:"scorerId,omitempty"`
	AssisterID    string                 `json:"assisterId,omitempty"`
	PersonnelID   string                 `json:"personnelId,omitempty"`
	Extra         map[string]interface{} `json:"extra,omitempty"`
}

// Game is the AppState document: one per recorded match.
type Game struct {
	ID                string      `json:"id"`
	TeamName          string      `json:"teamName"`
	OpponentName      string      `json:"opponentName"`
	GameDate          string      `json:"gameDate"`
	HomeScore         int         `json:"homeScore"`
	AwayScore         int         `json:"awayScore"`
	CurrentPeriod     int         `json:"currentPeriod"`
	GameStatus        string      `json:"gameStatus"`
	GameEvents        []GameEvent `json:"gameEvents"`
	AvailablePlayerIDs []string   `json:"availablePlayerIds"`
	PlayersOnFieldIDs  []string   `json:"playersOnFieldIds"`
	SelectedPlayerIDs  []string   `json:"selectedPlayerIds"`
	PeriodDurationMinutes int     `json:"periodDurationMinutes"`
	NumberOfPeriods       int     `json:"numberOfPeriods"`
	SeasonID          string      `json:"seasonId"`
	TournamentID      string      `json:"tournamentId"`
	HomeOrAway        string      `json:"homeOrAway,omitempty"`
	Location          string      `json:"location,omitempty"`
	Version           int         `json:"version"`
	CreatedAt         string      `json:"createdAt"`
	UpdatedAt         string      `json:"updatedAt"`
}

// PlayerAdjustment is an external-stat correction row scoped to a player.
type PlayerAdjustment struct {
	ID               string `json:"id"`
	PlayerID         string `json:"playerId"`
	GamesPlayedDelta int    `json:"gamesPlayedDelta"`
	GoalsDelta       int    `json:"goalsDelta"`
	AssistsDelta     int    `json:"assistsDelta"`
	AppliedAt        string `json:"appliedAt"`
}

// WarmupSection is one block of a WarmupPlan.
type WarmupSection struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// WarmupPlan is a singleton-per-user document; id is always "default".
type WarmupPlan struct {
	ID           string          `json:"id"`
	Version      int             `json:"version"`
	LastModified string          `json:"lastModified"`
	IsDefault    bool            `json:"isDefault"`
	Sections     []WarmupSection `json:"sections"`
	UpdatedAt    string          `json:"updatedAt"`
}

// AppSettings is a singleton-per-user document.
type AppSettings struct {
	Language                string `json:"language"`
	CurrentGameID            string `json:"currentGameId,omitempty"`
	LastHomeTeamName         string `json:"lastHomeTeamName,omitempty"`
	HasSeenAppGuide          bool   `json:"hasSeenAppGuide"`
	UseDemandCorrection      bool   `json:"useDemandCorrection"`
	HasConfiguredSeasonDates bool   `json:"hasConfiguredSeasonDates"`
	ClubSeasonStart          string `json:"clubSeasonStart,omitempty"`
	ClubSeasonEnd            string `json:"clubSeasonEnd,omitempty"`
}

// TimerState is ephemeral and local-only; it is never enqueued for sync.
type TimerState struct {
	GameID                string `json:"gameId"`
	TimeElapsedInSeconds  int    `json:"timeElapsedInSeconds"`
	Timestamp             int64  `json:"timestamp"`
	WasRunning            bool   `json:"wasRunning"`
}

// NormalizeName trims surrounding whitespace. Names are compared
// case-insensitively for uniqueness but stored with original case preserved.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ValidateName enforces the 1-100 char bound shared by most named entities.
func ValidateName(name string, max int) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyName
	}
	if len(trimmed) > max {
		return ErrNameTooLong
	}
	return nil
}
