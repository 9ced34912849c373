package server

import (
	"github.com/seafrith/ninarow/engine"
)

type StatusResponse struct {
	Settings        SettingsDTO       `json:"settings"`
	Board           [][]int           `json:"board"`
	NextPlayer      int               `json:"next_player"`
	Winner          int               `json:"winner"`
	BoardSize       int               `json:"board_size"`
	WinLength       int               `json:"win_length"`
	Status          string            `json:"status"`
	AiThinking      bool              `json:"ai_thinking"`
	History         []historyEntryDTO `json:"history"`
	TurnStartedAtMs int64             `json:"turn_started_at_ms"`
}

type SettingsDTO struct {
	BoardSize   int    `json:"board_size"`
	WinLength   int    `json:"win_length"`
	Mode        string `json:"mode"`
	HumanPlayer int    `json:"human_player"`
}

type apiMove struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type historyEntryDTO struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Player    int     `json:"player"`
	ElapsedMs float64 `json:"elapsed_ms"`
	IsAi      bool    `json:"is_ai"`
	Depth     int     `json:"depth"`
}

type historyPayload struct {
	History []historyEntryDTO `json:"history"`
}

type progressPayload struct {
	Depth   int     `json:"depth"`
	Score   int     `json:"score"`
	Nodes   int64   `json:"nodes"`
	TimeMs  int64   `json:"time_ms"`
	NPS     float64 `json:"nps"`
	PV      string  `json:"pv"`
}

type hintResponse struct {
	Move  engine.Move `json:"move"`
	Score int         `json:"score"`
	Depth int         `json:"depth"`
	PV    string      `json:"pv"`
}

func cellToInt(cell engine.Cell) int {
	switch cell {
	case engine.CellX:
		return 1
	case engine.CellO:
		return 2
	default:
		return 0
	}
}

func intToCell(value int) engine.Cell {
	switch value {
	case 1:
		return engine.CellX
	case 2:
		return engine.CellO
	default:
		return engine.CellEmpty
	}
}

func statusToString(status GameStatus) string {
	switch status {
	case StatusNotStarted:
		return "not_started"
	case StatusXWon:
		return "x_won"
	case StatusOWon:
		return "o_won"
	case StatusDraw:
		return "draw"
	default:
		return "running"
	}
}

func winnerFromStatus(status GameStatus) int {
	switch status {
	case StatusXWon:
		return 1
	case StatusOWon:
		return 2
	default:
		return 0
	}
}

func boardToSlice(board *engine.Board) [][]int {
	size := board.Size()
	rows := make([][]int, size)
	for y := 0; y < size; y++ {
		rows[y] = make([]int, size)
		for x := 0; x < size; x++ {
			rows[y][x] = cellToInt(board.At(x, y))
		}
	}
	return rows
}

func settingsToDTO(settings Settings) SettingsDTO {
	humanPlayer := 0
	if settings.Mode == ModeHumanVsAI || settings.Mode == ModeHumanVsHuman {
		humanPlayer = cellToInt(settings.HumanSide)
	}
	return SettingsDTO{
		BoardSize:   settings.BoardSize,
		WinLength:   settings.WinLength,
		Mode:        string(settings.Mode),
		HumanPlayer: humanPlayer,
	}
}

func settingsFromDTO(dto SettingsDTO, base Settings) Settings {
	settings := base
	if dto.BoardSize > 0 {
		settings.BoardSize = dto.BoardSize
	}
	if dto.WinLength > 0 {
		settings.WinLength = dto.WinLength
	}
	switch Mode(dto.Mode) {
	case ModeHumanVsAI, ModeAIVsAI, ModeHumanVsHuman:
		settings.Mode = Mode(dto.Mode)
	}
	if side := intToCell(dto.HumanPlayer); side != engine.CellEmpty {
		settings.HumanSide = side
	}
	return settings
}

func historyEntryToDTO(entry HistoryEntry) historyEntryDTO {
	return historyEntryDTO{
		X:         entry.Move.X,
		Y:         entry.Move.Y,
		Player:    cellToInt(entry.Symbol),
		ElapsedMs: entry.ElapsedMs,
		IsAi:      entry.IsAI,
		Depth:     entry.Depth,
	}
}

func snapshotToStatus(snap Snapshot) StatusResponse {
	history := make([]historyEntryDTO, 0, len(snap.History))
	for _, entry := range snap.History {
		history = append(history, historyEntryToDTO(entry))
	}
	return StatusResponse{
		Settings:        settingsToDTO(snap.Settings),
		Board:           boardToSlice(snap.Board),
		NextPlayer:      cellToInt(snap.ToMove),
		Winner:          winnerFromStatus(snap.Status),
		BoardSize:       snap.Board.Size(),
		WinLength:       snap.Settings.WinLength,
		Status:          statusToString(snap.Status),
		AiThinking:      snap.Thinking,
		History:         history,
		TurnStartedAtMs: snap.TurnStarted.UnixMilli(),
	}
}

func progressFromStats(ds engine.DepthStats) progressPayload {
	return progressPayload{
		Depth:  ds.Depth,
		Score:  ds.Score,
		Nodes:  ds.Nodes,
		TimeMs: ds.Elapsed.Milliseconds(),
		NPS:    ds.NPS,
		PV:     engine.FormatPV(ds.PV),
	}
}
