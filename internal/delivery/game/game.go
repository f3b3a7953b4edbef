package game

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"goban/internal/bootstrap"
	domain "goban/internal/domain/game"
	"goban/internal/httpresponse"
	"goban/internal/session"
	gameuc "goban/internal/usecase/game"
)

type GameHandler struct {
	cfg    bootstrap.Config
	log    *zap.SugaredLogger
	gameUC *gameuc.GameUseCase
	hub    *Hub
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewGameHandler(cfg bootstrap.Config, log *zap.SugaredLogger, uc *gameuc.GameUseCase, hub *Hub) *GameHandler {
	return &GameHandler{
		cfg:    cfg,
		log:    log,
		gameUC: uc,
		hub:    hub,
	}
}

func (g *GameHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		g.log.Error("Failed to read body:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var req domain.CreateGameRequest
	decoder := json.NewDecoder(bytes.NewReader(bodyBytes))
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(&req); err != nil {
		g.log.Error("JSON decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.UserID == "" {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "user_id is required")
		return
	}

	s, err := g.gameUC.CreateGame(r.Context(), req, req.UserID)
	if err != nil {
		g.log.Error(err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := domain.CreateGameResponse{
		GameID:   s.ID,
		GameCode: s.Code,
	}
	g.log.Infof("New game created: %s (code %s)", s.ID, s.Code)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (g *GameHandler) HandleJoinGame(w http.ResponseWriter, r *http.Request) {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		g.log.Error("Failed to read body:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var req domain.JoinGameRequest
	decoder := json.NewDecoder(bytes.NewReader(bodyBytes))
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(&req); err != nil {
		g.log.Error("JSON decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.UserID == "" || (req.GameID == "" && req.GameCode == "") {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "user_id and game_id or game_code are required")
		return
	}

	s, color, err := g.gameUC.JoinGame(r.Context(), req, req.UserID)
	if err != nil {
		g.log.Error(err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, map[string]any{
		"game_id": s.ID,
		"color":   color,
	})
}

func (g *GameHandler) GetGameById(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameID string `json:"game_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	s, err := g.gameUC.GetSession(req.GameID)
	if err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusNotFound, err.Error())
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, s.Snapshot())
}

func (g *GameHandler) HandleGetSGF(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "game_id is required")
		return
	}
	sgfText, err := g.gameUC.GetSGF(r.Context(), gameID)
	if err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/x-go-sgf")
	_, _ = w.Write([]byte(sgfText))
}

func (g *GameHandler) HandleArchiveList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	games, err := g.gameUC.GetArchiveGames(r.Context(), page)
	if err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, games)
}

func (g *GameHandler) HandleArchiveByID(w http.ResponseWriter, r *http.Request) {
	rec, err := g.gameUC.GetArchiveGameByID(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusNotFound, err.Error())
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, rec)
}

// wsCommand is one inbound frame on the game socket.
type wsCommand struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type positionPayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// HandleStartGame upgrades the connection and runs the per-connection read
// loop. Both players and spectators connect here; spectators pass no
// player_id and get read-only broadcasts.
func (g *GameHandler) HandleStartGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	playerID := r.URL.Query().Get("player_id")

	if gameID == "" {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "game_id is required")
		return
	}
	s, err := g.gameUC.GetSession(gameID)
	if err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("upgrade error:", err)
		return
	}

	peer := g.hub.Register(gameID, conn)
	if playerID != "" {
		s.SetConnected(playerID, true)
	}
	peer.SendTo(session.Event{Type: session.EventGameState, Payload: s.Snapshot()})

	defer func() {
		g.hub.Unregister(gameID, peer)
		if playerID != "" {
			s.SetConnected(playerID, false)
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd wsCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			peer.SendTo(errorEvent("malformed command: " + err.Error()))
			continue
		}
		g.dispatch(s, peer, playerID, cmd)
	}
}

func (g *GameHandler) dispatch(s *session.Session, peer *Peer, playerID string, cmd wsCommand) {
	var err error
	switch cmd.Type {
	case "heartbeat":
		s.Heartbeat(playerID)
		return
	case "move":
		var pos positionPayload
		if err = json.Unmarshal(cmd.Payload, &pos); err == nil {
			err = s.ApplyMove(playerID, domain.Position{X: pos.X, Y: pos.Y})
		}
	case "pass":
		err = s.ApplyPass(playerID)
	case "resign":
		err = s.Resign(playerID)
	case "requestUndo":
		err = s.RequestUndo(playerID)
	case "respondUndo":
		var p struct {
			Accepted bool `json:"accepted"`
		}
		if err = json.Unmarshal(cmd.Payload, &p); err == nil {
			err = s.RespondUndo(playerID, p.Accepted)
		}
	case "confirmScore":
		var p struct {
			Confirmed bool `json:"confirmed"`
		}
		if err = json.Unmarshal(cmd.Payload, &p); err == nil {
			err = s.ConfirmScore(playerID, p.Confirmed)
		}
	case "cancelScoring":
		err = s.CancelScoring(playerID)
	case "toggleDead":
		var pos positionPayload
		if err = json.Unmarshal(cmd.Payload, &pos); err == nil {
			err = s.ToggleDeadStones(playerID, domain.Position{X: pos.X, Y: pos.Y})
		}
	case "playAgain":
		_, err = g.gameUC.PlayAgain(s.ID, playerID)
	default:
		peer.SendTo(errorEvent("unknown command: " + cmd.Type))
		return
	}

	// Rule rejections are non-fatal and go back to the requester only.
	if err != nil {
		peer.SendTo(errorEvent(err.Error()))
	}
}

func errorEvent(msg string) session.Event {
	return session.Event{Type: "error", Payload: map[string]string{"message": msg}}
}
